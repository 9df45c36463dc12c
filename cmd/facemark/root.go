package main

import (
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ayusman/facemark/internal/app"
	"github.com/ayusman/facemark/internal/capture"
	"github.com/ayusman/facemark/internal/config"
	"github.com/ayusman/facemark/internal/detector"
	"github.com/ayusman/facemark/internal/store"
)

// errReported marks a failure whose message was already printed.
var errReported = errors.New("reported")

var configPath string

// newDetector builds the embedding provider; tests swap it out.
var newDetector = detector.New

var rootCmd = &cobra.Command{
	Use:   "facemark",
	Short: "Face recognition attendance",
	Long: `Facemark registers faces under a name and marks attendance when a
registered face is recognized. Attendance is kept in a spreadsheet ledger.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <data dir>/config.yaml)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// openStore loads the configuration and opens the file store.
func openStore() (*config.Config, *store.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	sc, err := cfg.Store()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.New(sc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	return cfg, st, nil
}

// openApp builds the attendance service. The camera is only set up for kiosk
// mode; camera overrides the configured device when set.
func openApp(kiosk bool, camera string) (*config.Config, *app.App, error) {
	cfg, st, err := openStore()
	if err != nil {
		return nil, nil, err
	}

	det, err := newDetector(cfg.DetectorConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create detector: %w", err)
	}

	appCfg := app.Config{
		Store:        st,
		Detector:     det,
		Threshold:    cfg.Threshold,
		HookDir:      cfg.HookPath(),
		HookTimeout:  cfg.HookTimeout,
		MotionThresh: cfg.Kiosk.MotionThreshold,
		Cooldown:     cfg.Kiosk.Cooldown,
	}
	if kiosk {
		if camera == "" {
			camera = cfg.Kiosk.Camera
		}
		appCfg.Camera = capture.NewCamera(camera)
	}

	a, err := app.New(appCfg)
	if err != nil {
		det.Close()
		return nil, nil, err
	}
	return cfg, a, nil
}

// readImage decodes the image file at path. An empty path or a file that is
// not an image is reported as a missing image, like an unusable upload.
func readImage(path string) (image.Image, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	img, err := detector.DecodeImage(data)
	if err != nil {
		log.Printf("Cannot decode %s: %v", path, err)
		return nil, nil
	}
	return img, nil
}

// findWebDir searches for the web UI in common locations: "web", "../web",
// "../../web", then ~/.facemark/web. Returns "" if none exists.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".facemark", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
