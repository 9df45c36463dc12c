package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/facemark/internal/app"
	"github.com/ayusman/facemark/internal/config"
	"github.com/ayusman/facemark/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web UI and HTTP API",
	Long: `Serve starts the HTTP server for registration, recognition and export.
With --kiosk the camera is watched as well and recognized faces are marked
automatically.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default from config)")
	serveCmd.Flags().Bool("kiosk", false, "Watch the camera and mark attendance automatically")
	serveCmd.Flags().String("camera", "", "Camera device index or stream URL (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	kiosk := mustGetBool(cmd, "kiosk")

	cfg, a, err := openApp(kiosk, mustGetString(cmd, "camera"))
	if err != nil {
		return err
	}
	defer a.Close()

	if kiosk {
		if err := a.Start(); err != nil {
			return fmt.Errorf("failed to start kiosk: %w", err)
		}
	}

	srv := newServer(cfg, a)
	addr := addrFlag(cmd, cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Printf("Received %v, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

// newServer serves the app's API, its kiosk snapshots and the web UI.
func newServer(cfg *config.Config, a *app.App) *server.Server {
	webDir := cfg.Server.StaticDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		log.Printf("Serving static files from: %s", webDir)
	}

	return server.New(server.Config{
		Service:   a,
		Snapshots: a,
		StaticDir: webDir,
	})
}

func addrFlag(cmd *cobra.Command, cfg *config.Config) string {
	if addr := mustGetString(cmd, "addr"); addr != "" {
		return addr
	}
	return cfg.Server.Addr
}
