// Package config loads facemark settings from defaults, an optional YAML
// file and FACEMARK_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/facemark/internal/detector"
	"github.com/ayusman/facemark/internal/store"
)

// FileName is the config file looked up in the data directory.
const FileName = "config.yaml"

type Config struct {
	DataDir    string `yaml:"data_dir"`
	ImageDir   string `yaml:"image_dir"`
	IndexFile  string `yaml:"index_file"`
	LedgerFile string `yaml:"ledger_file"`
	HookDir    string `yaml:"hook_dir"`

	Timezone  string  `yaml:"timezone"`
	Threshold float64 `yaml:"threshold"`

	Detector DetectorConfig `yaml:"detector"`
	Server   ServerConfig   `yaml:"server"`
	Kiosk    KioskConfig    `yaml:"kiosk"`

	HookTimeout time.Duration `yaml:"hook_timeout"`
}

type DetectorConfig struct {
	Kind    string `yaml:"kind"`   // insightface or remote
	Python  string `yaml:"python"` // interpreter for the insightface service (default: venv, then python3)
	Script  string `yaml:"script"`
	URL     string `yaml:"url"` // remote embedding service base URL
	DetSize int    `yaml:"det_size"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

type KioskConfig struct {
	Camera          string        `yaml:"camera"` // device index or stream URL
	Cooldown        time.Duration `yaml:"cooldown"`
	MotionThreshold float64       `yaml:"motion_threshold"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	return &Config{
		DataDir:    filepath.Join(home, ".facemark"),
		ImageDir:   "registered_faces",
		IndexFile:  "face_encodings.json",
		LedgerFile: "attendance.xlsx",
		HookDir:    "hooks",
		Timezone:   "Asia/Kolkata",
		Threshold:  1.2,
		Detector: DetectorConfig{
			Kind:    detector.KindInsightFace,
			DetSize: 640,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Kiosk: KioskConfig{
			Camera:          "0",
			Cooldown:        10 * time.Second,
			MotionThreshold: 1.0,
		},
		HookTimeout: 5 * time.Second,
	}
}

// Load builds the configuration. An empty path reads config.yaml from the
// data directory when it exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	// The data dir decides where the default file lives.
	if v := os.Getenv("FACEMARK_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	explicit := path != ""
	if !explicit {
		path = filepath.Join(expandHome(cfg.DataDir), FileName)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv()
	cfg.DataDir = expandHome(cfg.DataDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	envString("FACEMARK_DATA_DIR", &c.DataDir)
	envString("FACEMARK_IMAGE_DIR", &c.ImageDir)
	envString("FACEMARK_INDEX_FILE", &c.IndexFile)
	envString("FACEMARK_LEDGER_FILE", &c.LedgerFile)
	envString("FACEMARK_HOOK_DIR", &c.HookDir)
	envString("FACEMARK_TIMEZONE", &c.Timezone)
	envFloat("FACEMARK_THRESHOLD", &c.Threshold)

	envString("FACEMARK_DETECTOR", &c.Detector.Kind)
	envString("FACEMARK_PYTHON", &c.Detector.Python)
	envString("FACEMARK_SCRIPT", &c.Detector.Script)
	envString("FACEMARK_EMBEDDING_URL", &c.Detector.URL)
	envInt("FACEMARK_DET_SIZE", &c.Detector.DetSize)

	envString("FACEMARK_ADDR", &c.Server.Addr)
	envString("FACEMARK_STATIC_DIR", &c.Server.StaticDir)

	envString("FACEMARK_CAMERA", &c.Kiosk.Camera)
	envDuration("FACEMARK_COOLDOWN", &c.Kiosk.Cooldown)
	envFloat("FACEMARK_MOTION_THRESHOLD", &c.Kiosk.MotionThreshold)

	envDuration("FACEMARK_HOOK_TIMEOUT", &c.HookTimeout)
}

// Validate checks values that would otherwise fail later.
func (c *Config) Validate() error {
	if c.Threshold <= 0 {
		return fmt.Errorf("threshold must be positive, got %v", c.Threshold)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	switch c.Detector.Kind {
	case detector.KindInsightFace:
	case detector.KindRemote:
		if c.Detector.URL == "" {
			return errors.New("remote detector needs an embedding URL")
		}
	default:
		return fmt.Errorf("unknown detector kind %q", c.Detector.Kind)
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Path resolves p against the data directory unless it is absolute.
func (c *Config) Path(p string) string {
	p = expandHome(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

// Store returns the storage locations.
func (c *Config) Store() (store.Config, error) {
	loc, err := c.Location()
	if err != nil {
		return store.Config{}, err
	}
	return store.Config{
		ImageDir:   c.Path(c.ImageDir),
		IndexPath:  c.Path(c.IndexFile),
		LedgerPath: c.Path(c.LedgerFile),
		Location:   loc,
	}, nil
}

// DetectorConfig returns the embedding provider settings.
func (c *Config) DetectorConfig() detector.Config {
	return detector.Config{
		Kind:    c.Detector.Kind,
		Python:  c.Detector.Python,
		Script:  c.Detector.Script,
		URL:     c.Detector.URL,
		DetSize: c.Detector.DetSize,
	}
}

// HookPath returns the hook directory, or "" when hooks are disabled.
func (c *Config) HookPath() string {
	if c.HookDir == "" {
		return ""
	}
	return c.Path(c.HookDir)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// envInt keeps dst when the variable is unset or not a positive integer.
func envInt(key string, dst *int) {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		*dst = n
	}
}

func envFloat(key string, dst *float64) {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && f > 0 {
		*dst = f
	}
}

func envDuration(key string, dst *time.Duration) {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		*dst = d
	}
}
