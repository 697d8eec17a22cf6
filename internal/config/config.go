// Package config loads image-tune settings from a TOML file and the environment.
//
// Loading follows three layers: built-in defaults, then the file, then
// environment variables. Finalize validates the result and computes derived
// values such as byte limits and durations.
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/docker/go-units"

	"github.com/ironsheep/image-tune/internal/imaging"
	"github.com/ironsheep/image-tune/internal/logging"
)

// Environment overrides.
const (
	EnvConfigPath    = "IMAGE_TUNE_CONFIG"
	EnvLogLevel      = "IMAGE_TUNE_LOG_LEVEL"
	EnvLogFormat     = "IMAGE_TUNE_LOG_FORMAT"
	EnvEngineModel   = "IMAGE_TUNE_ENGINE_MODEL"
	EnvStoreDir      = "IMAGE_TUNE_STORE_DIR"
	EnvMetricsListen = "IMAGE_TUNE_METRICS_LISTEN"
)

// Config is the complete runtime configuration.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Engine  EngineConfig  `toml:"engine"`
	Source  SourceConfig  `toml:"source"`
	Store   StoreConfig   `toml:"store"`
	Preview PreviewConfig `toml:"preview"`
	Metrics MetricsConfig `toml:"metrics"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// EngineConfig selects the saturation model.
type EngineConfig struct {
	Model string `toml:"model"`

	model imaging.ColorModel
}

// ColorModel returns the parsed model. Valid after Finalize.
func (c *EngineConfig) ColorModel() imaging.ColorModel {
	return c.model
}

// SourceConfig limits what may be opened.
type SourceConfig struct {
	// MaxImageSize is a human readable byte size such as "64MB".
	MaxImageSize string `toml:"max_image_size"`
	// MaxPixels caps width*height read from the image header.
	MaxPixels  int  `toml:"max_pixels"`
	AutoOrient bool `toml:"auto_orient"`

	maxImageSize int64
}

// MaxImageSizeBytes returns MaxImageSize in bytes. Valid after Finalize.
func (c *SourceConfig) MaxImageSizeBytes() int64 {
	return c.maxImageSize
}

// StoreConfig controls where saved images go.
type StoreConfig struct {
	Dir         string `toml:"dir"`
	JPEGQuality int    `toml:"jpeg_quality"`
}

// PreviewConfig controls preview rendering.
type PreviewConfig struct {
	MaxDimension  int    `toml:"max_dimension"`
	RenderTimeout string `toml:"render_timeout"`

	renderTimeout time.Duration
}

// RenderTimeoutDuration returns RenderTimeout parsed. Valid after Finalize.
func (c *PreviewConfig) RenderTimeoutDuration() time.Duration {
	return c.renderTimeout
}

// MetricsConfig controls the optional Prometheus endpoint. An empty Listen
// disables it.
type MetricsConfig struct {
	Listen string `toml:"listen"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatConsole,
		},
		Engine: EngineConfig{Model: string(imaging.ModelLuma)},
		Source: SourceConfig{
			MaxImageSize: "64MB",
			MaxPixels:    100_000_000,
			AutoOrient:   true,
		},
		Store: StoreConfig{
			Dir:         "saved",
			JPEGQuality: 60,
		},
		Preview: PreviewConfig{
			MaxDimension:  1024,
			RenderTimeout: "30s",
		},
	}
}

// Load builds the configuration from defaults, the file at path (if non-empty)
// and the environment, then finalizes it.
//
// An empty path falls back to IMAGE_TUNE_CONFIG; if that is unset too, only
// defaults and environment are used. Unknown keys in the file are an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			sort.Strings(keys)
			return nil, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize applies environment overrides and validates every section.
func (c *Config) Finalize() error {
	c.loadEnv()

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", logging.FormatConsole, logging.FormatJSON:
	default:
		return fmt.Errorf("log: invalid format %q (must be console or json)", c.Log.Format)
	}

	model, err := imaging.ParseColorModel(c.Engine.Model)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	c.Engine.model = model

	size, err := units.FromHumanSize(c.Source.MaxImageSize)
	if err != nil {
		return fmt.Errorf("source: invalid max_image_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("source: max_image_size must be positive")
	}
	c.Source.maxImageSize = size
	if c.Source.MaxPixels < 0 {
		return fmt.Errorf("source: max_pixels must not be negative")
	}

	if c.Store.Dir == "" {
		return fmt.Errorf("store: dir required")
	}
	if c.Store.JPEGQuality < 1 || c.Store.JPEGQuality > 100 {
		return fmt.Errorf("store: jpeg_quality %d not in [1, 100]", c.Store.JPEGQuality)
	}

	if c.Preview.MaxDimension < 0 {
		return fmt.Errorf("preview: max_dimension must not be negative")
	}
	timeout, err := time.ParseDuration(c.Preview.RenderTimeout)
	if err != nil {
		return fmt.Errorf("preview: invalid render_timeout: %w", err)
	}
	if timeout <= 0 {
		return fmt.Errorf("preview: render_timeout must be positive")
	}
	c.Preview.renderTimeout = timeout

	return nil
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv(EnvEngineModel); v != "" {
		c.Engine.Model = v
	}
	if v := os.Getenv(EnvStoreDir); v != "" {
		c.Store.Dir = v
	}
	if v := os.Getenv(EnvMetricsListen); v != "" {
		c.Metrics.Listen = v
	}
}

// String renders the effective settings for a startup log line.
func (c *Config) String() string {
	return "model=" + c.Engine.Model +
		" store=" + c.Store.Dir +
		" quality=" + strconv.Itoa(c.Store.JPEGQuality) +
		" max_image_size=" + units.HumanSize(float64(c.Source.maxImageSize))
}
