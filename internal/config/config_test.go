package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-tune/internal/imaging"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image-tune.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvConfigPath, EnvLogLevel, EnvLogFormat, EnvEngineModel, EnvStoreDir, EnvMetricsListen} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, imaging.ModelLuma, cfg.Engine.ColorModel())
	assert.Equal(t, int64(64_000_000), cfg.Source.MaxImageSizeBytes())
	assert.True(t, cfg.Source.AutoOrient)
	assert.Equal(t, 60, cfg.Store.JPEGQuality)
	assert.Equal(t, 30*time.Second, cfg.Preview.RenderTimeoutDuration())
	assert.Empty(t, cfg.Metrics.Listen)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[log]
level = "debug"
format = "json"

[engine]
model = "hcl"

[source]
max_image_size = "2MB"
max_pixels = 1000
auto_orient = false

[store]
dir = "/tmp/out"
jpeg_quality = 85

[preview]
max_dimension = 256
render_timeout = "5s"

[metrics]
listen = "127.0.0.1:9100"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, imaging.ModelHCL, cfg.Engine.ColorModel())
	assert.Equal(t, int64(2_000_000), cfg.Source.MaxImageSizeBytes())
	assert.Equal(t, 1000, cfg.Source.MaxPixels)
	assert.False(t, cfg.Source.AutoOrient)
	assert.Equal(t, "/tmp/out", cfg.Store.Dir)
	assert.Equal(t, 85, cfg.Store.JPEGQuality)
	assert.Equal(t, 256, cfg.Preview.MaxDimension)
	assert.Equal(t, 5*time.Second, cfg.Preview.RenderTimeoutDuration())
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Listen)
}

func TestLoad_PathFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvConfigPath, writeConfig(t, "[store]\njpeg_quality = 90\n"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Store.JPEGQuality)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "[engine]\nmodel = \"luma\"\n[store]\ndir = \"from-file\"\n")
	t.Setenv(EnvEngineModel, "hcl")
	t.Setenv(EnvStoreDir, "from-env")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvMetricsListen, ":9200")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, imaging.ModelHCL, cfg.Engine.ColorModel())
	assert.Equal(t, "from-env", cfg.Store.Dir)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, ":9200", cfg.Metrics.Listen)
}

func TestLoad_UnknownKeys(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "[store]\nquality = 5\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.quality")
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestFinalize_ValidationErrors(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad level", func(c *Config) { c.Log.Level = "chatty" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"bad model", func(c *Config) { c.Engine.Model = "hsv" }},
		{"bad size", func(c *Config) { c.Source.MaxImageSize = "lots" }},
		{"negative pixels", func(c *Config) { c.Source.MaxPixels = -1 }},
		{"empty dir", func(c *Config) { c.Store.Dir = "" }},
		{"quality zero", func(c *Config) { c.Store.JPEGQuality = 0 }},
		{"quality high", func(c *Config) { c.Store.JPEGQuality = 101 }},
		{"negative dimension", func(c *Config) { c.Preview.MaxDimension = -5 }},
		{"bad timeout", func(c *Config) { c.Preview.RenderTimeout = "soon" }},
		{"zero timeout", func(c *Config) { c.Preview.RenderTimeout = "0s" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Finalize())
		})
	}
}

func TestConfig_String(t *testing.T) {
	clearEnv(t)
	cfg := Default()
	require.NoError(t, cfg.Finalize())
	assert.Contains(t, cfg.String(), "model=luma")
	assert.Contains(t, cfg.String(), "max_image_size=64MB")
}
