package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1.0, cfg.Conversion.DefaultMultiplier)
	assert.True(t, cfg.Conversion.UseUnitGraph)
	assert.False(t, cfg.Conversion.CheckConsistency)
	assert.Positive(t, cfg.Conversion.Workers)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, BackendMemory, cfg.Cache.Backend)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Tables.UnitRatioPath)
	require.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipeconv.yaml")
	content := `
tables:
  density_path: /srv/densities.csv
conversion:
  default_multiplier: 2.5
  use_unit_graph: false
cache:
  backend: badger
  ttl: 30m
  dir: /var/lib/recipeconv
logging:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/densities.csv", cfg.Tables.DensityPath)
	assert.Equal(t, 2.5, cfg.Conversion.DefaultMultiplier)
	assert.False(t, cfg.Conversion.UseUnitGraph)
	assert.Equal(t, BackendBadger, cfg.Cache.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "json", cfg.Logging.Format)

	// Untouched keys keep defaults
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 1000, cfg.Cache.Size)
	assert.True(t, cfg.Cache.Enabled)
}

func TestLoadFile_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "none.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("conversion: [1, 2"), 0644))
		_, err := LoadFile(path)
		assert.Error(t, err)
	})
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("RECIPECONV_MULTIPLIER", "3")
	t.Setenv("RECIPECONV_USE_UNIT_GRAPH", "off")
	t.Setenv("RECIPECONV_CHECK_CONSISTENCY", "yes")
	t.Setenv("RECIPECONV_CACHE_TTL", "90")
	t.Setenv("RECIPECONV_PORT", "9090")
	t.Setenv("RECIPECONV_RATE_LIMIT", "2.5")
	t.Setenv("RECIPECONV_WORKERS", "not-a-number")
	t.Setenv("RECIPECONV_UNIT_TABLE", "/tmp/units.csv")

	cfg := DefaultConfig()
	workers := cfg.Conversion.Workers
	cfg.ApplyEnv()

	assert.Equal(t, 3.0, cfg.Conversion.DefaultMultiplier)
	assert.False(t, cfg.Conversion.UseUnitGraph)
	assert.True(t, cfg.Conversion.CheckConsistency)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2.5, cfg.Server.RateLimit)
	assert.Equal(t, workers, cfg.Conversion.Workers, "unparsable value keeps current")
	assert.Equal(t, "/tmp/units.csv", cfg.Tables.UnitRatioPath)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipeconv.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7000\n  address: 0.0.0.0\n"), 0644))
	t.Setenv("RECIPECONV_PORT", "7001")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Address)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"zero multiplier", func(c *Config) { c.Conversion.DefaultMultiplier = 0 }, false},
		{"negative tolerance", func(c *Config) { c.Conversion.ConsistencyTolerance = -1 }, false},
		{"zero workers", func(c *Config) { c.Conversion.Workers = 0 }, false},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "redis" }, false},
		{"unknown backend with cache off", func(c *Config) {
			c.Cache.Enabled = false
			c.Cache.Backend = "redis"
		}, true},
		{"zero cache size", func(c *Config) { c.Cache.Size = 0 }, false},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, false},
		{"negative rate limit", func(c *Config) { c.Server.RateLimit = -1 }, false},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, false},
		{"json upper case", func(c *Config) { c.Logging.Format = "JSON" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestString(t *testing.T) {
	cfg := DefaultConfig()
	s := cfg.String()
	assert.Contains(t, s, "Units: embedded")
	assert.Contains(t, s, "Cache: memory")
	assert.Contains(t, s, "HTTP: 127.0.0.1:8080")

	cfg.Cache.Enabled = false
	assert.Contains(t, cfg.String(), "Cache: off")
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipeconv.yaml")
	require.NoError(t, WriteDefault(path))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Cache, cfg.Cache)
	assert.Equal(t, DefaultConfig().Server, cfg.Server)

	assert.Error(t, WriteDefault(path), "existing file is not overwritten")
}
