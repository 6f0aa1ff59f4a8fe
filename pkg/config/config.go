// Package config provides configuration for the recipe converter.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then environment variables with the RECIPECONV_ prefix. Later layers win.
//
// Example Usage:
//
//	cfg, err := config.Load("recipeconv.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("Configuration error: %v", err)
//	}
//
// Environment Variables:
//
//	Tables:
//	- RECIPECONV_UNIT_TABLE="./unit_to_unit.csv"
//	- RECIPECONV_DENSITY_TABLE="./gram-conversions.csv"
//
//	Conversion:
//	- RECIPECONV_MULTIPLIER=1
//	- RECIPECONV_USE_UNIT_GRAPH=true
//	- RECIPECONV_CHECK_CONSISTENCY=false
//	- RECIPECONV_CONSISTENCY_TOLERANCE=0.0001
//	- RECIPECONV_WORKERS=4
//
//	Cache:
//	- RECIPECONV_CACHE_ENABLED=true
//	- RECIPECONV_CACHE_BACKEND=memory|badger
//	- RECIPECONV_CACHE_SIZE=1000
//	- RECIPECONV_CACHE_TTL=1h
//	- RECIPECONV_CACHE_DIR="./data/rates"
//
//	Server:
//	- RECIPECONV_ADDRESS=127.0.0.1
//	- RECIPECONV_PORT=8080
//	- RECIPECONV_RATE_LIMIT=0
//	- RECIPECONV_RATE_BURST=20
//
//	Logging:
//	- RECIPECONV_LOG_LEVEL=info
//	- RECIPECONV_LOG_FORMAT=text|json
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable the package reads.
const EnvPrefix = "RECIPECONV_"

// Cache backends.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all converter configuration.
type Config struct {
	Tables     TablesConfig     `yaml:"tables"`
	Conversion ConversionConfig `yaml:"conversion"`
	Cache      CacheConfig      `yaml:"cache"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// TablesConfig points at the CSV tables. Empty paths select the tables
// embedded in the binary.
type TablesConfig struct {
	UnitRatioPath string `yaml:"unit_ratio_path"`
	DensityPath   string `yaml:"density_path"`
}

// ConversionConfig controls line conversion.
type ConversionConfig struct {
	// DefaultMultiplier scales every amount when the caller gives none.
	DefaultMultiplier float64 `yaml:"default_multiplier"`
	// UseUnitGraph fills a missing density cell by resolving the line's
	// unit into a column that has a factor.
	UseUnitGraph bool `yaml:"use_unit_graph"`
	// CheckConsistency rejects unit tables whose cycles disagree.
	CheckConsistency     bool    `yaml:"check_consistency"`
	ConsistencyTolerance float64 `yaml:"consistency_tolerance"`
	// Workers bounds concurrent recipe conversion in batch mode.
	Workers int `yaml:"workers"`
}

// CacheConfig controls the resolved-rate cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Backend string        `yaml:"backend"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
	// Dir is the badger directory. Empty runs badger in memory.
	Dir string `yaml:"dir"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
	// RateLimit is requests per second for the API. Zero means unlimited.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Conversion: ConversionConfig{
			DefaultMultiplier:    1,
			UseUnitGraph:         true,
			ConsistencyTolerance: 1e-4,
			Workers:              runtime.NumCPU(),
		},
		Cache: CacheConfig{
			Enabled: true,
			Backend: BackendMemory,
			Size:    1000,
			TTL:     time.Hour,
		},
		Server: ServerConfig{
			Address:   "127.0.0.1",
			Port:      8080,
			RateBurst: 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFile reads a YAML file over the defaults. Keys missing from the file
// keep their default values.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Load builds the configuration from defaults, the file at path (skipped
// when path is empty) and the environment, in that order.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides fields with RECIPECONV_* environment variables.
// Unset or unparsable variables leave the current value alone.
func (c *Config) ApplyEnv() {
	c.Tables.UnitRatioPath = getEnv("UNIT_TABLE", c.Tables.UnitRatioPath)
	c.Tables.DensityPath = getEnv("DENSITY_TABLE", c.Tables.DensityPath)

	c.Conversion.DefaultMultiplier = getEnvFloat("MULTIPLIER", c.Conversion.DefaultMultiplier)
	c.Conversion.UseUnitGraph = getEnvBool("USE_UNIT_GRAPH", c.Conversion.UseUnitGraph)
	c.Conversion.CheckConsistency = getEnvBool("CHECK_CONSISTENCY", c.Conversion.CheckConsistency)
	c.Conversion.ConsistencyTolerance = getEnvFloat("CONSISTENCY_TOLERANCE", c.Conversion.ConsistencyTolerance)
	c.Conversion.Workers = getEnvInt("WORKERS", c.Conversion.Workers)

	c.Cache.Enabled = getEnvBool("CACHE_ENABLED", c.Cache.Enabled)
	c.Cache.Backend = getEnv("CACHE_BACKEND", c.Cache.Backend)
	c.Cache.Size = getEnvInt("CACHE_SIZE", c.Cache.Size)
	c.Cache.TTL = getEnvDuration("CACHE_TTL", c.Cache.TTL)
	c.Cache.Dir = getEnv("CACHE_DIR", c.Cache.Dir)

	c.Server.Address = getEnv("ADDRESS", c.Server.Address)
	c.Server.Port = getEnvInt("PORT", c.Server.Port)
	c.Server.RateLimit = getEnvFloat("RATE_LIMIT", c.Server.RateLimit)
	c.Server.RateBurst = getEnvInt("RATE_BURST", c.Server.RateBurst)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)
}

// Validate checks the configuration for invalid values.
//
// Returns nil if configuration is valid, or an error wrapping
// ErrInvalidConfig describing the first problem found.
func (c *Config) Validate() error {
	if c.Conversion.DefaultMultiplier <= 0 {
		return fmt.Errorf("%w: multiplier must be positive, got %g", ErrInvalidConfig, c.Conversion.DefaultMultiplier)
	}
	if c.Conversion.ConsistencyTolerance < 0 {
		return fmt.Errorf("%w: negative consistency tolerance %g", ErrInvalidConfig, c.Conversion.ConsistencyTolerance)
	}
	if c.Conversion.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Conversion.Workers)
	}

	if c.Cache.Enabled {
		switch c.Cache.Backend {
		case BackendMemory, BackendBadger:
		default:
			return fmt.Errorf("%w: unknown cache backend %q", ErrInvalidConfig, c.Cache.Backend)
		}
		if c.Cache.Size <= 0 {
			return fmt.Errorf("%w: cache size must be positive, got %d", ErrInvalidConfig, c.Cache.Size)
		}
		if c.Cache.TTL < 0 {
			return fmt.Errorf("%w: negative cache ttl %s", ErrInvalidConfig, c.Cache.TTL)
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid port: %d", ErrInvalidConfig, c.Server.Port)
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		return fmt.Errorf("%w: negative rate limit", ErrInvalidConfig)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}

// String returns a one-line summary suitable for logging.
func (c *Config) String() string {
	tables := func(p string) string {
		if p == "" {
			return "embedded"
		}
		return p
	}
	cache := "off"
	if c.Cache.Enabled {
		cache = c.Cache.Backend
	}
	return fmt.Sprintf(
		"Config{Units: %s, Densities: %s, Multiplier: %g, UnitGraph: %v, Cache: %s, HTTP: %s:%d}",
		tables(c.Tables.UnitRatioPath), tables(c.Tables.DensityPath),
		c.Conversion.DefaultMultiplier, c.Conversion.UseUnitGraph,
		cache, c.Server.Address, c.Server.Port,
	)
}

// WriteDefault writes the default configuration to path as commented YAML.
// It refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	header := "# recipeconv configuration\n" +
		"# Empty table paths use the built-in tables.\n" +
		"# Every key can be overridden with a " + EnvPrefix + "* environment variable.\n\n"
	return os.WriteFile(path, append([]byte(header), data...), 0644)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		// Try parsing as seconds
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}
