// Package config loads swatch settings from defaults, a YAML file, .env and
// SWATCH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/swatch/internal/colour"
	"github.com/jmylchreest/swatch/internal/image"
	"github.com/jmylchreest/swatch/internal/seed"
	"github.com/jmylchreest/swatch/internal/server"
	"github.com/jmylchreest/swatch/internal/summary"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SWATCH_"

// EnvConfigPath names the variable holding the config file path.
const EnvConfigPath = EnvPrefix + "CONFIG"

// Config is the complete application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Palette PaletteConfig `yaml:"palette"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	Workers         int           `yaml:"workers"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// PaletteConfig configures the extraction pipeline.
type PaletteConfig struct {
	DefaultK       int           `yaml:"default_k"`
	DefaultMaxSide int           `yaml:"default_max_side"`
	MaxPixels      int           `yaml:"max_pixels"`
	SampleCap      int           `yaml:"sample_cap"`
	MaxIterations  int           `yaml:"max_iterations"`
	Restarts       int           `yaml:"restarts"`
	ClusterTimeout time.Duration `yaml:"cluster_timeout"`
	Seed           seed.Config   `yaml:"seed"`
}

// LogConfig configures the root logger.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	srv := server.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Addr:            srv.Addr,
			AllowedOrigins:  srv.AllowedOrigins,
			MaxUploadBytes:  srv.MaxUploadBytes,
			Workers:         srv.Workers,
			ReadTimeout:     srv.ReadTimeout,
			WriteTimeout:    srv.WriteTimeout,
			ShutdownTimeout: srv.ShutdownTimeout,
		},
		Palette: PaletteConfig{
			DefaultK:       summary.DefaultK,
			DefaultMaxSide: summary.DefaultMaxSide,
			MaxPixels:      image.DefaultMaxPixels,
			SampleCap:      colour.DefaultSampleCap,
			MaxIterations:  colour.DefaultMaxIterations,
			Restarts:       colour.DefaultRestarts,
			Seed:           seed.DefaultConfig(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration. The file at path (or $SWATCH_CONFIG when path
// is empty) is optional; values from .env never replace variables already set
// in the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadDotEnv loads path into the environment if it exists.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// applyEnv overrides fields from SWATCH_* variables.
func (c *Config) applyEnv() error {
	var errs []error
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	str("ADDR", &c.Server.Addr)
	if v, ok := os.LookupEnv(EnvPrefix + "ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = parseList(v)
	}
	if v, ok := os.LookupEnv(EnvPrefix + "MAX_UPLOAD_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMAX_UPLOAD_BYTES: %w", EnvPrefix, err))
		} else {
			c.Server.MaxUploadBytes = n
		}
	}
	integer("WORKERS", &c.Server.Workers)
	duration("READ_TIMEOUT", &c.Server.ReadTimeout)
	duration("WRITE_TIMEOUT", &c.Server.WriteTimeout)
	duration("SHUTDOWN_TIMEOUT", &c.Server.ShutdownTimeout)

	integer("DEFAULT_K", &c.Palette.DefaultK)
	integer("DEFAULT_MAX_SIDE", &c.Palette.DefaultMaxSide)
	integer("MAX_PIXELS", &c.Palette.MaxPixels)
	integer("SAMPLE_CAP", &c.Palette.SampleCap)
	integer("MAX_ITERATIONS", &c.Palette.MaxIterations)
	integer("RESTARTS", &c.Palette.Restarts)
	duration("CLUSTER_TIMEOUT", &c.Palette.ClusterTimeout)
	if v, ok := os.LookupEnv(EnvPrefix + "SEED_MODE"); ok {
		c.Palette.Seed.Mode = seed.Mode(v)
	}
	if v, ok := os.LookupEnv(EnvPrefix + "SEED"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSEED: %w", EnvPrefix, err))
		} else {
			c.Palette.Seed.Value = n
		}
	}

	str("LOG_LEVEL", &c.Log.Level)
	if v, ok := os.LookupEnv(EnvPrefix + "LOG_JSON"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sLOG_JSON: %w", EnvPrefix, err))
		} else {
			c.Log.JSON = b
		}
	}

	return errors.Join(errs...)
}

// parseList splits a comma-separated list, dropping empty items.
func parseList(s string) []string {
	var out []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}
	if c.Server.Workers < 1 {
		return fmt.Errorf("server.workers must be at least 1")
	}
	if c.Palette.DefaultK < server.MinK || c.Palette.DefaultK > server.MaxK {
		return fmt.Errorf("palette.default_k must be between %d and %d", server.MinK, server.MaxK)
	}
	if c.Palette.DefaultMaxSide < server.MinMaxSide || c.Palette.DefaultMaxSide > server.MaxMaxSide {
		return fmt.Errorf("palette.default_max_side must be between %d and %d", server.MinMaxSide, server.MaxMaxSide)
	}
	if c.Palette.MaxPixels < 0 {
		return fmt.Errorf("palette.max_pixels must not be negative")
	}
	if c.Palette.SampleCap < 0 {
		return fmt.Errorf("palette.sample_cap must not be negative")
	}
	if c.Palette.MaxIterations < 1 {
		return fmt.Errorf("palette.max_iterations must be at least 1")
	}
	if c.Palette.Restarts < 1 {
		return fmt.Errorf("palette.restarts must be at least 1")
	}
	if c.Palette.ClusterTimeout < 0 {
		return fmt.Errorf("palette.cluster_timeout must not be negative")
	}
	if mode := c.Palette.Seed.Mode; mode != "" {
		if _, err := seed.ParseMode(string(mode)); err != nil {
			return fmt.Errorf("palette.seed.mode: %w", err)
		}
	}
	if hclog.LevelFromString(c.Log.Level) == hclog.NoLevel {
		return fmt.Errorf("log.level %q is not a valid level", c.Log.Level)
	}
	return nil
}

// ApplyFlags overrides settings with flags the user set explicitly. Flags not
// defined on fs are ignored.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var errs []error
	fs.Visit(func(f *pflag.Flag) {
		var err error
		switch f.Name {
		case "addr":
			c.Server.Addr = f.Value.String()
		case "workers":
			c.Server.Workers, err = fs.GetInt(f.Name)
		case "allowed-origins":
			c.Server.AllowedOrigins, err = fs.GetStringSlice(f.Name)
		case "log-level":
			c.Log.Level = f.Value.String()
		case "log-json":
			c.Log.JSON, err = fs.GetBool(f.Name)
		case "seed-mode":
			c.Palette.Seed.Mode = seed.Mode(f.Value.String())
		case "seed":
			c.Palette.Seed.Value, err = fs.GetInt64(f.Name)
		case "sample-cap":
			c.Palette.SampleCap, err = fs.GetInt(f.Name)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("--%s: %w", f.Name, err))
		}
	})
	if err := errors.Join(errs...); err != nil {
		return err
	}
	return c.Validate()
}

// ServerConfig returns the settings for server.New.
func (c *Config) ServerConfig() server.Config {
	return server.Config{
		Addr:            c.Server.Addr,
		AllowedOrigins:  c.Server.AllowedOrigins,
		MaxUploadBytes:  c.Server.MaxUploadBytes,
		Workers:         c.Server.Workers,
		ReadTimeout:     c.Server.ReadTimeout,
		WriteTimeout:    c.Server.WriteTimeout,
		ShutdownTimeout: c.Server.ShutdownTimeout,
		DefaultK:        c.Palette.DefaultK,
		DefaultMaxSide:  c.Palette.DefaultMaxSide,
	}
}

// SummaryConfig returns the settings for summary.New.
func (c *Config) SummaryConfig() summary.Config {
	return summary.Config{
		MaxPixels:      c.Palette.MaxPixels,
		SampleCap:      c.Palette.SampleCap,
		MaxIterations:  c.Palette.MaxIterations,
		Restarts:       c.Palette.Restarts,
		ClusterTimeout: c.Palette.ClusterTimeout,
		Seed:           c.Palette.Seed,
	}
}

// NewLogger builds the root logger described by the log settings.
func (c *Config) NewLogger(w io.Writer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       "swatch",
		Level:      hclog.LevelFromString(c.Log.Level),
		JSONFormat: c.Log.JSON,
		Output:     w,
	})
}
