// Package config loads liveform settings from defaults, an optional YAML
// file, an optional .env file and LIVEFORM_* environment variables, in
// that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kdsmith18542/liveform/form"
	"github.com/kdsmith18542/liveform/observability"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "LIVEFORM_"

// Config is the complete liveform configuration.
type Config struct {
	// Locale selects the message catalogue. Empty means detect it from
	// LC_ALL, LC_MESSAGES and LANG.
	Locale string `yaml:"locale" env:"LIVEFORM_LOCALE"`
	// LocalesDir, when set, overlays catalogues from disk on the embedded ones.
	LocalesDir string `yaml:"locales_dir" env:"LIVEFORM_LOCALES_DIR"`
	// WatchLocales reloads LocalesDir catalogues when they change.
	WatchLocales bool `yaml:"watch_locales" env:"LIVEFORM_WATCH_LOCALES"`
	// SubmitDelay is how long the simulated product save takes.
	SubmitDelay time.Duration `yaml:"submit_delay" env:"LIVEFORM_SUBMIT_DELAY"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"LIVEFORM_LOG_LEVEL"`
	// Sanitize maps field names to sanitizer chains such as "trim,strip_html".
	Sanitize map[string]string `yaml:"sanitize"`

	Observability observability.Config `yaml:"observability"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Locale:      "",
		SubmitDelay: time.Second,
		LogLevel:    "info",
		Sanitize: map[string]string{
			"username":    "trim",
			"email":       "trim,to_lower",
			"name":        "trim,normalize_whitespace",
			"description": "strip_html",
		},
		Observability: observability.Config{
			ServiceName:    "liveform",
			ServiceVersion: "dev",
			Environment:    "development",
		},
	}
}

// Load builds the configuration. Either path may be empty; a missing .env
// file is ignored, a missing YAML file is an error.
func Load(configFile, envFile string) (*Config, error) {
	cfg := DefaultConfig()

	if configFile != "" {
		if err := loadFromFile(cfg, configFile); err != nil {
			return nil, err
		}
	}

	// Load environment file if specified
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	if err := loadFromEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func loadFromEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return v, ok && v != ""
	}

	if v, ok := get("LOCALE"); ok {
		cfg.Locale = v
	}
	if v, ok := get("LOCALES_DIR"); ok {
		cfg.LocalesDir = v
	}
	if v, ok := get("WATCH_LOCALES"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sWATCH_LOCALES: %w", EnvPrefix, err)
		}
		cfg.WatchLocales = b
	}
	if v, ok := get("SUBMIT_DELAY"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sSUBMIT_DELAY: %w", EnvPrefix, err)
		}
		cfg.SubmitDelay = d
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := get("SERVICE_NAME"); ok {
		cfg.Observability.ServiceName = v
	}
	if v, ok := get("ENVIRONMENT"); ok {
		cfg.Observability.Environment = v
	}
	for name, dst := range map[string]*bool{
		"ENABLE_TRACING": &cfg.Observability.EnableTracing,
		"ENABLE_METRICS": &cfg.Observability.EnableMetrics,
		"ENABLE_LOGGING": &cfg.Observability.EnableLogging,
	} {
		if v, ok := get(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = b
		}
	}
	return nil
}

// Validate checks the configuration for values liveform cannot run with.
func (c *Config) Validate() error {
	if c.SubmitDelay < 0 {
		return fmt.Errorf("submit_delay must not be negative")
	}
	validLogLevels := []string{"debug", "info", "warn", "error"}
	valid := false
	for _, level := range validLogLevels {
		if c.LogLevel == level {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}
	if c.WatchLocales && c.LocalesDir == "" {
		return fmt.Errorf("watch_locales requires locales_dir")
	}
	for field, chain := range c.Sanitize {
		for _, name := range strings.Split(chain, ",") {
			name = strings.TrimSpace(name)
			if name != "" && !form.HasSanitizer(name) {
				return fmt.Errorf("sanitize.%s: unknown sanitizer %q", field, name)
			}
		}
	}
	return nil
}
