// Package config loads run settings from defaults, a YAML file, .env files,
// LATEDAYS_* environment variables and command-line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/naka-gawa/latedays/internal/deadline"
	"github.com/naka-gawa/latedays/internal/report"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment override, e.g. LATEDAYS_CONCURRENCY.
const EnvPrefix = "LATEDAYS"

// Config holds all configuration settings
type Config struct {
	// API selects the gateway backend: "rest" or "graphql".
	API string `mapstructure:"api"`
	// BaseURL is a GitHub Enterprise Server URL. Empty means github.com.
	BaseURL string `mapstructure:"base_url"`
	// Timezone is the IANA zone due dates are read in. "Local" uses the host zone.
	Timezone string `mapstructure:"timezone"`
	// Branch pins the branch read for every repository. Empty means the default branch.
	Branch string `mapstructure:"branch"`

	Concurrency       int           `mapstructure:"concurrency"`
	MaxRetries        int           `mapstructure:"max_retries"`
	InitialBackoff    time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff        time.Duration `mapstructure:"max_backoff"`
	AttemptTimeout    time.Duration `mapstructure:"attempt_timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	MaxRateLimitSleep time.Duration `mapstructure:"max_rate_limit_sleep"`

	// Output is the CSV path. Empty means {group}-{designation}-latedays.csv, "-" means stdout.
	Output       string `mapstructure:"output"`
	MissingValue string `mapstructure:"missing_value"`
	OmitMissing  bool   `mapstructure:"omit_missing"`
	ExpandGroups bool   `mapstructure:"expand_groups"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		API:               "rest",
		Timezone:          deadline.DefaultZone,
		Concurrency:       3,
		MaxRetries:        3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		AttemptTimeout:    30 * time.Second,
		RequestsPerSecond: 10,
		MaxRateLimitSleep: time.Minute,
		MissingValue:      report.DefaultMissingValue,
	}
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"api":             "api",
	"base-url":        "base_url",
	"timezone":        "timezone",
	"branch":          "branch",
	"concurrency":     "concurrency",
	"max-retries":     "max_retries",
	"attempt-timeout": "attempt_timeout",
	"output":          "output",
	"missing-value":   "missing_value",
	"omit-missing":    "omit_missing",
	"expand-groups":   "expand_groups",
}

// Load builds the configuration. path may be empty, in which case .latedays.yaml
// is looked up in the working directory and the home directory. A missing file is not an error.
// Only flags the user actually set override lower layers.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("api", cfg.API)
	v.SetDefault("base_url", cfg.BaseURL)
	v.SetDefault("timezone", cfg.Timezone)
	v.SetDefault("branch", cfg.Branch)
	v.SetDefault("concurrency", cfg.Concurrency)
	v.SetDefault("max_retries", cfg.MaxRetries)
	v.SetDefault("initial_backoff", cfg.InitialBackoff)
	v.SetDefault("max_backoff", cfg.MaxBackoff)
	v.SetDefault("attempt_timeout", cfg.AttemptTimeout)
	v.SetDefault("requests_per_second", cfg.RequestsPerSecond)
	v.SetDefault("max_rate_limit_sleep", cfg.MaxRateLimitSleep)
	v.SetDefault("output", cfg.Output)
	v.SetDefault("missing_value", cfg.MissingValue)
	v.SetDefault("omit_missing", cfg.OmitMissing)
	v.SetDefault("expand_groups", cfg.ExpandGroups)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".latedays")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence. Variables already set win.
func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}
}

// Validate checks ranges and that the time zone exists.
func (c *Config) Validate() error {
	var errs []error
	if c.API != "rest" && c.API != "graphql" {
		errs = append(errs, fmt.Errorf("api must be rest or graphql, got %q", c.API))
	}
	if c.Concurrency < 1 || c.Concurrency > 16 {
		errs = append(errs, fmt.Errorf("concurrency must be between 1 and 16, got %d", c.Concurrency))
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		errs = append(errs, fmt.Errorf("max_retries must be between 0 and 10, got %d", c.MaxRetries))
	}
	if c.AttemptTimeout <= 0 {
		errs = append(errs, fmt.Errorf("attempt_timeout must be positive, got %s", c.AttemptTimeout))
	}
	if c.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("requests_per_second must not be negative, got %v", c.RequestsPerSecond))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return nil, errors.New("timezone must not be empty")
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
