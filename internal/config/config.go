// Package config reads runtime settings from the environment, after loading a
// .env file from the working directory when one exists.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvLogLevel = "PHANTOM_QA_LOG_LEVEL"
	EnvDB       = "PHANTOM_QA_DB"
	EnvProfiles = "PHANTOM_QA_PROFILES"
	EnvWorkers  = "PHANTOM_QA_WORKERS"
)

type Config struct {
	// LogLevel is "debug" or empty.
	LogLevel string

	// DBPath is the SQLite history database. Empty disables history.
	DBPath string

	// ProfilesPath is an optional JSON file of extra or replacement profiles.
	ProfilesPath string

	// Workers is the number of goroutines used for circle voting.
	Workers int
}

// Debug reports whether debug logging is enabled.
func (c *Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}

// HistoryEnabled reports whether runs should be persisted.
func (c *Config) HistoryEnabled() bool {
	return c.DBPath != ""
}

// Load reads configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads configuration from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel:     strings.TrimSpace(os.Getenv(EnvLogLevel)),
		DBPath:       strings.TrimSpace(os.Getenv(EnvDB)),
		ProfilesPath: strings.TrimSpace(os.Getenv(EnvProfiles)),
		Workers:      1,
	}

	if v := strings.TrimSpace(os.Getenv(EnvWorkers)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvWorkers, v, err)
		}
		if n < 1 {
			return nil, fmt.Errorf("%s must be at least 1, got %d", EnvWorkers, n)
		}
		cfg.Workers = n
	}

	return cfg, nil
}
