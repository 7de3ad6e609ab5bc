// Package config loads, defaults and validates the server
// configuration, and builds the configured store backends.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete bookmarkd configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (BOOKMARKD_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
//
// Store Configuration Pattern:
// Each store backend defines its own configuration type and factory
// function. The Config struct contains type-specific sections (e.g.
// snapshot.fs, snapshot.s3) and only the section matching the selected
// type is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Server contains the TCP front end settings
	Server ServerConfig `mapstructure:"server"`

	// Snapshot specifies where user and group snapshots are stored
	Snapshot SnapshotConfig `mapstructure:"snapshot"`

	// Users specifies the user registry backend
	Users UsersConfig `mapstructure:"users"`

	// Shorten configures the link shortening collaborator
	Shorten ShortenConfig `mapstructure:"shorten"`

	// Import configures the browser bookmark importer
	Import ImportConfig `mapstructure:"import"`

	// Metrics configures the Prometheus exposition endpoint
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// ServerConfig contains the TCP front end settings.
type ServerConfig struct {
	// Port is the TCP port clients connect to
	Port int `mapstructure:"port" validate:"required,gt=0,lte=65535"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`

	// ProbeTimeout bounds each URL health probe during cleanup
	ProbeTimeout time.Duration `mapstructure:"probe_timeout" validate:"required,gt=0"`

	// RateLimit throttles each connection to this many commands per
	// second. Zero disables limiting.
	RateLimit uint `mapstructure:"rate_limit"`

	// RateBurst is the burst allowance of the per-connection limiter.
	// Defaults to RateLimit when zero.
	RateBurst uint `mapstructure:"rate_burst"`
}

// SnapshotConfig specifies the snapshot blob store configuration.
//
// The Type field determines which backend holds the JSON snapshots of
// the user registry and the per-user bookmark groups.
type SnapshotConfig struct {
	// Type specifies which snapshot store backend to use
	// Valid values: fs, memory, s3
	Type string `mapstructure:"type" validate:"required,oneof=fs memory s3"`

	// FS contains filesystem-specific configuration
	// Only used when Type = "fs"
	FS map[string]any `mapstructure:"fs"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3"`
}

// UsersConfig specifies the user registry backend.
type UsersConfig struct {
	// Type specifies which user store implementation to use
	// Valid values: file, badger
	Type string `mapstructure:"type" validate:"required,oneof=file badger"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger"`
}

// ShortenConfig configures the Bitly collaborator.
type ShortenConfig struct {
	// APIKey authenticates against the Bitly API. When empty,
	// shortening requests are answered with an unavailability error;
	// everything else keeps working.
	APIKey string `mapstructure:"api_key"`
}

// ImportConfig configures the Chrome bookmark importer.
type ImportConfig struct {
	// BookmarksPath overrides the Chrome Bookmarks file location.
	// Empty selects the default path for the host OS.
	BookmarksPath string `mapstructure:"bookmarks_path"`
}

// MetricsConfig configures Prometheus metrics exposition.
type MetricsConfig struct {
	// Enabled turns the metrics registry and HTTP endpoint on
	Enabled bool `mapstructure:"enabled"`

	// Port is the HTTP port the /metrics endpoint listens on
	Port int `mapstructure:"port" validate:"gte=0,lte=65535"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns the loaded and validated configuration.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config
// file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the BOOKMARKD_ prefix and underscores
	// Example: BOOKMARKD_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("BOOKMARKD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists. A missing
// file is not an error: defaults apply.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to
// the current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "bookmarkd")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "bookmarkd")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
