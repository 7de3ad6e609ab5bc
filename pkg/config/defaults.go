package config

import (
	"strings"
	"time"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields.
//
// Zero values (0, "", false, nil) are replaced with defaults; explicit
// values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applySnapshotDefaults(&cfg.Snapshot)
	applyUsersDefaults(&cfg.Users)
	applyMetricsDefaults(&cfg.Metrics)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Port == 0 {
		cfg.Port = 7777
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = cfg.RateLimit
	}
}

func applySnapshotDefaults(cfg *SnapshotConfig) {
	if cfg.Type == "" {
		cfg.Type = "fs"
	}

	if cfg.FS == nil {
		cfg.FS = make(map[string]any)
	}
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}

	if _, ok := cfg.FS["path"]; !ok {
		cfg.FS["path"] = "/var/lib/bookmarkd"
	}
}

func applyUsersDefaults(cfg *UsersConfig) {
	if cfg.Type == "" {
		cfg.Type = "file"
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}
