package config

import (
	"strings"
	"time"

	"github.com/marmos91/dittobox/pkg/store/session"
	"github.com/marmos91/dittobox/pkg/thumbnail"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Store-specific defaults are handled by store implementations
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyMetadataDefaults(&cfg.Metadata)
	applyContentDefaults(&cfg.Content)
	applySessionsDefaults(&cfg.Sessions)
	applyQueueDefaults(&cfg.Queue)
	applyWorkerDefaults(&cfg.Worker)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize to uppercase for a consistent internal representation.
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyServerDefaults sets HTTP server defaults.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyMetadataDefaults sets metadata store defaults.
func applyMetadataDefaults(cfg *MetadataConfig) {
	if cfg.Type == "" {
		cfg.Type = "badger"
	}

	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if _, ok := cfg.Badger["db_path"]; !ok {
		cfg.Badger["db_path"] = "/var/lib/dittobox/metadata"
	}
}

// applyContentDefaults sets content store defaults.
func applyContentDefaults(cfg *ContentConfig) {
	if cfg.Type == "" {
		cfg.Type = "filesystem"
	}

	if cfg.Filesystem == nil {
		cfg.Filesystem = make(map[string]any)
	}
	if _, ok := cfg.Filesystem["path"]; !ok {
		cfg.Filesystem["path"] = "/var/lib/dittobox/content"
	}

	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}
}

// applySessionsDefaults sets session store defaults.
func applySessionsDefaults(cfg *SessionsConfig) {
	if cfg.Type == "" {
		cfg.Type = "badger"
	}
	if cfg.TTL == 0 {
		cfg.TTL = session.DefaultTTL
	}

	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if _, ok := cfg.Badger["db_path"]; !ok {
		cfg.Badger["db_path"] = "/var/lib/dittobox/sessions"
	}
}

// applyQueueDefaults sets job queue defaults.
func applyQueueDefaults(cfg *QueueConfig) {
	if cfg.Type == "" {
		cfg.Type = "badger"
	}

	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if _, ok := cfg.Badger["db_path"]; !ok {
		cfg.Badger["db_path"] = "/var/lib/dittobox/queue"
	}
}

// applyWorkerDefaults sets thumbnail worker defaults.
func applyWorkerDefaults(cfg *WorkerConfig) {
	if cfg.Concurrency == 0 {
		cfg.Concurrency = thumbnail.DefaultConcurrency
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Worker: WorkerConfig{Enabled: true},
	}
	ApplyDefaults(cfg)
	return cfg
}
