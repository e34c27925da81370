// Package config loads, defaults, and validates the DittoBox
// configuration, and builds the store backends it describes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete DittoBox configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (DITTOBOX_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// Store Configuration Pattern:
// Each backend section carries a Type field plus one map per supported
// implementation. Only the map matching the selected type is decoded; the
// store packages own their own configuration shapes.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Server contains HTTP server settings
	Server ServerConfig `mapstructure:"server"`

	// Metadata specifies the metadata store type and type-specific configuration
	Metadata MetadataConfig `mapstructure:"metadata"`

	// Content specifies the content store type and type-specific configuration
	Content ContentConfig `mapstructure:"content"`

	// Sessions specifies the session store type and type-specific configuration
	Sessions SessionsConfig `mapstructure:"sessions"`

	// Queue specifies the thumbnail job queue type and type-specific configuration
	Queue QueueConfig `mapstructure:"queue"`

	// Worker configures the in-process thumbnail worker
	Worker WorkerConfig `mapstructure:"worker"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address (e.g., ":8080")
	Addr string `mapstructure:"addr" validate:"required"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`
}

// MetadataConfig specifies metadata store configuration.
type MetadataConfig struct {
	// Type specifies which metadata store implementation to use
	// Valid values: memory, badger
	Type string `mapstructure:"type" validate:"required,oneof=memory badger"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger"`
}

// ContentConfig specifies content store configuration.
type ContentConfig struct {
	// Type specifies which content store implementation to use
	// Valid values: filesystem, memory, s3
	Type string `mapstructure:"type" validate:"required,oneof=filesystem memory s3"`

	// Filesystem contains filesystem-specific configuration
	// Only used when Type = "filesystem"
	Filesystem map[string]any `mapstructure:"filesystem"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3"`
}

// SessionsConfig specifies session store configuration.
type SessionsConfig struct {
	// Type specifies which session store implementation to use
	// Valid values: memory, badger
	Type string `mapstructure:"type" validate:"required,oneof=memory badger"`

	// TTL is the lifetime of a session opened by login
	TTL time.Duration `mapstructure:"ttl" validate:"required,gt=0"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger"`
}

// QueueConfig specifies thumbnail job queue configuration.
type QueueConfig struct {
	// Type specifies which queue implementation to use
	// Valid values: memory, badger
	Type string `mapstructure:"type" validate:"required,oneof=memory badger"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger"`
}

// WorkerConfig configures the in-process thumbnail worker.
type WorkerConfig struct {
	// Enabled runs the thumbnail worker inside the server process.
	// Disable when running dedicated worker processes against a shared
	// durable queue.
	Enabled bool `mapstructure:"enabled"`

	// Concurrency is the number of concurrent thumbnail consumers
	Concurrency int `mapstructure:"concurrency" validate:"gte=0"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
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

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the DITTOBOX_ prefix with underscores.
	// Example: DITTOBOX_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("DITTOBOX")
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

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is acceptable; defaults apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dittobox")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "dittobox")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
