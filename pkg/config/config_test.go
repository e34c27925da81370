package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marmos91/dittobox/pkg/store/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// writeConfigFile marshals the given document into a temp YAML file and
// returns its path.
func writeConfigFile(t *testing.T, doc map[string]any) string {
	t.Helper()

	data, err := yaml.Marshal(doc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	// No config file: everything comes from defaults.
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err, "explicit missing file should fail")

	cfg = GetDefaultConfig()
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "badger", cfg.Metadata.Type)
	assert.Equal(t, "filesystem", cfg.Content.Type)
	assert.Equal(t, "badger", cfg.Sessions.Type)
	assert.Equal(t, session.DefaultTTL, cfg.Sessions.TTL)
	assert.Equal(t, "badger", cfg.Queue.Type)
	assert.True(t, cfg.Worker.Enabled)
	assert.Greater(t, cfg.Worker.Concurrency, 0)
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfigFile(t, map[string]any{
		"logging": map[string]any{"level": "debug"},
		"server":  map[string]any{"addr": ":9090"},
		"metadata": map[string]any{
			"type":   "badger",
			"badger": map[string]any{"db_path": filepath.Join(t.TempDir(), "meta")},
		},
		"content": map[string]any{
			"type":       "filesystem",
			"filesystem": map[string]any{"path": t.TempDir()},
		},
		"sessions": map[string]any{"type": "memory"},
		"queue":    map[string]any{"type": "memory"},
		"worker":   map[string]any{"enabled": true, "concurrency": 2},
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level, "level is normalized to uppercase")
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Sessions.Type)
	assert.Equal(t, 2, cfg.Worker.Concurrency)

	// Unspecified fields still get defaults.
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr bool
	}{
		{
			name:    "Defaults",
			mutate:  func(cfg *Config) {},
			wantErr: false,
		},
		{
			name:    "UnknownLogLevel",
			mutate:  func(cfg *Config) { cfg.Logging.Level = "VERBOSE" },
			wantErr: true,
		},
		{
			name:    "UnknownMetadataType",
			mutate:  func(cfg *Config) { cfg.Metadata.Type = "postgres" },
			wantErr: true,
		},
		{
			name:    "NegativeWorkerConcurrency",
			mutate:  func(cfg *Config) { cfg.Worker.Concurrency = -1 },
			wantErr: true,
		},
		{
			name: "MemoryQueueWithoutWorker",
			mutate: func(cfg *Config) {
				cfg.Queue.Type = "memory"
				cfg.Worker.Enabled = false
			},
			wantErr: true,
		},
		{
			name: "SharedBadgerPath",
			mutate: func(cfg *Config) {
				cfg.Metadata.Badger["db_path"] = "/data/box"
				cfg.Sessions.Badger["db_path"] = "/data/box"
			},
			wantErr: true,
		},
		{
			name: "MissingBadgerPath",
			mutate: func(cfg *Config) {
				cfg.Queue.Badger["db_path"] = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuildStores_Memory(t *testing.T) {
	ctx := context.Background()

	metadataStore, err := BuildMetadataStore(ctx, MetadataConfig{Type: "memory"})
	require.NoError(t, err)
	require.NoError(t, metadataStore.Close())

	contentStore, err := BuildContentStore(ctx, ContentConfig{Type: "memory"})
	require.NoError(t, err)
	require.NoError(t, contentStore.Close())

	sessionStore, err := BuildSessionStore(ctx, SessionsConfig{Type: "memory"})
	require.NoError(t, err)
	require.NoError(t, sessionStore.Close())

	jobQueue, err := BuildQueue(ctx, QueueConfig{Type: "memory"})
	require.NoError(t, err)
	require.NoError(t, jobQueue.Close())
}

func TestBuildStores_Badger(t *testing.T) {
	ctx := context.Background()

	metadataStore, err := BuildMetadataStore(ctx, MetadataConfig{
		Type:   "badger",
		Badger: map[string]any{"db_path": filepath.Join(t.TempDir(), "meta")},
	})
	require.NoError(t, err)
	require.NoError(t, metadataStore.Close())

	sessionStore, err := BuildSessionStore(ctx, SessionsConfig{
		Type:   "badger",
		Badger: map[string]any{"db_path": filepath.Join(t.TempDir(), "sessions")},
	})
	require.NoError(t, err)
	require.NoError(t, sessionStore.Close())

	jobQueue, err := BuildQueue(ctx, QueueConfig{
		Type:   "badger",
		Badger: map[string]any{"db_path": filepath.Join(t.TempDir(), "queue")},
	})
	require.NoError(t, err)
	require.NoError(t, jobQueue.Close())
}

func TestBuildStores_UnknownTypes(t *testing.T) {
	ctx := context.Background()

	_, err := BuildMetadataStore(ctx, MetadataConfig{Type: "postgres"})
	assert.Error(t, err)

	_, err = BuildContentStore(ctx, ContentConfig{Type: "ftp"})
	assert.Error(t, err)

	_, err = BuildSessionStore(ctx, SessionsConfig{Type: "redis"})
	assert.Error(t, err)

	_, err = BuildQueue(ctx, QueueConfig{Type: "kafka"})
	assert.Error(t, err)
}
