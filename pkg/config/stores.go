package config

import (
	"context"
	"fmt"

	"github.com/marmos91/dittobox/pkg/queue"
	queuebadger "github.com/marmos91/dittobox/pkg/queue/badger"
	queuememory "github.com/marmos91/dittobox/pkg/queue/memory"
	"github.com/marmos91/dittobox/pkg/store/content"
	contentfs "github.com/marmos91/dittobox/pkg/store/content/fs"
	contentmemory "github.com/marmos91/dittobox/pkg/store/content/memory"
	contents3 "github.com/marmos91/dittobox/pkg/store/content/s3"
	"github.com/marmos91/dittobox/pkg/store/metadata"
	metadatabadger "github.com/marmos91/dittobox/pkg/store/metadata/badger"
	metadatamemory "github.com/marmos91/dittobox/pkg/store/metadata/memory"
	"github.com/marmos91/dittobox/pkg/store/session"
	sessionbadger "github.com/marmos91/dittobox/pkg/store/session/badger"
	sessionmemory "github.com/marmos91/dittobox/pkg/store/session/memory"
)

// BuildMetadataStore creates the metadata store the configuration selects.
func BuildMetadataStore(ctx context.Context, cfg MetadataConfig) (metadata.MetadataStore, error) {
	switch cfg.Type {
	case "memory":
		return metadatamemory.NewMemoryMetadataStore(), nil
	case "badger":
		store, err := metadatabadger.NewBadgerMetadataStoreFromMap(ctx, cfg.Badger)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger metadata store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown metadata store type: %q", cfg.Type)
	}
}

// BuildContentStore creates the content store the configuration selects.
func BuildContentStore(ctx context.Context, cfg ContentConfig) (content.WritableContentStore, error) {
	switch cfg.Type {
	case "memory":
		return contentmemory.NewMemoryContentStore(), nil
	case "filesystem":
		store, err := contentfs.NewFSContentStoreFromMap(ctx, cfg.Filesystem)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize filesystem content store: %w", err)
		}
		return store, nil
	case "s3":
		store, err := contents3.NewS3ContentStoreFromMap(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 content store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown content store type: %q", cfg.Type)
	}
}

// BuildSessionStore creates the session store the configuration selects.
func BuildSessionStore(ctx context.Context, cfg SessionsConfig) (session.SessionStore, error) {
	switch cfg.Type {
	case "memory":
		return sessionmemory.NewMemorySessionStore(), nil
	case "badger":
		store, err := sessionbadger.NewBadgerSessionStoreFromMap(ctx, cfg.Badger)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger session store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session store type: %q", cfg.Type)
	}
}

// BuildQueue creates the job queue the configuration selects.
func BuildQueue(ctx context.Context, cfg QueueConfig) (queue.Queue, error) {
	switch cfg.Type {
	case "memory":
		return queuememory.NewMemoryQueue(), nil
	case "badger":
		q, err := queuebadger.NewBadgerQueueFromMap(ctx, cfg.Badger)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger queue: %w", err)
		}
		return q, nil
	default:
		return nil, fmt.Errorf("unknown queue type: %q", cfg.Type)
	}
}
