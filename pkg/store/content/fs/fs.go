// Package fs implements a filesystem-backed content store.
package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/marmos91/dittobox/pkg/store/content"
	"github.com/marmos91/dittobox/pkg/store/metadata"
	"github.com/mitchellh/mapstructure"
)

// FSContentStore implements WritableContentStore using the local filesystem.
//
// Blobs are stored as flat files under a base directory, named by content
// ID. IDs are UUID-derived (optionally with a variant width suffix), so
// they are always filesystem-safe.
//
// Thread Safety:
// Reads are safe at the OS level. Writes go through a temp-file-and-rename
// sequence, so a reader never observes a partially written blob.
type FSContentStore struct {
	basePath string
}

// FSContentStoreConfig contains configuration for the filesystem backend.
type FSContentStoreConfig struct {
	// Path is the root directory for content files. Created if missing.
	Path string `mapstructure:"path"`
}

// NewFSContentStore creates a new filesystem-based content store.
//
// This initializes the store by creating the base directory if it doesn't
// exist (permissions 0755).
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - basePath: Root directory for storing content files
//
// Returns:
//   - *FSContentStore: Initialized store
//   - error: Error if directory creation fails or context is cancelled
func NewFSContentStore(ctx context.Context, basePath string) (*FSContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSContentStore{basePath: basePath}, nil
}

// NewFSContentStoreFromMap creates a store from an untyped configuration map.
func NewFSContentStoreFromMap(ctx context.Context, settings map[string]any) (*FSContentStore, error) {
	var config FSContentStoreConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, fmt.Errorf("invalid fs content store config: %w", err)
	}
	if config.Path == "" {
		return nil, fmt.Errorf("fs content store requires path")
	}
	return NewFSContentStore(ctx, config.Path)
}

// getFilePath returns the full path for a given content ID.
func (s *FSContentStore) getFilePath(id metadata.ContentID) string {
	return filepath.Join(s.basePath, string(id))
}

// ReadContent returns a reader for the content identified by id.
//
// The caller is responsible for closing the returned ReadCloser.
func (s *FSContentStore) ReadContent(ctx context.Context, id metadata.ContentID) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(s.getFilePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return nil, fmt.Errorf("%w: failed to open content: %w", content.ErrUnavailable, err)
	}

	return file, nil
}

// GetContentSize returns the size of the content in bytes via a stat call.
func (s *FSContentStore) GetContentSize(ctx context.Context, id metadata.ContentID) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	info, err := os.Stat(s.getFilePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return 0, fmt.Errorf("%w: failed to stat content: %w", content.ErrUnavailable, err)
	}

	return uint64(info.Size()), nil
}

// ContentExists checks whether content with the given ID exists.
func (s *FSContentStore) ContentExists(ctx context.Context, id metadata.ContentID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(s.getFilePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: failed to stat content: %w", content.ErrUnavailable, err)
	}

	return true, nil
}

// WriteContent stores the bytes read from data under the given ID.
//
// The write is atomic: data is streamed to a temp file in the same
// directory, synced, and renamed over the final path. Readers see either
// the previous blob or the complete new one.
func (s *FSContentStore) WriteContent(ctx context.Context, id metadata.ContentID, data io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Temp file in the base directory so the rename stays on one filesystem.
	tmp, err := os.CreateTemp(s.basePath, "."+string(id)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %w", content.ErrUnavailable, err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := io.Copy(tmp, data); err != nil {
		cleanup()
		return fmt.Errorf("%w: failed to write content: %w", content.ErrUnavailable, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("%w: failed to sync content: %w", content.ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to close temp file: %w", content.ErrUnavailable, err)
	}

	if err := os.Rename(tmpPath, s.getFilePath(id)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to finalize content: %w", content.ErrUnavailable, err)
	}

	return nil
}

// Close is a no-op for the filesystem store.
func (s *FSContentStore) Close() error {
	return nil
}
