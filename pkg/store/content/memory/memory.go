// Package memory implements an in-memory content store for testing and
// ephemeral deployments.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/marmos91/dittobox/pkg/store/content"
	"github.com/marmos91/dittobox/pkg/store/metadata"
)

// MemoryContentStore implements WritableContentStore using an in-memory map.
//
// All content is lost on restart. Blobs are copied on write and served from
// immutable snapshots, so readers are unaffected by later overwrites.
type MemoryContentStore struct {
	blobs map[metadata.ContentID][]byte
	mu    sync.RWMutex
}

// NewMemoryContentStore creates an empty in-memory content store.
func NewMemoryContentStore() *MemoryContentStore {
	return &MemoryContentStore{
		blobs: make(map[metadata.ContentID][]byte),
	}
}

// ReadContent returns a reader over a snapshot of the blob.
func (s *MemoryContentStore) ReadContent(ctx context.Context, id metadata.ContentID) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	blob, ok := s.blobs[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}

	return io.NopCloser(bytes.NewReader(blob)), nil
}

// GetContentSize returns the size of the content in bytes.
func (s *MemoryContentStore) GetContentSize(ctx context.Context, id metadata.ContentID) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	blob, ok := s.blobs[id]
	s.mu.RUnlock()

	if !ok {
		return 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}

	return uint64(len(blob)), nil
}

// ContentExists checks whether content with the given ID exists.
func (s *MemoryContentStore) ContentExists(ctx context.Context, id metadata.ContentID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	_, ok := s.blobs[id]
	s.mu.RUnlock()

	return ok, nil
}

// WriteContent stores the bytes read from data under the given ID.
//
// The map entry is swapped in one step after the full read, so a concurrent
// reader sees either the old blob or the new one.
func (s *MemoryContentStore) WriteContent(ctx context.Context, id metadata.ContentID, data io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	blob, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("%w: failed to read content: %w", content.ErrUnavailable, err)
	}

	s.mu.Lock()
	s.blobs[id] = blob
	s.mu.Unlock()

	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryContentStore) Close() error {
	return nil
}
