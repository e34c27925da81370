// Package content defines the content store interfaces for DittoBox.
//
// The content store holds opaque byte blobs addressed by ContentID. It knows
// nothing about users, files, or access control: the metadata store owns the
// record that maps a file to its blob, and the service layer decides who may
// read it. Keeping the two stores independent lets deployments mix backends
// freely (BadgerDB metadata with S3 content, for example).
package content

import (
	"context"
	"io"

	"github.com/marmos91/dittobox/pkg/store/metadata"
)

// ContentStore provides read access to stored content blobs.
//
// Write Ordering:
// The upload pipeline writes content BEFORE creating the metadata record, so
// any ContentID reachable through the metadata store is expected to exist
// here. The reverse doesn't hold: a crash between the two writes can leave
// an orphaned blob, which is harmless and invisible to clients.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
// Concurrent writes to the SAME content ID are not coordinated; the upload
// pipeline generates a fresh ID per upload, so this never happens in
// practice.
type ContentStore interface {
	// ReadContent returns a reader for the content identified by id.
	//
	// The caller is responsible for closing the returned ReadCloser.
	//
	// Returns:
	//   - io.ReadCloser: Reader for the content (must be closed by caller)
	//   - error: ErrContentNotFound if the blob doesn't exist, or
	//     ErrUnavailable on backend failure
	ReadContent(ctx context.Context, id metadata.ContentID) (io.ReadCloser, error)

	// GetContentSize returns the size of the content in bytes without
	// reading it.
	//
	// Returns ErrContentNotFound if the blob doesn't exist.
	GetContentSize(ctx context.Context, id metadata.ContentID) (uint64, error)

	// ContentExists checks whether content with the given ID exists.
	//
	// A missing blob is not an error: it returns (false, nil). Errors are
	// reserved for backend failures.
	ContentExists(ctx context.Context, id metadata.ContentID) (bool, error)

	// Close releases backend resources.
	Close() error
}

// WritableContentStore extends ContentStore with write support.
//
// All configured backends implement this; the split interface exists so
// read-only consumers (the download path) can't accidentally write.
type WritableContentStore interface {
	ContentStore

	// WriteContent stores the bytes read from data under the given ID,
	// replacing any existing blob atomically: a concurrent reader sees
	// either the old complete blob or the new one, never a partial write.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - id: Content identifier to write
	//   - data: Source of the content bytes; read until EOF
	//
	// Returns:
	//   - error: ErrUnavailable on backend failure
	WriteContent(ctx context.Context, id metadata.ContentID, data io.Reader) error
}
