package service

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/marmos91/dittobox/internal/logger"
	"github.com/marmos91/dittobox/pkg/queue"
	"github.com/marmos91/dittobox/pkg/store/content"
	"github.com/marmos91/dittobox/pkg/store/metadata"
)

// UploadParams describes one upload request.
type UploadParams struct {
	// Name is the display name for the new file. Required.
	Name string

	// Type is the record kind: folder, file, or image. Required.
	Type metadata.FileType

	// ParentID is the containing folder, or metadata.RootFolderID for
	// top-level uploads.
	ParentID uuid.UUID

	// Public sets the initial visibility (default private).
	Public bool

	// Data is the decoded content for file and image uploads. Ignored
	// for folders.
	Data []byte
}

// UploadResult is the outcome of a successful upload.
type UploadResult struct {
	// File is the created metadata record.
	File *metadata.File

	// ThumbnailQueued reports whether a thumbnail job was submitted.
	// Always false for non-images; false for images when the queue
	// rejected the job (the upload itself still succeeded, and
	// thumbnails are missing until the image is re-uploaded).
	ThumbnailQueued bool
}

// Upload runs the upload pipeline: validate, store content, store
// metadata, queue thumbnails.
//
// Validation order is fixed and client-observable: name, then type, then
// data, then parent. A request missing several fields always reports the
// first failure in that order.
//
// Write ordering: content is written to the content store BEFORE the
// metadata record is created, so a visible record never references missing
// content. A crash in between leaves an orphaned blob, which is invisible
// to clients.
//
// For image uploads a thumbnail job is enqueued after the record is
// created. Queue failure does not roll anything back: the upload stands
// and the result carries ThumbnailQueued=false.
func (s *Service) Upload(ctx context.Context, ownerID uuid.UUID, params UploadParams) (*UploadResult, error) {
	// Step 1: Field validation, in wire order.
	if params.Name == "" {
		return nil, errValidation(msgMissingName)
	}
	if !params.Type.Valid() {
		return nil, errValidation(msgMissingType)
	}
	if params.Type.HasContent() && len(params.Data) == 0 {
		return nil, errValidation(msgMissingData)
	}

	// Step 2: Parent pre-check. The store re-validates atomically with the
	// insert; checking here first keeps content writes off the failure
	// path for the common client mistakes.
	if params.ParentID != metadata.RootFolderID {
		parent, err := s.metadata.GetFile(ctx, params.ParentID)
		if err != nil {
			if errors.Is(err, metadata.ErrNotFound) {
				return nil, errValidation(msgParentNotFound)
			}
			return nil, errTransient(err)
		}
		if parent.OwnerID != ownerID {
			// Indistinguishable from a missing parent.
			return nil, errValidation(msgParentNotFound)
		}
		if parent.Type != metadata.FileTypeFolder {
			return nil, errValidation(msgParentNotFolder)
		}
	}

	// Step 3: Content write (content-bearing types only).
	var contentID metadata.ContentID
	if params.Type.HasContent() {
		contentID = metadata.NewContentID()
		if err := s.content.WriteContent(ctx, contentID, bytes.NewReader(params.Data)); err != nil {
			return nil, errTransient(err)
		}
	}

	// Step 4: Metadata record.
	file, err := s.metadata.CreateFile(ctx, metadata.File{
		OwnerID:   ownerID,
		Name:      params.Name,
		Type:      params.Type,
		ParentID:  params.ParentID,
		Public:    params.Public,
		ContentID: contentID,
	})
	if err != nil {
		switch {
		case errors.Is(err, metadata.ErrParentNotFound):
			return nil, errValidation(msgParentNotFound)
		case errors.Is(err, metadata.ErrParentNotFolder):
			return nil, errValidation(msgParentNotFolder)
		case errors.Is(err, metadata.ErrInvalidArgument):
			return nil, errValidation(err.Error())
		default:
			return nil, errTransient(err)
		}
	}

	// Step 5: Thumbnail job for images. Failure is reported, not fatal.
	queued := false
	if file.Type == metadata.FileTypeImage {
		err := s.queue.Enqueue(ctx, queue.Job{OwnerID: ownerID, FileID: file.ID})
		if err != nil {
			logger.Warn("Failed to queue thumbnail job for file %s: %v", file.ID, err)
		} else {
			queued = true
		}
	}

	logger.Debug("Uploaded %s %s for user %s", file.Type, file.ID, ownerID)
	return &UploadResult{File: file, ThumbnailQueued: queued}, nil
}

// GetFile returns a file record to its owner.
//
// Non-owners get CodeNotFound regardless of the file's visibility: the
// public flag opens the content, not the metadata.
func (s *Service) GetFile(ctx context.Context, ownerID, fileID uuid.UUID) (*metadata.File, error) {
	file, err := s.metadata.GetFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return nil, errNotFound()
		}
		return nil, errTransient(err)
	}

	if file.OwnerID != ownerID {
		return nil, errNotFound()
	}

	return file, nil
}

// ListFiles returns one page of the owner's files under a parent folder.
//
// Pages are zero-indexed with a fixed size of metadata.ListPageSize, in
// insertion order. Pages beyond the end, and unknown parents, are empty
// lists rather than errors.
func (s *Service) ListFiles(ctx context.Context, ownerID, parentID uuid.UUID, page int) ([]metadata.File, error) {
	files, err := s.metadata.ListChildren(ctx, ownerID, parentID, page)
	if err != nil {
		return nil, errTransient(err)
	}
	return files, nil
}

// SetVisibility publishes or unpublishes a file. Owner-only; idempotent.
func (s *Service) SetVisibility(ctx context.Context, ownerID, fileID uuid.UUID, public bool) (*metadata.File, error) {
	file, err := s.metadata.GetFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return nil, errNotFound()
		}
		return nil, errTransient(err)
	}
	if file.OwnerID != ownerID {
		return nil, errNotFound()
	}

	updated, err := s.metadata.SetFileVisibility(ctx, fileID, public)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return nil, errNotFound()
		}
		return nil, errTransient(err)
	}

	return updated, nil
}

// DownloadResult carries the content stream and the record it belongs to.
type DownloadResult struct {
	// File is the metadata record (for name-based MIME detection).
	File *metadata.File

	// Content streams the requested blob. The caller must close it.
	Content io.ReadCloser

	// Size is the blob size in bytes.
	Size uint64
}

// Download opens a file's content, or one of its thumbnail variants, for
// reading.
//
// This is the one operation where anonymous access is legitimate: token
// may be empty, unknown, or expired, all of which read as anonymous.
// Access is granted when the file is public or the resolved requester owns
// it; everything else is CodeNotFound, indistinguishable from a file that
// doesn't exist.
//
// size selects a thumbnail variant by token (small, medium, large); empty
// means the original content. Unknown tokens are CodeValidation. A variant
// that the asynchronous worker hasn't generated yet is CodeNotFound.
func (s *Service) Download(ctx context.Context, token string, fileID uuid.UUID, size string) (*DownloadResult, error) {
	requester, err := s.resolveOptional(ctx, token)
	if err != nil {
		return nil, err
	}

	file, err := s.metadata.GetFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return nil, errNotFound()
		}
		return nil, errTransient(err)
	}

	if !file.Public && (requester == uuid.Nil || requester != file.OwnerID) {
		return nil, errNotFound()
	}

	if file.Type == metadata.FileTypeFolder {
		return nil, errValidation(msgFolderNoContent)
	}

	contentID := file.ContentID
	if size != "" {
		variant, err := content.ParseVariantSize(size)
		if err != nil {
			return nil, errValidation(msgInvalidSize)
		}
		contentID = content.VariantContentID(file.ContentID, variant)
	}

	blobSize, err := s.content.GetContentSize(ctx, contentID)
	if err != nil {
		if errors.Is(err, content.ErrContentNotFound) {
			return nil, errNotFound()
		}
		return nil, errTransient(err)
	}

	reader, err := s.content.ReadContent(ctx, contentID)
	if err != nil {
		if errors.Is(err, content.ErrContentNotFound) {
			return nil, errNotFound()
		}
		return nil, errTransient(err)
	}

	return &DownloadResult{File: file, Content: reader, Size: blobSize}, nil
}
