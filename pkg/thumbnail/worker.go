// Package thumbnail implements the background worker that generates
// resized image variants.
//
// The worker consumes jobs from the queue, loads the original image,
// resizes it to every configured variant width, and writes the results to
// the content store under derived keys. Processing is idempotent: variants
// are written to deterministic keys, so redelivered jobs simply overwrite
// identical output.
package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	// Register decoders for the formats the worker accepts.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/marmos91/dittobox/internal/logger"
	"github.com/marmos91/dittobox/pkg/queue"
	"github.com/marmos91/dittobox/pkg/store/content"
	"github.com/marmos91/dittobox/pkg/store/metadata"
)

// ErrPermanent marks a processing failure that retrying cannot fix: the
// file is gone, isn't an image record, or references no stored content.
// Jobs failing this way are acknowledged and dropped; everything else,
// including decode and resize failures, is retried under the queue's
// attempt policy.
var ErrPermanent = errors.New("permanent processing failure")

// DefaultConcurrency is the number of parallel consumers started by Run.
const DefaultConcurrency = 4

// Worker consumes thumbnail jobs and produces resized variants.
type Worker struct {
	queue       queue.Queue
	metadata    metadata.MetadataStore
	content     content.WritableContentStore
	concurrency int
}

// NewWorker creates a worker over the given queue and stores.
//
// concurrency is the number of parallel consumers; values below 1 fall
// back to DefaultConcurrency.
func NewWorker(
	jobQueue queue.Queue,
	metadataStore metadata.MetadataStore,
	contentStore content.WritableContentStore,
	concurrency int,
) *Worker {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Worker{
		queue:       jobQueue,
		metadata:    metadataStore,
		content:     contentStore,
		concurrency: concurrency,
	}
}

// Run consumes jobs until the context is cancelled or the queue is closed.
//
// Run blocks. Each consumer settles every delivery exactly once: Ack on
// success and on permanent failures, Retry on transient ones.
func (w *Worker) Run(ctx context.Context) error {
	logger.Info("Starting thumbnail worker with %d consumers", w.concurrency)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.consume(ctx, id)
		}(i)
	}
	wg.Wait()

	logger.Info("Thumbnail worker stopped")
	return nil
}

// consume is one consumer loop.
func (w *Worker) consume(ctx context.Context, id int) {
	for {
		d, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, queue.ErrQueueClosed) {
				return
			}
			logger.Error("Consumer %d: dequeue failed: %v", id, err)
			continue
		}

		job := d.Job()
		err = w.Process(ctx, job)
		switch {
		case err == nil:
			if err := d.Ack(ctx); err != nil {
				logger.Error("Consumer %d: ack failed for file %s: %v", id, job.FileID, err)
			}
		case errors.Is(err, ErrPermanent):
			// Retrying can't help; settle the job for good.
			logger.Warn("Consumer %d: dropping job for file %s: %v", id, job.FileID, err)
			if err := d.Ack(ctx); err != nil {
				logger.Error("Consumer %d: ack failed for file %s: %v", id, job.FileID, err)
			}
		default:
			logger.Warn("Consumer %d: retrying job for file %s (attempt %d): %v", id, job.FileID, d.Attempt(), err)
			if err := d.Retry(ctx); err != nil {
				logger.Error("Consumer %d: retry failed for file %s: %v", id, job.FileID, err)
			}
		}
	}
}

// Process generates all variants for one job.
//
// Exported for direct use in tests and synchronous callers; Run is the
// production entry point.
//
// Every variant is written on every (re)delivery. Writes are atomic per
// key and keys are deterministic, so a job that failed halfway through is
// safe to re-run from the start.
func (w *Worker) Process(ctx context.Context, job queue.Job) error {
	// Validate the job against current state. Files can change between
	// enqueue and processing; a job that no longer matches is dead, not
	// retryable.
	file, err := w.metadata.GetFile(ctx, job.FileID)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return fmt.Errorf("%w: file %s no longer exists", ErrPermanent, job.FileID)
		}
		return fmt.Errorf("failed to load file %s: %w", job.FileID, err)
	}

	if file.OwnerID != job.OwnerID {
		return fmt.Errorf("%w: file %s owner mismatch", ErrPermanent, job.FileID)
	}
	if file.Type != metadata.FileTypeImage {
		return fmt.Errorf("%w: file %s is a %s, not an image", ErrPermanent, job.FileID, file.Type)
	}
	if file.ContentID == "" {
		return fmt.Errorf("%w: file %s has no content reference", ErrPermanent, job.FileID)
	}

	// Load and decode the original.
	reader, err := w.content.ReadContent(ctx, file.ContentID)
	if err != nil {
		if errors.Is(err, content.ErrContentNotFound) {
			return fmt.Errorf("%w: content %s is missing", ErrPermanent, file.ContentID)
		}
		return fmt.Errorf("failed to read content %s: %w", file.ContentID, err)
	}
	defer func() { _ = reader.Close() }()

	img, format, err := image.Decode(reader)
	if err != nil {
		// Decode failures are transient: the job goes back to the queue
		// and the attempt cap bounds redelivery.
		return fmt.Errorf("content %s does not decode as an image: %w", file.ContentID, err)
	}

	// Resize and store each variant.
	for _, size := range content.VariantSizes {
		resized := imaging.Resize(img, size.Width(), 0, imaging.Lanczos)

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, resized, encodeFormat(format)); err != nil {
			return fmt.Errorf("failed to encode %s variant of %s: %w", size, file.ContentID, err)
		}

		variantID := content.VariantContentID(file.ContentID, size)
		if err := w.content.WriteContent(ctx, variantID, &buf); err != nil {
			return fmt.Errorf("failed to store %s variant of %s: %w", size, file.ContentID, err)
		}
	}

	logger.Debug("Generated %d variants for file %s", len(content.VariantSizes), job.FileID)
	return nil
}

// encodeFormat maps a decoded format name to the variant output format.
// Variants keep the source format where supported; anything else becomes
// PNG (lossless, universally readable).
func encodeFormat(decoded string) imaging.Format {
	switch decoded {
	case "jpeg":
		return imaging.JPEG
	case "gif":
		return imaging.GIF
	default:
		return imaging.PNG
	}
}
