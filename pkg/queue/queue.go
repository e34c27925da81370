// Package queue defines the background job queue for DittoBox.
//
// The queue carries thumbnail generation jobs from the upload pipeline to
// the worker with at-least-once delivery: a job is removed only when the
// consumer acknowledges it, so a crashed consumer leads to redelivery, not
// loss. Consumers must therefore be idempotent.
package queue

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// DefaultMaxAttempts bounds redelivery of a single job. A job that has been
// retried this many times is dropped instead of redelivered, keeping one
// poisonous job from occupying the worker forever.
const DefaultMaxAttempts = 5

// Job is a thumbnail generation request.
//
// The job carries only identifiers; the worker re-reads the file record and
// content at processing time, so stale jobs (file since made private, say)
// resolve against current state.
type Job struct {
	// OwnerID is the user that uploaded the image.
	OwnerID uuid.UUID `json:"owner_id"`

	// FileID is the image file record to generate thumbnails for.
	FileID uuid.UUID `json:"file_id"`
}

// Delivery is one received job plus its settlement handle.
//
// Every delivery must be settled exactly once, with either Ack or Retry.
// An unsettled delivery from a crashed consumer is redelivered after
// restart (badger backend) or lost with the process (memory backend).
type Delivery interface {
	// Job returns the job payload.
	Job() Job

	// Attempt returns the 1-based delivery attempt number.
	Attempt() int

	// Ack settles the delivery as done. The job will not be redelivered.
	// Used for both success and permanent failures that retrying cannot
	// fix.
	Ack(ctx context.Context) error

	// Retry settles the delivery as failed transiently, making the job
	// eligible for redelivery with an incremented attempt count. Past
	// the max attempts bound the job is dropped instead.
	Retry(ctx context.Context) error
}

// Queue is an at-least-once job queue.
//
// Thread Safety:
// Implementations must support concurrent producers and consumers.
type Queue interface {
	// Enqueue submits a job for eventual processing.
	//
	// Enqueue does not block on consumers. Returns ErrUnavailable when
	// the queue cannot accept the job (full buffer, backend down) and
	// ErrQueueClosed after Close.
	Enqueue(ctx context.Context, job Job) error

	// Dequeue blocks until a job is available, the context is cancelled,
	// or the queue is closed.
	//
	// Returns:
	//   - Delivery: The received job; must be settled with Ack or Retry
	//   - error: ctx.Err() on cancellation, ErrQueueClosed after Close
	Dequeue(ctx context.Context) (Delivery, error)

	// Close shuts the queue down. Pending Dequeue calls return
	// ErrQueueClosed.
	Close() error
}

var (
	// ErrQueueClosed indicates the queue has been closed.
	ErrQueueClosed = errors.New("queue closed")

	// ErrUnavailable indicates the queue cannot currently accept or
	// deliver jobs. This is a transient error: retrying may succeed.
	ErrUnavailable = errors.New("queue unavailable")
)
