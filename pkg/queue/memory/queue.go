// Package memory implements an in-process job queue.
//
// Jobs live in a buffered channel: delivery is at-least-once within the
// process, but unsettled jobs are lost when the process dies. Use the
// badger backend when jobs must survive restarts.
package memory

import (
	"context"
	"sync"

	"github.com/marmos91/dittobox/internal/logger"
	"github.com/marmos91/dittobox/pkg/queue"
)

// DefaultCapacity is the buffered channel size used by New.
const DefaultCapacity = 1024

// MemoryQueue implements queue.Queue over a buffered channel.
type MemoryQueue struct {
	jobs        chan delivery
	maxAttempts int

	closed    chan struct{}
	closeOnce sync.Once
}

// delivery is an in-flight job with its attempt count.
type delivery struct {
	job     queue.Job
	attempt int
	q       *MemoryQueue
}

// NewMemoryQueue creates a queue with the default capacity and retry bound.
func NewMemoryQueue() *MemoryQueue {
	return NewMemoryQueueWithCapacity(DefaultCapacity, queue.DefaultMaxAttempts)
}

// NewMemoryQueueWithCapacity creates a queue with an explicit buffer size
// and redelivery bound.
func NewMemoryQueueWithCapacity(capacity, maxAttempts int) *MemoryQueue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if maxAttempts <= 0 {
		maxAttempts = queue.DefaultMaxAttempts
	}
	return &MemoryQueue{
		jobs:        make(chan delivery, capacity),
		maxAttempts: maxAttempts,
		closed:      make(chan struct{}),
	}
}

// Enqueue submits a job without blocking. A full buffer is reported as
// ErrUnavailable rather than waiting: the producer (the upload pipeline)
// must never stall on the queue.
func (q *MemoryQueue) Enqueue(ctx context.Context, job queue.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case <-q.closed:
		return queue.ErrQueueClosed
	default:
	}

	select {
	case q.jobs <- delivery{job: job, attempt: 1, q: q}:
		return nil
	default:
		return queue.ErrUnavailable
	}
}

// Dequeue blocks until a job is available, the context is cancelled, or the
// queue is closed.
func (q *MemoryQueue) Dequeue(ctx context.Context) (queue.Delivery, error) {
	select {
	case d := <-q.jobs:
		return &d, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-q.closed:
		// Drain jobs buffered before the close.
		select {
		case d := <-q.jobs:
			return &d, nil
		default:
			return nil, queue.ErrQueueClosed
		}
	}
}

// Close shuts the queue down. Safe to call more than once.
func (q *MemoryQueue) Close() error {
	q.closeOnce.Do(func() { close(q.closed) })
	return nil
}

// Job returns the job payload.
func (d *delivery) Job() queue.Job {
	return d.job
}

// Attempt returns the 1-based delivery attempt number.
func (d *delivery) Attempt() int {
	return d.attempt
}

// Ack settles the delivery as done. For the channel-backed queue the job
// was already removed on receive, so there is nothing to do.
func (d *delivery) Ack(ctx context.Context) error {
	return ctx.Err()
}

// Retry re-enqueues the job with an incremented attempt count, dropping it
// once the redelivery bound is reached.
func (d *delivery) Retry(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if d.attempt >= d.q.maxAttempts {
		logger.Warn("Dropping job for file %s after %d attempts", d.job.FileID, d.attempt)
		return nil
	}

	select {
	case <-d.q.closed:
		return queue.ErrQueueClosed
	default:
	}

	select {
	case d.q.jobs <- delivery{job: d.job, attempt: d.attempt + 1, q: d.q}:
		return nil
	default:
		return queue.ErrUnavailable
	}
}
