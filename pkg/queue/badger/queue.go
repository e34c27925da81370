// Package badger implements a persistent job queue backed by BadgerDB.
//
// Jobs survive process restarts: pending jobs are stored under sequence
// keys, claimed jobs are moved to an in-flight namespace, and any jobs
// still in flight when the queue is reopened are requeued. Combined with
// ack-on-completion this gives at-least-once delivery across crashes.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/marmos91/dittobox/internal/logger"
	"github.com/marmos91/dittobox/pkg/queue"
	"github.com/mitchellh/mapstructure"
)

// Database Key Namespace Design
// ==============================
//
// Data Type        Prefix   Key Format        Value Type
// ========================================================
// Pending Jobs     "j:"     j:<seq>           jobRecord (JSON)
// In-Flight Jobs   "i:"     i:<seq>           jobRecord (JSON)
// Sequence         "seq"    seq               uint64 (JSON)
//
// Sequence numbers are zero-padded 20-digit decimals, so BadgerDB's
// lexicographic iteration order is FIFO order. Claiming a job moves it
// from "j:" to "i:" in one transaction; Ack deletes the "i:" entry;
// Retry moves it back to "j:" under a fresh sequence number.

const (
	prefixPending  = "j:"
	prefixInFlight = "i:"
	keySequence    = "seq"
)

// pollInterval is the fallback wakeup period for blocked consumers. The
// notify channel wakes them immediately in the common case; the ticker
// only covers signals lost while every consumer was busy.
const pollInterval = 500 * time.Millisecond

// jobRecord is the stored form of a job with its delivery attempt count.
type jobRecord struct {
	Job     queue.Job `json:"job"`
	Attempt int       `json:"attempt"`
}

// BadgerQueue implements queue.Queue using BadgerDB.
type BadgerQueue struct {
	db          *badger.DB
	maxAttempts int

	// notify wakes one blocked consumer after an enqueue or requeue
	notify chan struct{}

	closed    chan struct{}
	closeOnce sync.Once
}

// BadgerQueueConfig contains configuration for the BadgerDB queue.
type BadgerQueueConfig struct {
	// DBPath is the directory where BadgerDB will store its files.
	// Must be distinct from other BadgerDB stores' paths.
	DBPath string `mapstructure:"db_path"`

	// MaxAttempts bounds redelivery per job (default: queue.DefaultMaxAttempts)
	MaxAttempts int `mapstructure:"max_attempts"`
}

// NewBadgerQueue creates a BadgerDB-backed queue, requeueing any jobs left
// in flight by a previous process.
func NewBadgerQueue(ctx context.Context, config BadgerQueueConfig) (*BadgerQueue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(config.DBPath)
	opts = opts.WithLoggingLevel(badger.WARNING)
	opts = opts.WithCompression(options.None)
	opts = opts.WithBlockCacheSize(16 << 20)
	opts = opts.WithIndexCacheSize(8 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	maxAttempts := config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = queue.DefaultMaxAttempts
	}

	q := &BadgerQueue{
		db:          db,
		maxAttempts: maxAttempts,
		notify:      make(chan struct{}, 1),
		closed:      make(chan struct{}),
	}

	if err := q.recoverInFlight(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to recover in-flight jobs: %w", err)
	}

	return q, nil
}

// NewBadgerQueueFromMap creates a queue from an untyped configuration map.
func NewBadgerQueueFromMap(ctx context.Context, settings map[string]any) (*BadgerQueue, error) {
	var config BadgerQueueConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, fmt.Errorf("invalid badger queue config: %w", err)
	}
	if config.DBPath == "" {
		return nil, fmt.Errorf("badger queue requires db_path")
	}
	return NewBadgerQueue(ctx, config)
}

// keyPending generates a pending job key.
func keyPending(seq uint64) []byte {
	return fmt.Appendf(nil, "%s%020d", prefixPending, seq)
}

// keyInFlight generates an in-flight job key for the same sequence number.
func keyInFlight(seq uint64) []byte {
	return fmt.Appendf(nil, "%s%020d", prefixInFlight, seq)
}

// recoverInFlight moves jobs claimed by a dead process back to pending.
//
// Runs once during construction, before any consumer exists, so no locking
// is needed beyond the transaction itself.
func (q *BadgerQueue) recoverInFlight() error {
	requeued := 0
	err := q.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixInFlight)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefixInFlight)); it.ValidForPrefix([]byte(prefixInFlight)); it.Next() {
			item := it.Item()

			var value []byte
			if err := item.Value(func(val []byte) error {
				value = append([]byte(nil), val...)
				return nil
			}); err != nil {
				return err
			}

			seq, err := nextSeq(txn)
			if err != nil {
				return err
			}
			if err := txn.Set(keyPending(seq), value); err != nil {
				return err
			}
			if err := txn.Delete(append([]byte(nil), item.Key()...)); err != nil {
				return err
			}
			requeued++
		}
		return nil
	})
	if err != nil {
		return err
	}

	if requeued > 0 {
		logger.Info("Requeued %d in-flight jobs from previous run", requeued)
	}
	return nil
}

// nextSeq reads and bumps the sequence counter within an open transaction.
func nextSeq(txn *badger.Txn) (uint64, error) {
	var seq uint64
	item, err := txn.Get([]byte(keySequence))
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		seq = 0
	case err != nil:
		return 0, err
	default:
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &seq)
		}); err != nil {
			return 0, err
		}
	}

	next, err := json.Marshal(seq + 1)
	if err != nil {
		return 0, err
	}
	return seq, txn.Set([]byte(keySequence), next)
}

// signal wakes one blocked consumer, dropping the signal if one is already
// pending.
func (q *BadgerQueue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Enqueue appends a job to the pending namespace and wakes a consumer.
func (q *BadgerQueue) Enqueue(ctx context.Context, job queue.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case <-q.closed:
		return queue.ErrQueueClosed
	default:
	}

	if err := q.putPending(jobRecord{Job: job, Attempt: 1}); err != nil {
		return fmt.Errorf("%w: %w", queue.ErrUnavailable, err)
	}

	q.signal()
	return nil
}

// putPending stores a job record under a fresh sequence key.
func (q *BadgerQueue) putPending(record jobRecord) error {
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	return q.db.Update(func(txn *badger.Txn) error {
		seq, err := nextSeq(txn)
		if err != nil {
			return err
		}
		return txn.Set(keyPending(seq), value)
	})
}

// Dequeue blocks until a pending job can be claimed.
func (q *BadgerQueue) Dequeue(ctx context.Context) (queue.Delivery, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		select {
		case <-q.closed:
			return nil, queue.ErrQueueClosed
		default:
		}

		d, found, err := q.claim()
		if errors.Is(err, badger.ErrDBClosed) {
			return nil, queue.ErrQueueClosed
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", queue.ErrUnavailable, err)
		}
		if found {
			return d, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.closed:
			return nil, queue.ErrQueueClosed
		case <-q.notify:
		case <-ticker.C:
		}
	}
}

// claim atomically moves the oldest pending job to the in-flight namespace.
//
// Returns found=false when the pending namespace is empty. Transaction
// conflicts between racing consumers surface as a not-found so the loser
// just waits for the next wakeup.
func (q *BadgerQueue) claim() (*delivery, bool, error) {
	var d *delivery

	err := q.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixPending)

		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek([]byte(prefixPending))
		if !it.ValidForPrefix([]byte(prefixPending)) {
			return nil
		}

		item := it.Item()

		var record jobRecord
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		}); err != nil {
			return err
		}

		var seq uint64
		if _, err := fmt.Sscanf(string(item.Key()), prefixPending+"%d", &seq); err != nil {
			return fmt.Errorf("malformed pending key %q: %w", item.Key(), err)
		}

		value, err := json.Marshal(record)
		if err != nil {
			return err
		}
		if err := txn.Set(keyInFlight(seq), value); err != nil {
			return err
		}
		if err := txn.Delete(append([]byte(nil), item.Key()...)); err != nil {
			return err
		}

		d = &delivery{q: q, seq: seq, record: record}
		return nil
	})
	if errors.Is(err, badger.ErrConflict) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return d, d != nil, nil
}

// Close shuts the queue down and closes the database. Safe to call more
// than once; only the first call closes the database.
func (q *BadgerQueue) Close() error {
	var err error
	q.closeOnce.Do(func() {
		close(q.closed)
		err = q.db.Close()
	})
	return err
}

// delivery is a claimed job pending settlement.
type delivery struct {
	q      *BadgerQueue
	seq    uint64
	record jobRecord
}

// Job returns the job payload.
func (d *delivery) Job() queue.Job {
	return d.record.Job
}

// Attempt returns the 1-based delivery attempt number.
func (d *delivery) Attempt() int {
	return d.record.Attempt
}

// Ack deletes the in-flight entry, settling the job for good.
func (d *delivery) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := d.q.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(keyInFlight(d.seq))
	})
	if err != nil {
		return fmt.Errorf("%w: failed to ack job: %w", queue.ErrUnavailable, err)
	}
	return nil
}

// Retry moves the job back to pending with an incremented attempt count,
// dropping it once the redelivery bound is reached.
func (d *delivery) Retry(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	drop := d.record.Attempt >= d.q.maxAttempts

	err := d.q.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(keyInFlight(d.seq)); err != nil {
			return err
		}
		if drop {
			return nil
		}

		record := jobRecord{Job: d.record.Job, Attempt: d.record.Attempt + 1}
		value, err := json.Marshal(record)
		if err != nil {
			return err
		}
		seq, err := nextSeq(txn)
		if err != nil {
			return err
		}
		return txn.Set(keyPending(seq), value)
	})
	if err != nil {
		return fmt.Errorf("%w: failed to retry job: %w", queue.ErrUnavailable, err)
	}

	if drop {
		logger.Warn("Dropping job for file %s after %d attempts", d.record.Job.FileID, d.record.Attempt)
	} else {
		d.q.signal()
	}
	return nil
}
