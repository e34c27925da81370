package badger_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittobox/pkg/queue"
	badgerqueue "github.com/marmos91/dittobox/pkg/queue/badger"
	queuetesting "github.com/marmos91/dittobox/pkg/queue/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerQueue(t *testing.T) {
	suite := &queuetesting.QueueTestSuite{
		NewQueue: func(t *testing.T) queue.Queue {
			q, err := badgerqueue.NewBadgerQueue(context.Background(), badgerqueue.BadgerQueueConfig{
				DBPath: t.TempDir(),
			})
			require.NoError(t, err)
			t.Cleanup(func() { _ = q.Close() })
			return q
		},
	}
	suite.Run(t)
}

// Pending jobs must survive a close/reopen cycle in order.
func TestBadgerQueue_PendingPersistence(t *testing.T) {
	ctx := context.Background()
	dbPath := t.TempDir()

	q, err := badgerqueue.NewBadgerQueue(ctx, badgerqueue.BadgerQueueConfig{DBPath: dbPath})
	require.NoError(t, err)

	jobs := make([]queue.Job, 3)
	for i := range jobs {
		jobs[i] = queue.Job{OwnerID: uuid.New(), FileID: uuid.New()}
		require.NoError(t, q.Enqueue(ctx, jobs[i]))
	}
	require.NoError(t, q.Close())

	reopened, err := badgerqueue.NewBadgerQueue(ctx, badgerqueue.BadgerQueueConfig{DBPath: dbPath})
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	for i := range jobs {
		dctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		d, err := reopened.Dequeue(dctx)
		cancel()
		require.NoError(t, err)
		assert.Equal(t, jobs[i].FileID, d.Job().FileID, "job %d out of order", i)
		require.NoError(t, d.Ack(ctx))
	}
}

// A job claimed but never settled must be redelivered after reopen.
func TestBadgerQueue_InFlightRecovery(t *testing.T) {
	ctx := context.Background()
	dbPath := t.TempDir()

	q, err := badgerqueue.NewBadgerQueue(ctx, badgerqueue.BadgerQueueConfig{DBPath: dbPath})
	require.NoError(t, err)

	job := queue.Job{OwnerID: uuid.New(), FileID: uuid.New()}
	require.NoError(t, q.Enqueue(ctx, job))

	dctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	d, err := q.Dequeue(dctx)
	cancel()
	require.NoError(t, err)
	require.Equal(t, job, d.Job())

	// Simulated crash: close without Ack or Retry.
	require.NoError(t, q.Close())

	reopened, err := badgerqueue.NewBadgerQueue(ctx, badgerqueue.BadgerQueueConfig{DBPath: dbPath})
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	dctx, cancel = context.WithTimeout(ctx, 5*time.Second)
	redelivered, err := reopened.Dequeue(dctx)
	cancel()
	require.NoError(t, err)
	assert.Equal(t, job, redelivered.Job())
	require.NoError(t, redelivered.Ack(ctx))
}

// Badger holds an exclusive lock on its directory: a second open of the
// same path must fail instead of corrupting the queue. This is what keeps
// the standalone worker from running against a live server's stores.
func TestBadgerQueue_ExclusiveDirectoryLock(t *testing.T) {
	ctx := context.Background()
	dbPath := t.TempDir()

	q, err := badgerqueue.NewBadgerQueue(ctx, badgerqueue.BadgerQueueConfig{DBPath: dbPath})
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	_, err = badgerqueue.NewBadgerQueue(ctx, badgerqueue.BadgerQueueConfig{DBPath: dbPath})
	assert.Error(t, err)
}

func TestNewBadgerQueueFromMap(t *testing.T) {
	q, err := badgerqueue.NewBadgerQueueFromMap(context.Background(), map[string]any{
		"db_path": t.TempDir(),
	})
	require.NoError(t, err)
	require.NoError(t, q.Close())

	_, err = badgerqueue.NewBadgerQueueFromMap(context.Background(), map[string]any{})
	assert.Error(t, err)
}
