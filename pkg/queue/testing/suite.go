package testing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittobox/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// QueueTestSuite is a test suite for Queue implementations, covering the
// at-least-once delivery contract shared by all backends.
type QueueTestSuite struct {
	// NewQueue creates a fresh queue for each test.
	NewQueue func(t *testing.T) queue.Queue
}

// Run executes all tests in the suite.
func (suite *QueueTestSuite) Run(t *testing.T) {
	t.Run("EnqueueDequeue", suite.testEnqueueDequeue)
	t.Run("FIFOOrder", suite.testFIFOOrder)
	t.Run("Dequeue_ContextCancelled", suite.testDequeueContextCancelled)
	t.Run("Dequeue_Closed", suite.testDequeueClosed)
	t.Run("Retry_Redelivers", suite.testRetryRedelivers)
	t.Run("Retry_DropsAfterMaxAttempts", suite.testRetryDropsAfterMaxAttempts)
	t.Run("Ack_RemovesJob", suite.testAckRemovesJob)
}

func testContext() context.Context {
	return context.Background()
}

// dequeueWithTimeout fails the test if no delivery arrives in time.
func dequeueWithTimeout(t *testing.T, q queue.Queue) queue.Delivery {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	d, err := q.Dequeue(ctx)
	require.NoError(t, err)
	return d
}

func (suite *QueueTestSuite) testEnqueueDequeue(t *testing.T) {
	q := suite.NewQueue(t)

	job := queue.Job{OwnerID: uuid.New(), FileID: uuid.New()}
	require.NoError(t, q.Enqueue(testContext(), job))

	d := dequeueWithTimeout(t, q)
	assert.Equal(t, job, d.Job())
	assert.Equal(t, 1, d.Attempt())
	require.NoError(t, d.Ack(testContext()))
}

func (suite *QueueTestSuite) testFIFOOrder(t *testing.T) {
	q := suite.NewQueue(t)

	jobs := make([]queue.Job, 5)
	for i := range jobs {
		jobs[i] = queue.Job{OwnerID: uuid.New(), FileID: uuid.New()}
		require.NoError(t, q.Enqueue(testContext(), jobs[i]))
	}

	for i := range jobs {
		d := dequeueWithTimeout(t, q)
		assert.Equal(t, jobs[i].FileID, d.Job().FileID, "job %d out of order", i)
		require.NoError(t, d.Ack(testContext()))
	}
}

func (suite *QueueTestSuite) testDequeueContextCancelled(t *testing.T) {
	q := suite.NewQueue(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func (suite *QueueTestSuite) testDequeueClosed(t *testing.T) {
	q := suite.NewQueue(t)

	done := make(chan error, 1)
	go func() {
		_, err := q.Dequeue(context.Background())
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, queue.ErrQueueClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("Dequeue did not return after Close")
	}
}

func (suite *QueueTestSuite) testRetryRedelivers(t *testing.T) {
	q := suite.NewQueue(t)

	job := queue.Job{OwnerID: uuid.New(), FileID: uuid.New()}
	require.NoError(t, q.Enqueue(testContext(), job))

	first := dequeueWithTimeout(t, q)
	require.Equal(t, 1, first.Attempt())
	require.NoError(t, first.Retry(testContext()))

	second := dequeueWithTimeout(t, q)
	assert.Equal(t, job, second.Job())
	assert.Equal(t, 2, second.Attempt())
	require.NoError(t, second.Ack(testContext()))
}

func (suite *QueueTestSuite) testRetryDropsAfterMaxAttempts(t *testing.T) {
	q := suite.NewQueue(t)

	job := queue.Job{OwnerID: uuid.New(), FileID: uuid.New()}
	require.NoError(t, q.Enqueue(testContext(), job))

	for attempt := 1; attempt <= queue.DefaultMaxAttempts; attempt++ {
		d := dequeueWithTimeout(t, q)
		require.Equal(t, attempt, d.Attempt())
		require.NoError(t, d.Retry(testContext()))
	}

	// The final Retry dropped the job instead of redelivering.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func (suite *QueueTestSuite) testAckRemovesJob(t *testing.T) {
	q := suite.NewQueue(t)

	require.NoError(t, q.Enqueue(testContext(), queue.Job{OwnerID: uuid.New(), FileID: uuid.New()}))

	d := dequeueWithTimeout(t, q)
	require.NoError(t, d.Ack(testContext()))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
