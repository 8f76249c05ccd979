package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcome struct {
	job Job
	err error
}

func collect() (Observer, func() []outcome) {
	var mu sync.Mutex
	var got []outcome
	return func(job Job, err error) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, outcome{job: job, err: err})
		}, func() []outcome {
			mu.Lock()
			defer mu.Unlock()
			return append([]outcome(nil), got...)
		}
}

func TestQueueProcessesJobs(t *testing.T) {
	var processed int32
	observer, outcomes := collect()
	q := NewQueue("notifications", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&processed, 1)
		return nil
	}, QueueConfig{Workers: 2, Observer: observer})
	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "job", Type: "assignment.published"}))
	}

	require.Eventually(t, func() bool { return len(outcomes()) == 5 }, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 5, atomic.LoadInt32(&processed))
	for _, o := range outcomes() {
		assert.NoError(t, o.err)
		assert.False(t, o.job.Enqueued.IsZero())
	}
}

func TestQueueRetriesThenGivesUp(t *testing.T) {
	var calls int32
	observer, outcomes := collect()
	q := NewQueue("notifications", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("db down")
	}, QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond, Observer: observer})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "fanout-1"}))

	require.Eventually(t, func() bool { return len(outcomes()) == 1 }, time.Second, 5*time.Millisecond)
	got := outcomes()[0]
	assert.EqualError(t, got.err, "db down")
	assert.Equal(t, 3, got.job.Attempt)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestQueueRecoversFromPanic(t *testing.T) {
	observer, outcomes := collect()
	q := NewQueue("notifications", func(ctx context.Context, job Job) error {
		panic("boom")
	}, QueueConfig{MaxRetries: 0, Observer: observer})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "p"}))
	require.Eventually(t, func() bool { return len(outcomes()) == 1 }, time.Second, 5*time.Millisecond)
	assert.ErrorContains(t, outcomes()[0].err, "panicked")
}

func TestQueueEnqueueRequiresStart(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "x"}))

	q.Start(context.Background())
	q.Stop()
	assert.Error(t, q.Enqueue(Job{ID: "y"}))
}

func TestQueueShutdownDrainsBufferedJobs(t *testing.T) {
	release := make(chan struct{})
	observer, outcomes := collect()
	q := NewQueue("notifications", func(ctx context.Context, job Job) error {
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 8, Observer: observer})
	q.Start(context.Background())

	for i := 0; i < 4; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "fanout"}))
	}

	done := make(chan error, 1)
	go func() { done <- q.Shutdown(context.Background()) }()

	require.Eventually(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return q.draining
	}, time.Second, time.Millisecond)
	assert.Error(t, q.Enqueue(Job{ID: "late"}))
	close(release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not return")
	}
	assert.Len(t, outcomes(), 4)
	assert.Error(t, q.Enqueue(Job{ID: "after"}))
}

func TestQueueShutdownWaitsForRetries(t *testing.T) {
	var calls int32
	observer, outcomes := collect()
	q := NewQueue("notifications", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{MaxRetries: 1, RetryDelay: 20 * time.Millisecond, Observer: observer})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "retry"}))
	require.NoError(t, q.Shutdown(context.Background()))

	require.Len(t, outcomes(), 1)
	assert.NoError(t, outcomes()[0].err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestQueueShutdownGivesUpAtDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	q := NewQueue("notifications", func(ctx context.Context, job Job) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{Workers: 1})
	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{ID: "stuck"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Shutdown(ctx), context.DeadlineExceeded)
}
