package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalsense/rppg-analyzer/pkg/logging"
)

func newTestPool(workers, queueSize int) *Pool {
	return NewPool(workers, queueSize, logging.NewNopLogger())
}

func TestPoolRunsSubmittedTasks(t *testing.T) {
	pool := newTestPool(3, 16)
	pool.Start()

	var ran int64
	done := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		err := pool.Submit("task", func(ctx context.Context) error {
			atomic.AddInt64(&ran, 1)
			done <- struct{}{}
			return nil
		})
		require.NoError(t, err)
	}

	for i := 0; i < 10; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for tasks")
		}
	}
	pool.Stop()

	assert.EqualValues(t, 10, atomic.LoadInt64(&ran))
	metrics := pool.Metrics()
	assert.EqualValues(t, 10, metrics.Submitted)
	assert.EqualValues(t, 10, metrics.Completed)
	assert.EqualValues(t, 0, metrics.Failed)
}

func TestPoolRejectsWhenQueueFull(t *testing.T) {
	pool := newTestPool(1, 1)
	pool.Start()
	defer pool.Stop()

	started := make(chan struct{})
	gate := make(chan struct{})

	// Occupy the single worker.
	require.NoError(t, pool.Submit("blocker", func(ctx context.Context) error {
		close(started)
		<-gate
		return nil
	}))
	<-started

	// Fill the single queue slot.
	require.NoError(t, pool.Submit("queued", func(ctx context.Context) error {
		return nil
	}))

	// Nothing left to absorb this one.
	err := pool.Submit("rejected", func(ctx context.Context) error {
		return nil
	})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(gate)
}

func TestPoolStopDrainsQueue(t *testing.T) {
	pool := newTestPool(2, 32)
	pool.Start()

	var ran int64
	for i := 0; i < 20; i++ {
		require.NoError(t, pool.Submit("drain", func(ctx context.Context) error {
			atomic.AddInt64(&ran, 1)
			return nil
		}))
	}

	pool.Stop()

	assert.EqualValues(t, 20, atomic.LoadInt64(&ran), "queued tasks must finish before Stop returns")

	err := pool.Submit("late", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrPoolStopped)
}

func TestPoolStopIsIdempotent(t *testing.T) {
	pool := newTestPool(1, 4)
	pool.Start()

	pool.Stop()
	pool.Stop()
}

func TestPoolSurvivesPanickingTask(t *testing.T) {
	pool := newTestPool(1, 4)
	pool.Start()

	panicked := make(chan struct{})
	require.NoError(t, pool.Submit("bad", func(ctx context.Context) error {
		defer close(panicked)
		panic("boom")
	}))
	<-panicked

	// The worker must still be alive for the next task.
	done := make(chan struct{})
	require.NoError(t, pool.Submit("good", func(ctx context.Context) error {
		close(done)
		return nil
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive the panic")
	}
	pool.Stop()

	metrics := pool.Metrics()
	assert.EqualValues(t, 1, metrics.Recovered)
	assert.EqualValues(t, 1, metrics.Failed)
	assert.EqualValues(t, 1, metrics.Completed)
}

func TestPoolCountsFailedTasks(t *testing.T) {
	pool := newTestPool(1, 4)
	pool.Start()

	require.NoError(t, pool.Submit("fail", func(ctx context.Context) error {
		return assert.AnError
	}))
	pool.Stop()

	metrics := pool.Metrics()
	assert.EqualValues(t, 1, metrics.Failed)
	assert.EqualValues(t, 0, metrics.Completed)
}

func TestPoolDefaults(t *testing.T) {
	pool := NewPool(0, 0, nil)

	assert.Greater(t, pool.workers, 0)
	assert.Greater(t, cap(pool.queue), 0)
}
