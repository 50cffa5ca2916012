package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	p, err := NewPool("test", BackgroundPool, &Config{Capacity: 4, ExpiryDuration: time.Second})
	require.NoError(t, err)
	defer p.Release()

	var counter atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(func() {
			defer wg.Done()
			counter.Add(1)
		}))
	}
	wg.Wait()

	assert.Equal(t, int32(20), counter.Load())
	stats := p.Stats()
	assert.Equal(t, int64(20), stats.SubmittedTasks)
	assert.Equal(t, int64(20), stats.CompletedTasks)
	assert.Equal(t, int64(0), stats.FailedTasks)
}

func TestPoolRecoversPanics(t *testing.T) {
	p, err := NewPool("test", BackgroundPool, &Config{
		Capacity:       2,
		ExpiryDuration: time.Second,
		PanicHandler:   func(interface{}) {},
	})
	require.NoError(t, err)
	defer p.Release()

	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, p.Submit(func() {
		defer wg.Done()
		panic("boom")
	}))
	wg.Wait()

	// Pool stays usable after a panic.
	done := make(chan struct{})
	require.NoError(t, p.Submit(func() { close(done) }))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not run task after panic")
	}

	assert.Eventually(t, func() bool {
		return p.Stats().PanicRecovered == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPoolRejectsWhenClosed(t *testing.T) {
	p, err := NewPool("test", BackgroundPool, nil)
	require.NoError(t, err)
	p.Release()

	assert.ErrorIs(t, p.Submit(func() {}), ErrPoolClosed)
}

func TestSubmitDetachedFallsBackToGoroutine(t *testing.T) {
	p, err := NewPool("test", TrackingPool, nil)
	require.NoError(t, err)
	p.Release()

	// Closed pool rejects; detached submission must still run the task.
	done := make(chan struct{})
	p.SubmitDetached(func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("detached task never ran")
	}
}

func TestSubmitWithContextSkipsCancelled(t *testing.T) {
	p, err := NewPool("test", BackgroundPool, nil)
	require.NoError(t, err)
	defer p.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.SubmitWithContext(ctx, func() {
		t.Fatal("task must not run with cancelled context")
	}), context.Canceled)
}
