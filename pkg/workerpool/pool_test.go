package workerpool_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmartin-estofados/storefront/pkg/workerpool"
)

func TestPool_SubmitAndExecute(t *testing.T) {
	pool := workerpool.New(4)

	const n = 6
	var count atomic.Int64
	var wg sync.WaitGroup
	wg.Add(n)

	for i := 0; i < n; i++ {
		require.NoError(t, pool.Submit("count", func(context.Context) error {
			defer wg.Done()
			count.Add(1)
			return nil
		}))
	}

	wg.Wait()
	pool.Shutdown(time.Second)
	assert.Equal(t, int64(n), count.Load())
}

func TestPool_ErrPoolFull(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown(time.Second)

	blocker := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, pool.Submit("block", func(context.Context) error {
		close(started)
		<-blocker
		return nil
	}))
	<-started

	// queue holds 2×size
	require.NoError(t, pool.Submit("q1", func(context.Context) error { return nil }))
	require.NoError(t, pool.Submit("q2", func(context.Context) error { return nil }))

	err := pool.Submit("overflow", func(context.Context) error { return nil })
	assert.True(t, errors.Is(err, workerpool.ErrPoolFull))

	close(blocker)
}

func TestPool_ErrPoolClosed(t *testing.T) {
	pool := workerpool.New(2)
	pool.Shutdown(time.Second)
	pool.Shutdown(time.Second)

	err := pool.Submit("late", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, workerpool.ErrPoolClosed)
}

func TestPool_SurvivesPanicsAndErrors(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown(time.Second)

	// One worker: wait for each task to start so the queue never fills.
	ran := make(chan struct{}, 2)
	require.NoError(t, pool.Submit("panics", func(context.Context) error {
		ran <- struct{}{}
		panic("boom")
	}))
	<-ran
	require.NoError(t, pool.Submit("fails", func(context.Context) error {
		ran <- struct{}{}
		return errors.New("nope")
	}))
	<-ran

	done := make(chan struct{})
	require.NoError(t, pool.Submit("after", func(context.Context) error {
		close(done)
		return nil
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive a panicking task")
	}
}

func TestPool_ShutdownCancelsAfterGrace(t *testing.T) {
	pool := workerpool.New(1)

	cancelled := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, pool.Submit("slow", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	}))
	<-started

	pool.Shutdown(10 * time.Millisecond)

	select {
	case <-cancelled:
	default:
		t.Fatal("task context was not cancelled on shutdown")
	}
}
