package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPoolRunsSubmittedTasks(t *testing.T) {
	p := NewPool(4, time.Second)
	defer p.Shutdown()

	var wg sync.WaitGroup
	var ran atomic.Int32
	for range 20 {
		wg.Add(1)
		p.Submit(Task{Ctx: context.Background(), Work: func(context.Context) error {
			defer wg.Done()
			ran.Add(1)
			return nil
		}})
	}
	wg.Wait()
	assert.EqualValues(t, 20, ran.Load())
}

func TestPoolLimitsConcurrency(t *testing.T) {
	p := NewPool(2, time.Second)
	defer p.Shutdown()

	var cur, peak atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		p.Submit(Task{Ctx: context.Background(), Work: func(context.Context) error {
			defer wg.Done()
			n := cur.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			cur.Add(-1)
			return nil
		}})
	}
	wg.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestPoolSkipsCancelledTasks(t *testing.T) {
	p := NewPool(1, time.Second)
	defer p.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var ran atomic.Bool
	p.Submit(Task{Ctx: ctx, Work: func(context.Context) error {
		ran.Store(true)
		return nil
	}})

	done := make(chan struct{})
	p.Submit(Task{Ctx: context.Background(), Work: func(context.Context) error {
		close(done)
		return nil
	}})
	<-done
	assert.False(t, ran.Load())
}

func TestPoolTaskTimeout(t *testing.T) {
	p := NewPool(1, 10*time.Millisecond)
	defer p.Shutdown()

	errs := make(chan error, 1)
	p.Submit(Task{Ctx: context.Background(), Work: func(ctx context.Context) error {
		<-ctx.Done()
		errs <- ctx.Err()
		return ctx.Err()
	}})
	require.ErrorIs(t, <-errs, context.DeadlineExceeded)
}

func TestShutdownCancelsRunningTasks(t *testing.T) {
	p := NewPool(1, time.Minute)

	started := make(chan struct{})
	p.Submit(Task{Ctx: context.Background(), Work: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}})
	<-started
	p.Shutdown()
	p.Shutdown()

	// Dropped silently once closed.
	p.Submit(Task{Ctx: context.Background(), Work: func(context.Context) error {
		t.Error("task ran after shutdown")
		return nil
	}})
}
