package concurrency

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAllNoLostInputs(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	oks, errs := RunAll(context.Background(), items, 3, func(_ context.Context, n int) (int, error) {
		if n%3 == 0 {
			return 0, errors.New("divisible by three")
		}
		return n * 10, nil
	})

	assert.Len(t, oks, 6)
	assert.Len(t, errs, 2)
	assert.Equal(t, []int{10, 20, 40, 50, 70, 80}, oks)
	assert.Equal(t, 3, errs[0].Input)
	assert.Equal(t, 6, errs[1].Input)
}

func TestRunAllBoundsConcurrency(t *testing.T) {
	var inFlight, peak int64
	items := make([]int, 20)

	RunAll(context.Background(), items, 4, func(_ context.Context, _ int) (struct{}, error) {
		cur := atomic.AddInt64(&inFlight, 1)
		for {
			old := atomic.LoadInt64(&peak)
			if cur <= old || atomic.CompareAndSwapInt64(&peak, old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return struct{}{}, nil
	})

	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(4))
}

func TestRunAllEmpty(t *testing.T) {
	oks, errs := RunAll(context.Background(), nil, 2, func(_ context.Context, n int) (int, error) {
		return n, nil
	})
	assert.Empty(t, oks)
	assert.Empty(t, errs)
}

func TestRunAllCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	oks, errs := RunAll(ctx, []int{1, 2, 3}, 1, func(ctx context.Context, n int) (int, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return n, nil
	})

	assert.Equal(t, 3, len(oks)+len(errs))
}

func TestWorkerPoolRunsTasks(t *testing.T) {
	pool := NewWorkerPool(2)
	var count int64
	for i := 0; i < 10; i++ {
		require.True(t, pool.Submit(func() {
			atomic.AddInt64(&count, 1)
		}))
	}
	pool.Shutdown(time.Second)
	assert.Equal(t, int64(10), atomic.LoadInt64(&count))
}

func TestSemaphore(t *testing.T) {
	sem := NewSemaphore(1)
	require.NoError(t, sem.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, sem.Acquire(ctx))

	sem.Release()
	assert.NoError(t, sem.Acquire(context.Background()))
}

func TestSemaphoreTryAcquire(t *testing.T) {
	sem := NewSemaphore(1)
	require.True(t, sem.TryAcquire())
	assert.False(t, sem.TryAcquire())

	sem.Release()
	assert.True(t, sem.TryAcquire())
}
