package concurrency

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Failure pairs an input with the error it produced.
type Failure[T any] struct {
	Input T
	Err   error
}

var errPoolStopped = errors.New("worker pool stopped")

// RunAll applies f to every item on a worker pool of the given size. Every
// input is accounted for exactly once: either its result appears in oks or
// the input appears in errs. Order within each slice follows input order.
func RunAll[T, R any](ctx context.Context, items []T, limit int, f func(context.Context, T) (R, error)) (oks []R, errs []Failure[T]) {
	if limit <= 0 {
		limit = 1
	}

	type outcome struct {
		result R
		err    error
	}

	outcomes := make([]outcome, len(items))
	pool := NewWorkerPool(limit)
	var wg sync.WaitGroup

	for i := range items {
		wg.Add(1)
		submitted := pool.Submit(func() {
			defer wg.Done()
			r, err := f(ctx, items[i])
			outcomes[i] = outcome{result: r, err: err}
		})
		if !submitted {
			outcomes[i] = outcome{err: errPoolStopped}
			wg.Done()
		}
	}
	wg.Wait()
	pool.Shutdown(time.Second)

	for i, out := range outcomes {
		if out.err != nil {
			errs = append(errs, Failure[T]{Input: items[i], Err: out.err})
			continue
		}
		oks = append(oks, out.result)
	}
	return oks, errs
}
