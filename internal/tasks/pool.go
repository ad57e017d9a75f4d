package tasks

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Pool limits.
const (
	DefaultWorkers   = 5
	MaxWorkers       = 10
	DefaultRateLimit = 5.0
)

// PoolOpts configures the worker pool shared by every bulk operation.
type PoolOpts struct {
	Workers   int     // Concurrent workers (default: 5, max: 10)
	RateLimit float64 // Jobs started per second (default: 5)
}

func (o PoolOpts) normalize() PoolOpts {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Workers > MaxWorkers {
		o.Workers = MaxWorkers
	}
	if o.RateLimit <= 0 {
		o.RateLimit = DefaultRateLimit
	}
	return o
}

type job[T any] struct {
	index int
	item  T
}

type result[R any] struct {
	index int
	value R
}

// runPool applies fn to every item on opts.Workers goroutines, starting at
// most opts.RateLimit jobs per second. collect runs on the calling goroutine
// once per finished job, in completion order.
//
// Items not yet started when ctx ends are skipped.
func runPool[T, R any](ctx context.Context, items []T, opts PoolOpts, fn func(context.Context, T) R, collect func(index int, value R)) {
	opts = opts.normalize()
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan job[T], len(items))
	results := make(chan result[R], len(items))

	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					return
				}
				results <- result[R]{index: j.index, value: fn(ctx, j.item)}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, item := range items {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			jobs <- job[T]{index: i, item: item}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		collect(res.index, res.value)
	}
}
