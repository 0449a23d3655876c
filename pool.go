package labelmerge

import (
	"context"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps workers; page decoding and label compositing are
	// CPU-bound, so more workers than cores only adds contention.
	MaxPoolSize = 8

	// DefaultPoolSize is used when the caller does not choose.
	DefaultPoolSize = 4

	// sequentialThreshold is the batch size below which pool start-up
	// costs more than parallelism saves.
	sequentialThreshold = 20
)

// ResolvePoolSize determines the worker count.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Exported for use by servers and CLIs.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		if workers > MaxPoolSize {
			return MaxPoolSize
		}
		return workers
	}

	// automaxprocs adjusts GOMAXPROCS for containers before this runs.
	n := runtime.GOMAXPROCS(0)
	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}

// runOrdered applies fn to every input on a bounded worker pool and
// collects results in input order, not finish order. Inputs are
// immutable and independently owned; no shared mutable state crosses
// worker boundaries — aggregation happens only here.
//
// Batches below sequentialThreshold run on the calling goroutine. The
// first fn error cancels the rest of the batch and is returned.
func runOrdered[T, R any](ctx context.Context, inputs []T, workers int, fn func(ctx context.Context, index int, in T) (R, error)) ([]R, error) {
	results := make([]R, len(inputs))
	if len(inputs) == 0 {
		return results, nil
	}

	if len(inputs) < sequentialThreshold || workers <= 1 {
		for i, in := range inputs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r, err := fn(ctx, i, in)
			if err != nil {
				return nil, err
			}
			results[i] = r
		}
		return results, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type job struct {
		index int
		in    T
	}
	jobs := make(chan job)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				r, err := fn(ctx, j.index, j.in)
				if err != nil {
					errOnce.Do(func() {
						firstErr = err
						cancel()
					})
					return
				}
				// Each worker writes only its own slot: no lock needed.
				results[j.index] = r
			}
		}()
	}

feed:
	for i, in := range inputs {
		select {
		case jobs <- job{index: i, in: in}:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, ctx.Err()
}
