package fetch

import (
	"context"
	"sync"
	"time"
)

// BatchOptions configures BatchFetch (spec.md §4.1's batchFetch variant).
type BatchOptions struct {
	BatchSize              int
	DelayBetweenRequestsMs int // preserved per spec.md §9's Open Question, not used to serialize
	BatchPauseMs           int
	OnProgress             func(completed, total int)
}

// BatchFetch processes items in slices of BatchSize, running every fetch
// within a slice concurrently (isolating one item's failure from its
// siblings — fetchFn must never panic and must encode failure in R),
// sleeping BatchPauseMs between slices. Wall-clock for one slice is close
// to a single fetchFn call's latency, not len(slice) * latency.
func BatchFetch[T any, R any](ctx context.Context, items []T, fetchFn func(context.Context, T) R, opts BatchOptions) []R {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1
	}
	results := make([]R, len(items))
	completed := 0

	for start := 0; start < len(items); start += opts.BatchSize {
		end := start + opts.BatchSize
		if end > len(items) {
			end = len(items)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				results[idx] = fetchFn(ctx, items[idx])
			}(i)
		}
		wg.Wait()

		completed += end - start
		if opts.OnProgress != nil {
			opts.OnProgress(completed, len(items))
		}

		if end < len(items) && opts.BatchPauseMs > 0 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(time.Duration(opts.BatchPauseMs) * time.Millisecond):
			}
		}
	}
	return results
}
