package fetch

import (
	"context"
	"testing"
	"time"
)

func TestBatchFetchRunsWithinSliceInParallel(t *testing.T) {
	const n = 8
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}

	latency := 80 * time.Millisecond
	fetchFn := func(ctx context.Context, item int) int {
		time.Sleep(latency)
		return item * item
	}

	start := time.Now()
	results := BatchFetch(context.Background(), items, fetchFn, BatchOptions{BatchSize: n})
	elapsed := time.Since(start)

	if elapsed > latency*2 {
		t.Fatalf("expected parallel completion near %v, took %v", latency, elapsed)
	}
	for i, r := range results {
		if r != i*i {
			t.Fatalf("result[%d] = %d, want %d", i, r, i*i)
		}
	}
}

type fetchOutcome struct {
	value int
	err   error
}

func TestBatchFetchIsolatesFailures(t *testing.T) {
	items := []int{1, 2, 3, 4}
	fetchFn := func(ctx context.Context, item int) fetchOutcome {
		if item == 3 {
			return fetchOutcome{err: errFakeErr{}}
		}
		return fetchOutcome{value: item * 10}
	}

	results := BatchFetch(context.Background(), items, fetchFn, BatchOptions{BatchSize: 2})
	if len(results) != len(items) {
		t.Fatalf("expected one result per input, got %d", len(results))
	}
	for i, item := range items {
		if item == 3 {
			if results[i].err == nil {
				t.Fatalf("expected failure isolated to item 3")
			}
			continue
		}
		if results[i].err != nil {
			t.Fatalf("unexpected error for item %d: %v", item, results[i].err)
		}
		if results[i].value != item*10 {
			t.Fatalf("result[%d] = %d, want %d", i, results[i].value, item*10)
		}
	}
}

type errFakeErr struct{}

func (errFakeErr) Error() string { return "fake failure" }
