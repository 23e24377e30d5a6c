// Package llm implements the resume-fit analyzer (C7, spec.md §4.7):
// a bounded multi-key concurrency pool, streaming SSE decode, stall/hard-cap
// timeouts, retry-then-fallback-provider, and tolerant response parsing.
package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrPoolTimeout is returned when no key becomes free within the
// acquisition timeout (spec.md §4.7: "default 30s").
var ErrPoolTimeout = errors.New("llm: key pool acquisition timed out")

// defaultAcquireTimeout is the pool's default key-wait timeout.
const defaultAcquireTimeout = 30 * time.Second

// Pool is a FIFO-fair round-robin semaphore over a fixed set of API keys:
// each key is free or busy; when none are free, acquirers queue and the
// release hands the key to the head of the queue. Concurrency across the
// pipeline equals max(1, len(keys)).
type Pool struct {
	mu             sync.Mutex
	keys           []string
	cursor         int
	free           map[string]bool
	waiters        []chan string
	AcquireTimeout time.Duration
}

// NewPool builds a key pool. An empty keys slice still yields a pool of
// size 1 with an empty-string key, so callers needing "max(1, poolSize)"
// concurrency never see zero capacity.
func NewPool(keys []string) *Pool {
	if len(keys) == 0 {
		keys = []string{""}
	}
	free := make(map[string]bool, len(keys))
	for _, k := range keys {
		free[k] = true
	}
	return &Pool{keys: keys, free: free, AcquireTimeout: defaultAcquireTimeout}
}

// Size reports the pool's key count (and hence its max concurrency).
func (p *Pool) Size() int {
	return len(p.keys)
}

// Acquire waits for a free key, returning ErrPoolTimeout if none becomes
// available within AcquireTimeout (or ctx is canceled first).
func (p *Pool) Acquire(ctx context.Context) (string, error) {
	p.mu.Lock()
	for i := 0; i < len(p.keys); i++ {
		idx := (p.cursor + i) % len(p.keys)
		k := p.keys[idx]
		if p.free[k] {
			p.free[k] = false
			p.cursor = (idx + 1) % len(p.keys)
			p.mu.Unlock()
			return k, nil
		}
	}
	waitCh := make(chan string, 1)
	p.waiters = append(p.waiters, waitCh)
	p.mu.Unlock()

	timeout := p.AcquireTimeout
	if timeout <= 0 {
		timeout = defaultAcquireTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case k := <-waitCh:
		return k, nil
	case <-timer.C:
		return "", ErrPoolTimeout
	case <-ctx.Done():
		return "", fmt.Errorf("llm: acquire canceled: %w", ctx.Err())
	}
}

// Release returns a key to the pool, handing it directly to the oldest
// waiter if one is queued.
func (p *Pool) Release(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.waiters) > 0 {
		w := p.waiters[0]
		p.waiters = p.waiters[1:]
		w <- key
		return
	}
	p.free[key] = true
}
