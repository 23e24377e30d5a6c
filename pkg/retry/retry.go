// Package retry factors the "bounded exponential retry, honor Retry-After,
// otherwise jittered exponential backoff" policy into the single
// higher-order helper spec.md's Design Notes ask for, used by pkg/fetch
// (C1); pkg/llm (C7) keeps its own linear retry loop. Built on
// github.com/cenkalti/backoff/v5, generalizing the jittered-backoff math
// from the teacher's pkg/scheduler/core.go calculateBackoff helper.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Action is what the classifier decided to do with an attempt's error.
type Action int

const (
	// Stop means the error is permanent; do not retry.
	Stop Action = iota
	// RetryBackoff means retry after the policy's jittered exponential wait.
	RetryBackoff
	// RetryAfter means retry after an explicit wait (e.g. a parsed
	// Retry-After header), bypassing the exponential schedule for this
	// attempt only.
	RetryAfter
)

// Decision is what a Classifier returns for a given error.
type Decision struct {
	Action Action
	Wait   time.Duration // only consulted when Action == RetryAfter
}

// Classifier inspects the error from one attempt and decides how to
// proceed. A nil error is never passed to a Classifier — Do only consults
// it on failure.
type Classifier func(err error) Decision

// Config parameterizes the backoff schedule.
type Config struct {
	MaxAttempts  int           // total attempts including the first; 0 means 1 (no retry)
	BackoffStart time.Duration // base delay for attempt 0 -> 1
	MaxBackoff   time.Duration // cap on the exponential wait, before jitter
	MaxElapsed   time.Duration // 0 means unbounded
}

// jitteredBackOff implements backoff.BackOff, computing
// backoffStart * 2^attempt with +/-20% jitter, capped at MaxBackoff. When
// override is set (via a RetryAfter decision), the next call to
// NextBackOff consumes it instead of the computed value.
type jitteredBackOff struct {
	cfg      Config
	attempt  int
	override time.Duration
	hasOverride bool
}

func (b *jitteredBackOff) NextBackOff() time.Duration {
	if b.hasOverride {
		b.hasOverride = false
		b.attempt++
		return b.override
	}
	d := b.cfg.BackoffStart * (1 << uint(b.attempt))
	if b.cfg.MaxBackoff > 0 && d > b.cfg.MaxBackoff {
		d = b.cfg.MaxBackoff
	}
	jitter := time.Duration(float64(d) * (0.8 + 0.4*rand.Float64()))
	b.attempt++
	return jitter
}

func (b *jitteredBackOff) setOverride(d time.Duration) {
	b.override = d
	b.hasOverride = true
}

// Do runs fn, retrying according to cfg and classify until it succeeds, the
// classifier says Stop, or attempts/elapsed time are exhausted. fn receives
// the zero-based attempt number.
func Do[T any](ctx context.Context, cfg Config, classify Classifier, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	bo := &jitteredBackOff{cfg: cfg}
	attempt := 0

	operation := func() (T, error) {
		v, err := fn(ctx, attempt)
		attempt++
		if err == nil {
			return v, nil
		}
		decision := classify(err)
		switch decision.Action {
		case Stop:
			return v, backoff.Permanent(err)
		case RetryAfter:
			bo.setOverride(decision.Wait)
			return v, err
		default:
			return v, err
		}
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(cfg.MaxAttempts)),
	}
	if cfg.MaxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(cfg.MaxElapsed))
	}

	return backoff.Retry(ctx, operation, opts...)
}

// ErrPermanent can be wrapped around any error to force an immediate stop
// from a Classifier without constructing a Decision literal inline.
var ErrPermanent = errors.New("retry: permanent failure")
