// Package fetch implements the rate-limited fetcher (C1): single-request
// retry/backoff via pkg/retry, and a bounded-concurrency batch variant.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"jobradar/pkg/retry"
)

// Result is the fetcher's public contract output (spec.md §4.1).
type Result struct {
	Data           []byte
	Err            error
	StatusCode     int
	RateLimited    bool
	ResponseTimeMs int64
}

// Options configures one Fetch call.
type Options struct {
	Method         string
	Body           []byte
	Headers        map[string]string
	Timeout        time.Duration
	MaxRetries     int
	BackoffStartMs int
}

// Client wraps *http.Client with the retry policy.
type Client struct {
	httpClient *http.Client
}

func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{httpClient: httpClient}
}

type fetchError struct {
	err        error
	retryable  bool
	retryAfter time.Duration
}

func (e *fetchError) Error() string { return e.err.Error() }
func (e *fetchError) Unwrap() error { return e.err }

// Fetch performs one HTTP request, retrying per spec.md §4.1: honor
// Retry-After on 429, exponential-with-jitter on 5xx and network errors,
// fail immediately on other 4xx. Body reading is bound by the same
// per-attempt timeout as the headers, via context.WithTimeout around the
// whole round trip.
func (c *Client) Fetch(ctx context.Context, url string, opts Options) Result {
	if opts.Method == "" {
		opts.Method = http.MethodGet
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BackoffStartMs <= 0 {
		opts.BackoffStartMs = 500
	}

	cfg := retry.Config{
		MaxAttempts:  opts.MaxRetries + 1,
		BackoffStart: time.Duration(opts.BackoffStartMs) * time.Millisecond,
		MaxBackoff:   30 * time.Second,
	}

	var rateLimited bool
	var lastStatus int
	start := time.Now()

	classify := func(err error) retry.Decision {
		var fe *fetchError
		if e, ok := err.(*fetchError); ok {
			fe = e
		}
		if fe == nil {
			return retry.Decision{Action: retry.Stop}
		}
		if fe.retryAfter > 0 {
			return retry.Decision{Action: retry.RetryAfter, Wait: fe.retryAfter}
		}
		if fe.retryable {
			return retry.Decision{Action: retry.RetryBackoff}
		}
		return retry.Decision{Action: retry.Stop}
	}

	data, err := retry.Do(ctx, cfg, classify, func(ctx context.Context, attempt int) ([]byte, error) {
		reqCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		defer cancel()

		var body io.Reader
		if opts.Body != nil {
			body = bytes.NewReader(opts.Body)
		}
		req, err := http.NewRequestWithContext(reqCtx, opts.Method, url, body)
		if err != nil {
			return nil, &fetchError{err: fmt.Errorf("fetch: build request: %w", err), retryable: false}
		}
		for k, v := range opts.Headers {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, &fetchError{err: fmt.Errorf("fetch: %w", err), retryable: true}
		}
		defer resp.Body.Close()
		lastStatus = resp.StatusCode

		if resp.StatusCode == http.StatusTooManyRequests {
			rateLimited = true
			wait := parseRetryAfter(resp.Header.Get("Retry-After"), opts.BackoffStartMs, attempt)
			return nil, &fetchError{
				err:        fmt.Errorf("fetch: rate limited (429)"),
				retryable:  true,
				retryAfter: wait,
			}
		}
		if resp.StatusCode >= 500 {
			return nil, &fetchError{err: fmt.Errorf("fetch: server error %d", resp.StatusCode), retryable: true}
		}
		if resp.StatusCode >= 400 {
			return nil, &fetchError{err: fmt.Errorf("fetch: client error %d", resp.StatusCode), retryable: false}
		}

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &fetchError{err: fmt.Errorf("fetch: read body: %w", err), retryable: true}
		}
		return b, nil
	})

	return Result{
		Data:           data,
		Err:            err,
		StatusCode:     lastStatus,
		RateLimited:    rateLimited,
		ResponseTimeMs: time.Since(start).Milliseconds(),
	}
}

// parseRetryAfter reads a Retry-After header (seconds form). When absent or
// unparseable it returns 0, signalling the caller should fall back to the
// jittered exponential schedule instead of an explicit wait.
func parseRetryAfter(header string, backoffStartMs, attempt int) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
