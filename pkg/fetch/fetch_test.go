package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetchRateLimitRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		if n == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	start := time.Now()
	res := c.Fetch(context.Background(), srv.URL, Options{MaxRetries: 3, BackoffStartMs: 100})
	elapsed := time.Since(start)

	if res.Err != nil {
		t.Fatalf("expected success, got error: %v", res.Err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected final status 200, got %d", res.StatusCode)
	}
	if !res.RateLimited {
		t.Fatalf("expected RateLimited=true")
	}
	if atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("expected exactly one retry (2 requests), got %d", hits)
	}
	if elapsed < time.Second {
		t.Fatalf("expected to honor Retry-After >= 1s, waited only %v", elapsed)
	}
}

func TestFetchClientErrorNoRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	res := c.Fetch(context.Background(), srv.URL, Options{MaxRetries: 3, BackoffStartMs: 10})

	if res.Err == nil {
		t.Fatalf("expected error for 404")
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected no retries on plain 4xx, got %d requests", hits)
	}
}

func TestFetchServerErrorRetriesThenSucceeds(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	res := c.Fetch(context.Background(), srv.URL, Options{MaxRetries: 3, BackoffStartMs: 5})

	if res.Err != nil {
		t.Fatalf("expected eventual success, got %v", res.Err)
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("expected 3 requests (2 failures + success), got %d", hits)
	}
}
