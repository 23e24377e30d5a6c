// Package cleanup implements the `cleanup-expired` CLI subcommand from
// spec.md §6: HEAD (falling back to GET) every recently-active canonical
// job's URL and mark it expired on a 404/410 or an expired-posting phrase
// in the response body. Grounded on pkg/fetch's retrying *http.Client
// wrapper (C1) and pkg/fetch.BatchFetch's bounded-concurrency pattern,
// reused here instead of hand-rolling a second HTTP client.
package cleanup

import (
	"bytes"
	"context"
	"time"

	"go.uber.org/zap"

	"jobradar/pkg/fetch"
	"jobradar/pkg/models"
	"jobradar/pkg/storage"
)

// expiredPhrases are case-insensitive body snippets that indicate a
// posting page rendered an "expired"/"closed" state instead of a 404/410.
// Job boards frequently return 200 for a dead posting and show this
// message instead, so status-code-only detection misses most of them.
var expiredPhrases = [][]byte{
	[]byte("no longer accepting applications"),
	[]byte("position has been filled"),
	[]byte("job posting has expired"),
	[]byte("this job is no longer available"),
	[]byte("posting has closed"),
	[]byte("job not found"),
}

// checkBodyBytes bounds how much of a response body is scanned for an
// expired-posting phrase; postings pages rarely bury the notice past the
// first few KB of rendered HTML.
const checkBodyBytes = 64 * 1024

// Options configures one cleanup pass.
type Options struct {
	MaxAgeDays  int // only jobs first seen within this window are checked
	Concurrency int
	Timeout     time.Duration
}

// Result tallies one pass.
type Result struct {
	Checked int
	Expired int
	Errored int
}

// Run implements spec.md §6's `cleanup-expired`: HEAD+GET URLs of recent
// active jobs, mark `expired` on 404/410 or an expired-posting phrase.
func Run(ctx context.Context, store storage.Store, client *fetch.Client, opts Options, log *zap.Logger) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 10
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxAgeDays <= 0 {
		opts.MaxAgeDays = 90
	}

	jobs, err := store.GetRecentActive(ctx, opts.MaxAgeDays)
	if err != nil {
		return Result{}, err
	}

	active := make([]models.CanonicalJob, 0, len(jobs))
	for _, j := range jobs {
		if j.Status == models.StatusActive {
			active = append(active, j)
		}
	}

	outcomes := fetch.BatchFetch(ctx, active, func(ctx context.Context, job models.CanonicalJob) bool {
		return isExpired(ctx, client, job.URL, opts.Timeout)
	}, fetch.BatchOptions{BatchSize: opts.Concurrency})

	var res Result
	for i, expired := range outcomes {
		res.Checked++
		if !expired {
			continue
		}
		if err := store.UpdateStatus(ctx, active[i].ID, models.StatusExpired); err != nil {
			res.Errored++
			log.Warn("cleanup: mark expired failed", zap.String("jobId", active[i].ID.String()), zap.Error(err))
			continue
		}
		res.Expired++
	}

	return res, nil
}

// isExpired HEADs the URL first (cheapest signal), falling back to a GET
// when the HEAD itself fails or the server doesn't support it (405/501),
// since those carriers can't be trusted to reflect the real resource state.
func isExpired(ctx context.Context, client *fetch.Client, url string, timeout time.Duration) bool {
	head := client.Fetch(ctx, url, fetch.Options{Method: "HEAD", Timeout: timeout, MaxRetries: 0})
	if head.StatusCode == 404 || head.StatusCode == 410 {
		return true
	}
	if head.Err == nil && head.StatusCode != 405 && head.StatusCode != 501 && head.StatusCode != 0 {
		return false
	}

	get := client.Fetch(ctx, url, fetch.Options{Method: "GET", Timeout: timeout, MaxRetries: 1})
	if get.StatusCode == 404 || get.StatusCode == 410 {
		return true
	}
	if get.Err != nil {
		return false
	}
	return containsExpiredPhrase(get.Data)
}

func containsExpiredPhrase(body []byte) bool {
	if len(body) > checkBodyBytes {
		body = body[:checkBodyBytes]
	}
	lower := bytes.ToLower(body)
	for _, phrase := range expiredPhrases {
		if bytes.Contains(lower, bytes.ToLower(phrase)) {
			return true
		}
	}
	return false
}
