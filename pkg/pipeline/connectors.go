package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"jobradar/pkg/connectors"
	"jobradar/pkg/fetch"
	"jobradar/pkg/metrics"
	"jobradar/pkg/models"
)

// namedResult pairs a ConnectorResult with the source name it belongs to,
// since ConnectorResult itself only carries Source/Company.
type namedResult struct {
	sourceName string
	category   string
	result     connectors.ConnectorResult
}

// driveConnectors implements spec.md §4.8 step 2: per enabled source,
// collect discovered boards matching its platform, merge with seed
// companies, and batch-fetch. Connector dispatch is sequential across
// sources but parallel within a source via fetch.BatchFetch (spec.md §5).
func (o *Orchestrator) driveConnectors(ctx context.Context, opts RunConnectorOptions) []namedResult {
	var out []namedResult

	for _, src := range o.deps.Sources {
		if !categoryEnabled(src.Category, opts) {
			continue
		}

		companies := src.Companies
		if o.deps.Boards != nil {
			if boards, err := o.deps.Boards.GetActiveByPlatform(ctx, src.Def.Platform); err == nil {
				for _, b := range boards {
					companies = append(companies, b.BoardSlug)
				}
			}
		}
		companies = dedupeStrings(companies)
		// A source with no company list (the search connectors) is fetched
		// once with an empty company.
		if len(companies) == 0 {
			companies = []string{""}
		}

		batchSize := src.Def.RateLimiting.BatchSize
		if batchSize <= 0 {
			batchSize = o.deps.Config.BatchSize
		}

		results := fetch.BatchFetch(ctx, companies, func(ctx context.Context, company string) connectors.ConnectorResult {
			return src.Connector.Fetch(ctx, company, src.Def)
		}, fetch.BatchOptions{
			BatchSize:    batchSize,
			BatchPauseMs: src.Def.RateLimiting.BatchPauseMs,
		})

		for _, r := range results {
			out = append(out, namedResult{sourceName: src.Name, category: src.Category, result: r})
			metrics.RecordFetch(src.Name, fetchOutcome(r), r.ResponseTimeMs)
		}
	}

	return out
}

// fetchOutcome labels a ConnectorResult for the connector fetch counter.
func fetchOutcome(r connectors.ConnectorResult) string {
	switch {
	case r.RateLimited:
		return "rate_limited"
	case !r.Success:
		return "error"
	default:
		return "success"
	}
}

func categoryEnabled(category string, opts RunConnectorOptions) bool {
	switch category {
	case "ats":
		return opts.IncludeATS
	case "aggregator":
		return opts.IncludeAggregators
	case "underground":
		return opts.IncludeUnderground
	default:
		return false
	}
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// sourceAccumulator tallies one source's per-run stats for the
// end-of-run metrics commit and the repeated-failure alert.
type sourceAccumulator struct {
	jobsFound           int
	jobsNew             int
	jobsDuplicate       int
	parseFailures       int
	rateLimitHits       int
	responseTimeTotal   int64
	responseTimeCount   int
	successes           int
	attempts            int
	consecutiveFailures int
}

// accumulate implements spec.md §4.8 step 3: tally jobsFound, response
// times, and rate-limit hits per source, and emit a system alert via the
// notifier on every third consecutive failure (3, 6, 9, ...).
func (o *Orchestrator) accumulate(ctx context.Context, results []namedResult, counts models.Counts) map[string]*sourceAccumulator {
	accs := make(map[string]*sourceAccumulator)

	for _, nr := range results {
		acc, ok := accs[nr.sourceName]
		if !ok {
			acc = &sourceAccumulator{}
			accs[nr.sourceName] = acc
		}

		acc.attempts++
		acc.jobsFound += len(nr.result.Jobs)
		acc.responseTimeTotal += nr.result.ResponseTimeMs
		acc.responseTimeCount++
		if nr.result.RateLimited {
			acc.rateLimitHits++
		}

		if nr.result.Success {
			acc.successes++
			acc.consecutiveFailures = 0
		} else {
			acc.consecutiveFailures++
			if acc.consecutiveFailures >= 3 && acc.consecutiveFailures%3 == 0 {
				msg := fmt.Sprintf("source %q has failed %d times in a row: %v", nr.sourceName, acc.consecutiveFailures, nr.result.Error)
				if o.deps.Notifier != nil {
					if err := o.deps.Notifier.SendSystemAlert(ctx, msg); err != nil {
						o.deps.Log.Warn("pipeline: system alert send failed", zap.Error(err))
					}
				}
			}
		}
	}

	return accs
}

// commitMetrics implements spec.md §4.8 step 9: additive upsert per
// (source, date).
func (o *Orchestrator) commitMetrics(ctx context.Context, accs map[string]*sourceAccumulator, now time.Time) {
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for source, acc := range accs {
		avgMs := float64(0)
		if acc.responseTimeCount > 0 {
			avgMs = float64(acc.responseTimeTotal) / float64(acc.responseTimeCount)
		}
		successRate := float64(0)
		if acc.attempts > 0 {
			successRate = float64(acc.successes) / float64(acc.attempts)
		}

		m := models.SourceMetric{
			Source:            source,
			Date:              date,
			JobsFound:         acc.jobsFound,
			JobsNew:           acc.jobsNew,
			JobsDuplicate:     acc.jobsDuplicate,
			ParseFailures:     acc.parseFailures,
			RateLimitHits:     acc.rateLimitHits,
			ResponseTimeAvgMs: avgMs,
			SuccessRate:       successRate,
		}
		if err := o.deps.Store.UpsertSourceMetric(ctx, m); err != nil {
			o.deps.Log.Warn("pipeline: upsert source metric failed", zap.String("source", source), zap.Error(err))
		}

		metrics.JobsFound.WithLabelValues(source).Add(float64(acc.jobsFound))
		metrics.JobsNew.WithLabelValues(source).Add(float64(acc.jobsNew))
		metrics.JobsDuplicate.WithLabelValues(source).Add(float64(acc.jobsDuplicate))
	}
}
