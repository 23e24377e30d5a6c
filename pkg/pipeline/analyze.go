package pipeline

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobradar/pkg/fetch"
	"jobradar/pkg/metrics"
	"jobradar/pkg/models"
)

// aiTask pairs a newly-inserted canonical job with the raw description text
// the fit analyzer needs; CanonicalJob itself carries no content field.
type aiTask struct {
	job         *models.CanonicalJob
	description string
}

// analyzeAll implements spec.md §4.8 step 7: run the fit analyzer over every
// enqueued job, bounded to the key pool's size so no more requests run
// concurrently than there are provider keys to serve them. A failed
// analysis is logged and simply omitted from the result map; it never
// fails the run.
func (o *Orchestrator) analyzeAll(ctx context.Context, tasks []aiTask) map[uuid.UUID]*models.FitAnalysis {
	analyses := make(map[uuid.UUID]*models.FitAnalysis, len(tasks))
	if len(tasks) == 0 || o.deps.Analyzer == nil {
		return analyses
	}

	concurrency := 1
	if o.deps.Analyzer.Pool != nil && o.deps.Analyzer.Pool.Size() > concurrency {
		concurrency = o.deps.Analyzer.Pool.Size()
	}

	results := fetch.BatchFetch(ctx, tasks, func(ctx context.Context, t aiTask) *models.FitAnalysis {
		analysis, err := o.deps.Analyzer.Analyze(ctx, t.job.Title, t.job.Company, t.description, o.deps.Resume)
		if err != nil || analysis == nil {
			metrics.RecordFitAnalysis("failed")
			o.deps.Log.Warn("pipeline: fit analysis failed", zap.String("jobId", t.job.ID.String()), zap.Error(err))
			return nil
		}
		outcome := "success"
		if analysis.Provider == "fallback" {
			outcome = "fallback"
		}
		metrics.RecordFitAnalysis(outcome)
		analysis.CanonicalJobID = t.job.ID
		if err := o.deps.Store.UpsertFitAnalysis(ctx, analysis); err != nil {
			o.deps.Log.Warn("pipeline: persist fit analysis failed", zap.String("jobId", t.job.ID.String()), zap.Error(err))
		}
		return analysis
	}, fetch.BatchOptions{BatchSize: concurrency})

	for i, analysis := range results {
		if analysis != nil {
			analyses[tasks[i].job.ID] = analysis
		}
	}
	return analyses
}

// dispatchAlerts implements spec.md §4.8 step 8: send one alert per
// top-priority/include job, attaching its fit analysis when one exists. A
// delivery failure is the notifier's concern (it owns its own retry queue)
// and never counted against alertSuccesses.
func (o *Orchestrator) dispatchAlerts(ctx context.Context, jobs []*models.CanonicalJob, analyses map[uuid.UUID]*models.FitAnalysis) int {
	if o.deps.Notifier == nil {
		return 0
	}

	sent := 0
	for _, job := range jobs {
		fit := analyses[job.ID]
		if err := o.deps.Notifier.SendAlert(ctx, job, fit); err != nil {
			o.deps.Log.Warn("pipeline: send alert failed", zap.String("jobId", job.ID.String()), zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}
