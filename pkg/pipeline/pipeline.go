// Package pipeline implements the run orchestrator (C8, spec.md §4.8):
// one invocation produces one RunLog, driving connectors, normalizing,
// deduplicating, scoring, persisting, analyzing, and alerting.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	config "jobradar/configs"
	"jobradar/pkg/connectors"
	"jobradar/pkg/dedup"
	"jobradar/pkg/llm"
	"jobradar/pkg/models"
	"jobradar/pkg/normalize"
	"jobradar/pkg/notifier"
	"jobradar/pkg/scoring"
	"jobradar/pkg/storage"
)

// RunConnectorOptions selects which connector families a run drives, per
// spec.md §4.8 step 2.
type RunConnectorOptions struct {
	IncludeATS         bool
	IncludeAggregators bool
	IncludeUnderground bool
}

// Source binds one configured source's connector and definition together
// so the orchestrator can dispatch without a type switch per source.
type Source struct {
	Name      string
	Connector connectors.Connector
	Def       config.SourceDef
	Companies []string
	Category  string // "ats" | "aggregator" | "underground"
}

// Deps are the orchestrator's collaborators (C1-C7, notifier, store).
type Deps struct {
	Store    storage.Store
	Sources  []Source
	Boards   storage.BoardStore
	Config   Config
	Analyzer *llm.Analyzer
	Resume   string
	Notifier notifier.Notifier
	Log      *zap.Logger
}

// Config holds the orchestrator's scoring/filtering config, loaded once
// by the cmd entrypoint.
type Config struct {
	Scoring            config.ScoringConfig
	Locations          config.LocationsConfig
	Modes              config.ModesConfig
	Titles             config.TitleFilters
	AIAnalysisMinScore int
	DedupWindowDays    int
	BatchSize          int
	TimeZone           *time.Location
}

// Orchestrator drives one pipeline run at a time (C8 + the single-flight
// guard from C9's §5 concurrency model).
type Orchestrator struct {
	deps Deps
}

func New(deps Deps) *Orchestrator {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &Orchestrator{deps: deps}
}

// Result summarizes one completed run for the caller (scheduler/CLI).
type Result struct {
	RunID  uuid.UUID
	Status models.RunStatus
	Counts models.Counts
	Errors []string
}

// Run executes the full 10-step pipeline from spec.md §4.8. A failure in
// any single job is recorded in errs/parseFailures and never aborts the
// run; only a failure creating or finishing the RunLog itself returns an
// error.
func (o *Orchestrator) Run(ctx context.Context, runType models.RunType, dryRun, isBackfill bool, opts RunConnectorOptions) (Result, error) {
	run := &models.RunLog{
		Type:       runType,
		DryRun:     dryRun,
		IsBackfill: isBackfill,
		Status:     models.RunStatusRunning,
	}
	if err := o.deps.Store.CreateRun(ctx, run); err != nil {
		return Result{}, fmt.Errorf("pipeline: create run: %w", err)
	}

	counts := models.Counts{}
	var errs []string
	addErr := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	// Step 2-3: drive connectors and accumulate per-source stats.
	connectorResults := o.driveConnectors(ctx, opts)
	accumulators := o.accumulate(ctx, connectorResults, counts)

	// Step 4: load the fuzzy dedup index once for the whole run.
	index, err := dedup.BuildIndex(ctx, o.deps.Store, o.deps.Config.DedupWindowDays)
	if err != nil {
		addErr("build dedup index: %v", err)
		index = &dedup.Index{}
	}

	var aiQueue []aiTask
	var alertQueue []*models.CanonicalJob
	now := time.Now()

	// Step 5: per-raw-job processing, sequential (serialized writer).
	for _, nr := range connectorResults {
		acc := accumulators[nr.sourceName]
		for _, raw := range nr.result.Jobs {
			candidate, description, isNew, isDuplicate, enqueueAI, enqueueAlert, procErr := o.processOne(ctx, raw, index, counts, isBackfill, now)
			if procErr != nil {
				addErr("%s/%s: %v", raw.Source, raw.SourceJobID, procErr)
				counts["parseFailures"]++
				if acc != nil {
					acc.parseFailures++
				}
				continue
			}
			if acc != nil {
				if isNew {
					acc.jobsNew++
				}
				if isDuplicate {
					acc.jobsDuplicate++
				}
			}
			if candidate == nil {
				continue
			}
			if enqueueAI {
				aiQueue = append(aiQueue, aiTask{job: candidate, description: description})
			}
			if enqueueAlert {
				alertQueue = append(alertQueue, candidate)
			}
		}
	}

	// Step 6: drop the fuzzy index (nothing further references it; it
	// goes out of scope here).
	index = nil

	// Step 7: fit analyzer over the enqueued set.
	analyses := o.analyzeAll(ctx, aiQueue)

	// Step 8: dispatch alerts.
	alertSuccesses := o.dispatchAlerts(ctx, alertQueue, analyses)
	counts["alertsSent"] = alertSuccesses

	// Step 9: commit per-source daily metrics.
	o.commitMetrics(ctx, accumulators, now)

	status := models.RunStatusCompleted
	if len(errs) > 0 && counts["jobsFound"] == 0 {
		status = models.RunStatusFailed
	}

	if err := o.deps.Store.FinishRun(ctx, run.ID, status, counts, errs); err != nil {
		return Result{}, fmt.Errorf("pipeline: finish run: %w", err)
	}

	return Result{RunID: run.ID, Status: status, Counts: counts, Errors: errs}, nil
}

// Replay re-runs normalize/dedup/score/persist/analyze/alert over the
// RawJobs already stored for one source/date, without re-inserting them or
// re-fetching from the source — spec.md §6's `replay --date --source`,
// used to recover from a normalization or scoring bug after the fact.
func (o *Orchestrator) Replay(ctx context.Context, source string, date time.Time) (Result, error) {
	run := &models.RunLog{Type: models.RunTypeReplay, Status: models.RunStatusRunning}
	if err := o.deps.Store.CreateRun(ctx, run); err != nil {
		return Result{}, fmt.Errorf("pipeline: create replay run: %w", err)
	}

	raws, err := o.deps.Store.GetRawJobsBySourceDate(ctx, source, date)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline: replay fetch raw jobs: %w", err)
	}

	counts := models.Counts{}
	var errs []string
	addErr := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	index, err := dedup.BuildIndex(ctx, o.deps.Store, o.deps.Config.DedupWindowDays)
	if err != nil {
		addErr("build dedup index: %v", err)
		index = &dedup.Index{}
	}

	var aiQueue []aiTask
	var alertQueue []*models.CanonicalJob
	now := time.Now()

	for _, raw := range raws {
		candidate, description, _, _, enqueueAI, enqueueAlert, procErr := o.processRaw(ctx, raw, index, counts, false, now, true)
		if procErr != nil {
			addErr("%s/%s: %v", raw.Source, raw.SourceJobID, procErr)
			counts["parseFailures"]++
			continue
		}
		if candidate == nil {
			continue
		}
		if enqueueAI {
			aiQueue = append(aiQueue, aiTask{job: candidate, description: description})
		}
		if enqueueAlert {
			alertQueue = append(alertQueue, candidate)
		}
	}

	analyses := o.analyzeAll(ctx, aiQueue)
	alertSuccesses := o.dispatchAlerts(ctx, alertQueue, analyses)
	counts["alertsSent"] = alertSuccesses

	status := models.RunStatusCompleted
	if len(errs) > 0 && counts["jobsFound"] == 0 {
		status = models.RunStatusFailed
	}
	if err := o.deps.Store.FinishRun(ctx, run.ID, status, counts, errs); err != nil {
		return Result{}, fmt.Errorf("pipeline: finish replay run: %w", err)
	}

	return Result{RunID: run.ID, Status: status, Counts: counts, Errors: errs}, nil
}

// processOne implements spec.md §4.8 step 5 for a single RawJob: insert,
// normalize, dedup, score, persist, and decide AI/alert eligibility.
func (o *Orchestrator) processOne(ctx context.Context, raw models.RawJob, index *dedup.Index, counts models.Counts, isBackfill bool, now time.Time) (candidate *models.CanonicalJob, description string, isNew, isDuplicate, enqueueAI, enqueueAlert bool, err error) {
	return o.processRaw(ctx, raw, index, counts, isBackfill, now, false)
}

// processRaw is processOne generalized with a skipInsert flag: `replay`
// (spec.md §6) re-runs normalize/dedup/score/persist over RawJobs that are
// already stored, and must not re-insert them.
func (o *Orchestrator) processRaw(ctx context.Context, raw models.RawJob, index *dedup.Index, counts models.Counts, isBackfill bool, now time.Time, skipInsert bool) (candidate *models.CanonicalJob, description string, isNew, isDuplicate, enqueueAI, enqueueAlert bool, err error) {
	counts["jobsFound"]++

	if !skipInsert {
		if _, err = o.deps.Store.InsertRawJob(ctx, &raw); err != nil {
			return nil, "", false, false, false, false, fmt.Errorf("insert raw job: %w", err)
		}
	}

	bucket := normalize.TitleBucket(raw.Title, o.deps.Config.Titles)
	if bucket == models.TitleBucketReject {
		counts["rejects"]++
		return nil, "", false, false, false, false, nil
	}

	locResult := normalize.LocationTier(raw.LocationRaw, o.deps.Config.Locations)
	mode := normalize.WorkMode(raw.Content, raw.LocationRaw, o.deps.Config.Modes, locResult.Tier)
	postedAt, confidence := normalize.Timestamp(raw.PostedAtRaw, raw.Content, o.deps.Config.TimeZone, now)
	urlHash := normalize.URLHash(raw.URL)
	fingerprint := normalize.ContentFingerprint(raw.Content)

	candidate = &models.CanonicalJob{
		RawJobID:           raw.ID,
		Source:             raw.Source,
		Title:              raw.Title,
		Company:            normalize.Company(raw.Company),
		URL:                raw.URL,
		URLHash:            urlHash,
		ContentFingerprint: fingerprint,
		Province:           locResult.Province,
		City:               locResult.City,
		LocationTier:       locResult.Tier,
		WorkMode:           mode,
		TitleBucket:        bucket,
		PostedAt:           postedAt,
		PostedAtConfidence: confidence,
		Status:             models.StatusActive,
		IsBackfill:         isBackfill,
	}

	outcome, err := dedup.Check(ctx, o.deps.Store, index, candidate, now)
	if err != nil {
		return nil, "", false, false, false, false, fmt.Errorf("dedup check: %w", err)
	}

	if outcome.IsDuplicate {
		counts["duplicates"]++
		if outcome.ExistingJobID != uuid.Nil && outcome.ExistingSource != raw.Source {
			_ = o.deps.Store.InsertAlternateURL(ctx, &models.AlternateURL{
				CanonicalJobID: outcome.ExistingJobID,
				Source:         raw.Source,
				URL:            raw.URL,
			})
		}
		return nil, "", false, true, false, false, nil
	}

	if outcome.IsRepost {
		candidate.IsReposted = true
		candidate.OriginalPostDate = outcome.OriginalPostDate
	}

	result := scoring.Score(candidate, now, o.deps.Config.Scoring, o.deps.Config.Locations, o.deps.Config.Modes)
	candidate.ScoreFreshness = result.Freshness
	candidate.ScoreLocation = result.Location
	candidate.ScoreMode = result.Mode
	candidate.Score = result.Total
	candidate.ScoreBand = result.Band

	if err := o.deps.Store.InsertCanonicalJob(ctx, candidate); err != nil {
		return nil, "", false, false, false, false, fmt.Errorf("insert canonical job: %w", err)
	}
	counts["jobsNew"]++

	if outcome.IsPotentialDuplicate {
		_ = o.deps.Store.InsertDuplicateLink(ctx, &models.JobDuplicate{
			NewJobID:      candidate.ID,
			ExistingJobID: outcome.ExistingJobID,
			Method:        outcome.Method,
			Similarity:    outcome.Similarity,
			IsPotential:   true,
		})
	}

	enqueueAI = candidate.Score >= o.deps.Config.AIAnalysisMinScore && !isBackfill
	enqueueAlert = candidate.ScoreBand == models.ScoreBandTopPriority && candidate.TitleBucket == models.TitleBucketInclude && !isBackfill

	return candidate, raw.Content, true, false, enqueueAI, enqueueAlert, nil
}
