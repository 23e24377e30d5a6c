// Package storage defines the persistence contract (C10) the orchestrator
// requires, following the teacher's pkg/storage/interface.go naming
// convention (JobStore/Queue/ExecutionStore) renamed to this domain.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"jobradar/pkg/models"
)

var (
	ErrNotFound = errors.New("storage: record not found")
	ErrConflict = errors.New("storage: record already exists")
)

// JobFilter is the query shape backing GET /api/jobs.
type JobFilter struct {
	Limit    int
	Offset   int
	Band     string
	Bucket   string
	Status   string
	Since    *time.Time
	MinScore *int
	Tiers    []string
}

// WeeklySummary backs GET /api/analytics/weekly.
type WeeklySummary struct {
	TotalFound     int
	TotalNew       int
	TotalDuplicate int
	ByBand         map[string]int
}

// RunLogStore tracks one row per pipeline invocation.
type RunLogStore interface {
	CreateRun(ctx context.Context, run *models.RunLog) error
	FinishRun(ctx context.Context, id uuid.UUID, status models.RunStatus, counts models.Counts, errs []string) error
	LastCompletedRun(ctx context.Context) (*models.RunLog, error)
}

// RawJobStore owns RawJob inserts (via the orchestrator) and replay/purge reads.
type RawJobStore interface {
	InsertRawJob(ctx context.Context, job *models.RawJob) (uuid.UUID, error)
	GetRawJobsBySourceDate(ctx context.Context, source string, date time.Time) ([]models.RawJob, error)
	DeleteRawJobsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CanonicalJobStore is the orchestrator's sole write surface for canonical jobs.
type CanonicalJobStore interface {
	InsertCanonicalJob(ctx context.Context, job *models.CanonicalJob) error
	GetByURLHash(ctx context.Context, hash string) (*models.CanonicalJob, error)
	GetByContentFingerprint(ctx context.Context, fingerprint string) (*models.CanonicalJob, error)
	GetRecentActive(ctx context.Context, sinceDays int) ([]models.CanonicalJob, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.CanonicalJob, error)
	UpdateScore(ctx context.Context, id uuid.UUID, score, freshness, location, mode int, band models.ScoreBand) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.JobStatus) error
	ListJobs(ctx context.Context, filter JobFilter) ([]models.CanonicalJob, error)
	ArchiveOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// DedupStore records the potential-duplicate edges the fuzzy pass writes.
type DedupStore interface {
	InsertDuplicateLink(ctx context.Context, dup *models.JobDuplicate) error
}

// BoardStore owns the DiscoveredBoard registry (discovery, C3).
type BoardStore interface {
	UpsertBoard(ctx context.Context, board *models.DiscoveredBoard) error
	GetActiveByPlatform(ctx context.Context, platform string) ([]models.DiscoveredBoard, error)
	UpdatePollState(ctx context.Context, id uuid.UUID, success bool) error
}

// MetricStore is the daily per-source additive-upsert aggregate.
type MetricStore interface {
	UpsertSourceMetric(ctx context.Context, m models.SourceMetric) error
	SourceMetricsSince(ctx context.Context, days int) ([]models.SourceMetric, error)
	WeeklySummary(ctx context.Context) (WeeklySummary, error)
}

// CheckpointStore is the per-(source,company) success/failure counter.
type CheckpointStore interface {
	IncrementCheckpoint(ctx context.Context, source, company string, success bool) error
}

// FitAnalysisStore holds at most one row per canonical job.
type FitAnalysisStore interface {
	UpsertFitAnalysis(ctx context.Context, a *models.FitAnalysis) error
	GetFitAnalysis(ctx context.Context, canonicalID uuid.UUID) (*models.FitAnalysis, error)
}

// AlternateURLStore tracks secondary URLs for a canonical job.
type AlternateURLStore interface {
	InsertAlternateURL(ctx context.Context, alt *models.AlternateURL) error
	ListAlternateURLs(ctx context.Context, canonicalID uuid.UUID) ([]models.AlternateURL, error)
}

// RetryQueueStore is the notifier's failed-send retry queue.
type RetryQueueStore interface {
	Enqueue(ctx context.Context, item *models.RetryQueueItem) error
	GetDue(ctx context.Context, now time.Time) ([]models.RetryQueueItem, error)
	IncrementRetry(ctx context.Context, id uuid.UUID, nextRetryAt time.Time) error
	Remove(ctx context.Context, id uuid.UUID) error
}

// Store is the full persistence contract the orchestrator depends on.
type Store interface {
	RunLogStore
	RawJobStore
	CanonicalJobStore
	DedupStore
	BoardStore
	MetricStore
	CheckpointStore
	FitAnalysisStore
	AlternateURLStore
	RetryQueueStore

	// Transact runs fn inside a single transaction scope, matching C8's
	// "single writer transaction scope" requirement per job (spec.md §4.8
	// step 5). Implementations that cannot nest transactions just run fn
	// against the outer connection.
	Transact(ctx context.Context, fn func(Store) error) error
}
