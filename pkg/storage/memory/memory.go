// Package memory provides in-process fakes of pkg/storage.Store, used by
// pkg/pipeline's tests in place of a live Postgres instance. No teacher
// analog exists (the teacher's own tests run against live etcd/postgres
// containers) — this is plain bookkeeping over Go maps/slices guarded by a
// mutex, mirroring the semantics the real postgres.Store implements.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"jobradar/pkg/models"
	"jobradar/pkg/storage"
)

type Store struct {
	mu sync.Mutex

	runs        map[uuid.UUID]*models.RunLog
	rawJobs     map[uuid.UUID]*models.RawJob
	canonical   map[uuid.UUID]*models.CanonicalJob
	duplicates  []models.JobDuplicate
	boards      map[uuid.UUID]*models.DiscoveredBoard
	metrics     map[string]*models.SourceMetric // key: source|date
	checkpoints map[string]*models.ConnectorCheckpoint
	fitByJob    map[uuid.UUID]*models.FitAnalysis
	alternates  []models.AlternateURL
	retryQueue  map[uuid.UUID]*models.RetryQueueItem
}

func New() *Store {
	return &Store{
		runs:        make(map[uuid.UUID]*models.RunLog),
		rawJobs:     make(map[uuid.UUID]*models.RawJob),
		canonical:   make(map[uuid.UUID]*models.CanonicalJob),
		boards:      make(map[uuid.UUID]*models.DiscoveredBoard),
		metrics:     make(map[string]*models.SourceMetric),
		checkpoints: make(map[string]*models.ConnectorCheckpoint),
		fitByJob:    make(map[uuid.UUID]*models.FitAnalysis),
		retryQueue:  make(map[uuid.UUID]*models.RetryQueueItem),
	}
}

func clone[T any](v T) *T {
	cp := v
	return &cp
}

// --- RunLogStore ---

func (s *Store) CreateRun(ctx context.Context, run *models.RunLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = models.RunStatusRunning
	}
	s.runs[run.ID] = clone(*run)
	return nil
}

func (s *Store) FinishRun(ctx context.Context, id uuid.UUID, status models.RunStatus, counts models.Counts, errs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return storage.ErrNotFound
	}
	now := time.Now().UTC()
	run.Status = status
	run.FinishedAt = &now
	run.Counts = counts
	run.Errors = models.StringList(errs)
	return nil
}

func (s *Store) LastCompletedRun(ctx context.Context) (*models.RunLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *models.RunLog
	for _, r := range s.runs {
		if r.Status != models.RunStatusCompleted || r.FinishedAt == nil {
			continue
		}
		if best == nil || r.FinishedAt.After(*best.FinishedAt) {
			best = r
		}
	}
	if best == nil {
		return nil, storage.ErrNotFound
	}
	return clone(*best), nil
}

// --- RawJobStore ---

func (s *Store) InsertRawJob(ctx context.Context, job *models.RawJob) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.FetchedAt.IsZero() {
		job.FetchedAt = time.Now().UTC()
	}
	s.rawJobs[job.ID] = clone(*job)
	return job.ID, nil
}

func (s *Store) GetRawJobsBySourceDate(ctx context.Context, source string, date time.Time) ([]models.RawJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	end := start.Add(24 * time.Hour)
	var out []models.RawJob
	for _, j := range s.rawJobs {
		if j.Source == source && !j.FetchedAt.Before(start) && j.FetchedAt.Before(end) {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (s *Store) DeleteRawJobsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, j := range s.rawJobs {
		if j.FetchedAt.Before(cutoff) {
			delete(s.rawJobs, id)
			n++
		}
	}
	return n, nil
}

// --- CanonicalJobStore ---

func (s *Store) InsertCanonicalJob(ctx context.Context, job *models.CanonicalJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.FirstSeenAt.IsZero() {
		job.FirstSeenAt = time.Now().UTC()
	}
	for _, existing := range s.canonical {
		if existing.URLHash == job.URLHash {
			return storage.ErrConflict
		}
	}
	s.canonical[job.ID] = clone(*job)
	return nil
}

func (s *Store) GetByURLHash(ctx context.Context, hash string) (*models.CanonicalJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.canonical {
		if j.URLHash == hash {
			return clone(*j), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) GetByContentFingerprint(ctx context.Context, fingerprint string) (*models.CanonicalJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *models.CanonicalJob
	for _, j := range s.canonical {
		if j.ContentFingerprint != fingerprint || j.Status != models.StatusActive {
			continue
		}
		if best == nil || j.FirstSeenAt.Before(best.FirstSeenAt) {
			best = j
		}
	}
	if best == nil {
		return nil, storage.ErrNotFound
	}
	return clone(*best), nil
}

func (s *Store) GetRecentActive(ctx context.Context, sinceDays int) ([]models.CanonicalJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().UTC().AddDate(0, 0, -sinceDays)
	var out []models.CanonicalJob
	for _, j := range s.canonical {
		if j.Status == models.StatusActive && !j.FirstSeenAt.Before(cutoff) {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*models.CanonicalJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.canonical[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clone(*j), nil
}

func (s *Store) UpdateScore(ctx context.Context, id uuid.UUID, score, freshness, location, mode int, band models.ScoreBand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.canonical[id]
	if !ok {
		return storage.ErrNotFound
	}
	j.Score, j.ScoreFreshness, j.ScoreLocation, j.ScoreMode, j.ScoreBand = score, freshness, location, mode, band
	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status models.JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.canonical[id]
	if !ok {
		return storage.ErrNotFound
	}
	j.Status = status
	return nil
}

func (s *Store) ListJobs(ctx context.Context, filter storage.JobFilter) ([]models.CanonicalJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.CanonicalJob
	for _, j := range s.canonical {
		if filter.Band != "" && string(j.ScoreBand) != filter.Band {
			continue
		}
		if filter.Bucket != "" && string(j.TitleBucket) != filter.Bucket {
			continue
		}
		if filter.Status != "" && string(j.Status) != filter.Status {
			continue
		}
		if filter.Since != nil && j.FirstSeenAt.Before(*filter.Since) {
			continue
		}
		if filter.MinScore != nil && j.Score < *filter.MinScore {
			continue
		}
		if len(filter.Tiers) > 0 && !containsStr(filter.Tiers, j.LocationTier) {
			continue
		}
		out = append(out, *j)
	}

	sort.Slice(out, func(i, k int) bool { return out[i].Score > out[k].Score })

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if filter.Offset >= len(out) {
		return nil, nil
	}
	end := filter.Offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[filter.Offset:end], nil
}

func containsStr(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func (s *Store) ArchiveOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, j := range s.canonical {
		if j.Status == models.StatusActive && j.FirstSeenAt.Before(cutoff) {
			j.Status = models.StatusArchived
			n++
		}
	}
	return n, nil
}

// --- DedupStore ---

func (s *Store) InsertDuplicateLink(ctx context.Context, dup *models.JobDuplicate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dup.ID == uuid.Nil {
		dup.ID = uuid.New()
	}
	s.duplicates = append(s.duplicates, *dup)
	return nil
}

// --- BoardStore ---

func (s *Store) UpsertBoard(ctx context.Context, board *models.DiscoveredBoard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.boards {
		if b.BoardURL == board.BoardURL {
			b.LastSeenAt = time.Now().UTC()
			if board.Confidence > b.Confidence {
				b.Confidence = board.Confidence
			}
			*board = *b
			return nil
		}
	}
	if board.ID == uuid.Nil {
		board.ID = uuid.New()
	}
	board.LastSeenAt = time.Now().UTC()
	s.boards[board.ID] = clone(*board)
	return nil
}

func (s *Store) GetActiveByPlatform(ctx context.Context, platform string) ([]models.DiscoveredBoard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.DiscoveredBoard
	for _, b := range s.boards {
		if b.Platform == platform && b.Status == models.BoardStatusActive {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *Store) UpdatePollState(ctx context.Context, id uuid.UUID, success bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[id]
	if !ok {
		return storage.ErrNotFound
	}
	now := time.Now().UTC()
	b.LastSeenAt = now
	if success {
		b.LastSuccessAt = &now
		b.ConsecutiveZeroYieldRuns = 0
	} else {
		b.ConsecutiveZeroYieldRuns++
		if b.ConsecutiveZeroYieldRuns >= models.MaxConsecutiveZeroYieldRuns {
			b.Status = models.BoardStatusInactive
		}
	}
	return nil
}

// --- MetricStore ---

func metricKey(source string, date time.Time) string {
	return source + "|" + date.Format("2006-01-02")
}

func (s *Store) UpsertSourceMetric(ctx context.Context, m models.SourceMetric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	day := time.Date(m.Date.Year(), m.Date.Month(), m.Date.Day(), 0, 0, 0, 0, time.UTC)
	key := metricKey(m.Source, day)
	existing, ok := s.metrics[key]
	if !ok {
		m.Date = day
		s.metrics[key] = clone(m)
		return nil
	}
	total := existing.JobsFound + m.JobsFound
	if total > 0 {
		existing.ResponseTimeAvgMs = (existing.ResponseTimeAvgMs*float64(existing.JobsFound) + m.ResponseTimeAvgMs*float64(m.JobsFound)) / float64(total)
		existing.SuccessRate = (existing.SuccessRate*float64(existing.JobsFound) + m.SuccessRate*float64(m.JobsFound)) / float64(total)
	}
	existing.JobsFound = total
	existing.JobsNew += m.JobsNew
	existing.JobsDuplicate += m.JobsDuplicate
	existing.ParseFailures += m.ParseFailures
	existing.RateLimitHits += m.RateLimitHits
	return nil
}

func (s *Store) SourceMetricsSince(ctx context.Context, days int) ([]models.SourceMetric, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	var out []models.SourceMetric
	for _, m := range s.metrics {
		if !m.Date.Before(cutoff) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *Store) WeeklySummary(ctx context.Context) (storage.WeeklySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().UTC().AddDate(0, 0, -7)
	var summary storage.WeeklySummary
	summary.ByBand = make(map[string]int)
	for _, m := range s.metrics {
		if m.Date.Before(cutoff) {
			continue
		}
		summary.TotalFound += m.JobsFound
		summary.TotalNew += m.JobsNew
		summary.TotalDuplicate += m.JobsDuplicate
	}
	for _, j := range s.canonical {
		if j.Status == models.StatusActive && !j.FirstSeenAt.Before(cutoff) {
			summary.ByBand[string(j.ScoreBand)]++
		}
	}
	return summary, nil
}

// --- CheckpointStore ---

func (s *Store) IncrementCheckpoint(ctx context.Context, source, company string, success bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := source + "|" + company
	cp, ok := s.checkpoints[key]
	if !ok {
		cp = &models.ConnectorCheckpoint{Source: source, Company: company}
		s.checkpoints[key] = cp
	}
	if success {
		cp.SuccessCount++
	} else {
		cp.FailureCount++
	}
	cp.UpdatedAt = time.Now().UTC()
	return nil
}

// --- FitAnalysisStore ---

func (s *Store) UpsertFitAnalysis(ctx context.Context, a *models.FitAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.fitByJob[a.CanonicalJobID]; ok {
		a.ID = existing.ID
	} else if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	s.fitByJob[a.CanonicalJobID] = clone(*a)
	return nil
}

func (s *Store) GetFitAnalysis(ctx context.Context, canonicalID uuid.UUID) (*models.FitAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.fitByJob[canonicalID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clone(*a), nil
}

// --- AlternateURLStore ---

func (s *Store) InsertAlternateURL(ctx context.Context, alt *models.AlternateURL) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.alternates {
		if a.CanonicalJobID == alt.CanonicalJobID && a.Source == alt.Source {
			return nil
		}
	}
	if alt.ID == uuid.Nil {
		alt.ID = uuid.New()
	}
	s.alternates = append(s.alternates, *alt)
	return nil
}

func (s *Store) ListAlternateURLs(ctx context.Context, canonicalID uuid.UUID) ([]models.AlternateURL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AlternateURL
	for _, a := range s.alternates {
		if a.CanonicalJobID == canonicalID {
			out = append(out, a)
			if len(out) == 5 {
				break
			}
		}
	}
	return out, nil
}

// --- RetryQueueStore ---

func (s *Store) Enqueue(ctx context.Context, item *models.RetryQueueItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.NextRetryAt.IsZero() {
		item.NextRetryAt = time.Now().UTC()
	}
	s.retryQueue[item.ID] = clone(*item)
	return nil
}

func (s *Store) GetDue(ctx context.Context, now time.Time) ([]models.RetryQueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.RetryQueueItem
	for _, item := range s.retryQueue {
		if !item.NextRetryAt.After(now) {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].NextRetryAt.Before(out[k].NextRetryAt) })
	return out, nil
}

func (s *Store) IncrementRetry(ctx context.Context, id uuid.UUID, nextRetryAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.retryQueue[id]
	if !ok {
		return storage.ErrNotFound
	}
	item.RetryCount++
	item.NextRetryAt = nextRetryAt
	return nil
}

func (s *Store) Remove(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.retryQueue[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.retryQueue, id)
	return nil
}

// Transact runs fn against the same in-memory store — there is no real
// transaction isolation to provide in-process, so this just mirrors the
// no-rollback-on-panic caveat documented for callers relying on atomicity
// in tests.
func (s *Store) Transact(ctx context.Context, fn func(storage.Store) error) error {
	return fn(s)
}

var _ storage.Store = (*Store)(nil)
