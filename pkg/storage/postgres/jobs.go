package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"jobradar/pkg/models"
	"jobradar/pkg/storage"
)

// --- RunLogStore ---

func (s *Store) CreateRun(ctx context.Context, run *models.RunLog) error {
	if run.Status == "" {
		run.Status = models.RunStatusRunning
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("postgres: create run: %w", err)
	}
	return nil
}

func (s *Store) FinishRun(ctx context.Context, id uuid.UUID, status models.RunStatus, counts models.Counts, errs []string) error {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).Model(&models.RunLog{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":      status,
		"finished_at": now,
		"counts":      counts,
		"errors":      models.StringList(errs),
	})
	if result.Error != nil {
		return fmt.Errorf("postgres: finish run: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) LastCompletedRun(ctx context.Context) (*models.RunLog, error) {
	var run models.RunLog
	err := s.db.WithContext(ctx).
		Where("status = ?", models.RunStatusCompleted).
		Order("finished_at desc").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: last completed run: %w", err)
	}
	return &run, nil
}

// --- RawJobStore ---

func (s *Store) InsertRawJob(ctx context.Context, job *models.RawJob) (uuid.UUID, error) {
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return uuid.Nil, fmt.Errorf("postgres: insert raw job: %w", err)
	}
	return job.ID, nil
}

func (s *Store) GetRawJobsBySourceDate(ctx context.Context, source string, date time.Time) ([]models.RawJob, error) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	end := start.Add(24 * time.Hour)
	var jobs []models.RawJob
	err := s.db.WithContext(ctx).
		Where("source = ? AND fetched_at >= ? AND fetched_at < ?", source, start, end).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: raw jobs by source/date: %w", err)
	}
	return jobs, nil
}

func (s *Store) DeleteRawJobsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("fetched_at < ?", cutoff).Delete(&models.RawJob{})
	if result.Error != nil {
		return 0, fmt.Errorf("postgres: delete old raw jobs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// --- CanonicalJobStore ---

func (s *Store) InsertCanonicalJob(ctx context.Context, job *models.CanonicalJob) error {
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("postgres: insert canonical job: %w", err)
	}
	return nil
}

func (s *Store) GetByURLHash(ctx context.Context, hash string) (*models.CanonicalJob, error) {
	var job models.CanonicalJob
	err := s.db.WithContext(ctx).Where("url_hash = ?", hash).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get by url hash: %w", err)
	}
	return &job, nil
}

// GetByContentFingerprint returns the oldest active match (spec.md §4.10).
func (s *Store) GetByContentFingerprint(ctx context.Context, fingerprint string) (*models.CanonicalJob, error) {
	var job models.CanonicalJob
	err := s.db.WithContext(ctx).
		Where("content_fingerprint = ? AND status = ?", fingerprint, models.StatusActive).
		Order("first_seen_at asc").
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get by content fingerprint: %w", err)
	}
	return &job, nil
}

func (s *Store) GetRecentActive(ctx context.Context, sinceDays int) ([]models.CanonicalJob, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -sinceDays)
	var jobs []models.CanonicalJob
	err := s.db.WithContext(ctx).
		Where("status = ? AND first_seen_at >= ?", models.StatusActive, cutoff).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: recent active jobs: %w", err)
	}
	return jobs, nil
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*models.CanonicalJob, error) {
	var job models.CanonicalJob
	err := s.db.WithContext(ctx).First(&job, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get canonical job: %w", err)
	}
	return &job, nil
}

func (s *Store) UpdateScore(ctx context.Context, id uuid.UUID, score, freshness, location, mode int, band models.ScoreBand) error {
	result := s.db.WithContext(ctx).Model(&models.CanonicalJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"score":           score,
		"score_freshness": freshness,
		"score_location":  location,
		"score_mode":      mode,
		"score_band":      band,
	})
	if result.Error != nil {
		return fmt.Errorf("postgres: update score: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status models.JobStatus) error {
	result := s.db.WithContext(ctx).Model(&models.CanonicalJob{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("postgres: update status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ListJobs(ctx context.Context, filter storage.JobFilter) ([]models.CanonicalJob, error) {
	q := s.db.WithContext(ctx).Model(&models.CanonicalJob{})
	if filter.Band != "" {
		q = q.Where("score_band = ?", filter.Band)
	}
	if filter.Bucket != "" {
		q = q.Where("title_bucket = ?", filter.Bucket)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Since != nil {
		q = q.Where("first_seen_at >= ?", *filter.Since)
	}
	if filter.MinScore != nil {
		q = q.Where("score >= ?", *filter.MinScore)
	}
	if len(filter.Tiers) > 0 {
		q = q.Where("location_tier IN ?", filter.Tiers)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	var jobs []models.CanonicalJob
	err := q.Order("score desc").Limit(limit).Offset(filter.Offset).Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: list jobs: %w", err)
	}
	return jobs, nil
}

func (s *Store) ArchiveOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.CanonicalJob{}).
		Where("status = ? AND first_seen_at < ?", models.StatusActive, cutoff).
		Update("status", models.StatusArchived)
	if result.Error != nil {
		return 0, fmt.Errorf("postgres: archive old jobs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// --- DedupStore ---

func (s *Store) InsertDuplicateLink(ctx context.Context, dup *models.JobDuplicate) error {
	if err := s.db.WithContext(ctx).Create(dup).Error; err != nil {
		return fmt.Errorf("postgres: insert duplicate link: %w", err)
	}
	return nil
}

// --- FitAnalysisStore ---

func (s *Store) UpsertFitAnalysis(ctx context.Context, a *models.FitAnalysis) error {
	var existing models.FitAnalysis
	err := s.db.WithContext(ctx).Where("canonical_job_id = ?", a.CanonicalJobID).First(&existing).Error
	if err == nil {
		a.ID = existing.ID
		return s.db.WithContext(ctx).Model(&existing).Updates(a).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("postgres: lookup fit analysis: %w", err)
	}
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("postgres: insert fit analysis: %w", err)
	}
	return nil
}

func (s *Store) GetFitAnalysis(ctx context.Context, canonicalID uuid.UUID) (*models.FitAnalysis, error) {
	var a models.FitAnalysis
	err := s.db.WithContext(ctx).Where("canonical_job_id = ?", canonicalID).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get fit analysis: %w", err)
	}
	return &a, nil
}

// --- AlternateURLStore ---

func (s *Store) InsertAlternateURL(ctx context.Context, alt *models.AlternateURL) error {
	err := s.db.WithContext(ctx).
		Where("canonical_job_id = ? AND source = ?", alt.CanonicalJobID, alt.Source).
		FirstOrCreate(alt).Error
	if err != nil {
		return fmt.Errorf("postgres: insert alternate url: %w", err)
	}
	return nil
}

func (s *Store) ListAlternateURLs(ctx context.Context, canonicalID uuid.UUID) ([]models.AlternateURL, error) {
	var alts []models.AlternateURL
	err := s.db.WithContext(ctx).
		Where("canonical_job_id = ?", canonicalID).
		Order("created_at asc").
		Limit(5).
		Find(&alts).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: list alternate urls: %w", err)
	}
	return alts, nil
}

// --- CheckpointStore ---

func (s *Store) IncrementCheckpoint(ctx context.Context, source, company string, success bool) error {
	col := "success_count"
	if !success {
		col = "failure_count"
	}
	cp := models.ConnectorCheckpoint{Source: source, Company: company, UpdatedAt: time.Now().UTC()}
	if success {
		cp.SuccessCount = 1
	} else {
		cp.FailureCount = 1
	}
	err := s.db.WithContext(ctx).
		Clauses(onConflictCheckpoint(col)).
		Create(&cp).Error
	if err != nil {
		return fmt.Errorf("postgres: increment checkpoint: %w", err)
	}
	return nil
}
