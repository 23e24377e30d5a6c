package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jobradar/pkg/models"
	"jobradar/pkg/storage"
)

// UpsertSourceMetric additively folds m into the existing (source, date)
// row, weighting the running averages by each call's JobsFound sample size
// (spec.md §3: "daily additive-upsert aggregate per source"). SourceMetric's
// own sampleCount field is intentionally transient, so the weight is
// recovered from the persisted JobsFound counter rather than a separate
// column.
func (s *Store) UpsertSourceMetric(ctx context.Context, m models.SourceMetric) error {
	day := time.Date(m.Date.Year(), m.Date.Month(), m.Date.Day(), 0, 0, 0, 0, time.UTC)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.SourceMetric
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("source = ? AND date = ?", m.Source, day).
			First(&existing).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			m.Date = day
			if err := tx.Create(&m).Error; err != nil {
				return fmt.Errorf("postgres: insert source metric: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("postgres: lock source metric: %w", err)
		}

		totalFound := existing.JobsFound + m.JobsFound
		weightedAvg := existing.ResponseTimeAvgMs
		weightedSuccess := existing.SuccessRate
		if totalFound > 0 {
			weightedAvg = (existing.ResponseTimeAvgMs*float64(existing.JobsFound) + m.ResponseTimeAvgMs*float64(m.JobsFound)) / float64(totalFound)
			weightedSuccess = (existing.SuccessRate*float64(existing.JobsFound) + m.SuccessRate*float64(m.JobsFound)) / float64(totalFound)
		}

		updates := map[string]interface{}{
			"jobs_found":           totalFound,
			"jobs_new":             existing.JobsNew + m.JobsNew,
			"jobs_duplicate":       existing.JobsDuplicate + m.JobsDuplicate,
			"parse_failures":       existing.ParseFailures + m.ParseFailures,
			"rate_limit_hits":      existing.RateLimitHits + m.RateLimitHits,
			"response_time_avg_ms": weightedAvg,
			"success_rate":         weightedSuccess,
		}
		if err := tx.Model(&models.SourceMetric{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("postgres: update source metric: %w", err)
		}
		return nil
	})
}

func (s *Store) SourceMetricsSince(ctx context.Context, days int) ([]models.SourceMetric, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	var metrics []models.SourceMetric
	err := s.db.WithContext(ctx).Where("date >= ?", cutoff).Order("date desc").Find(&metrics).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: source metrics since: %w", err)
	}
	return metrics, nil
}

// WeeklySummary backs the Sunday evening digest (spec.md §4.9): totals over
// the trailing 7 days plus a per-band breakdown of active canonical jobs.
func (s *Store) WeeklySummary(ctx context.Context) (storage.WeeklySummary, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -7)

	var totals struct {
		Found     int
		New       int
		Duplicate int
	}
	err := s.db.WithContext(ctx).Model(&models.SourceMetric{}).
		Select("COALESCE(SUM(jobs_found),0) as found, COALESCE(SUM(jobs_new),0) as new, COALESCE(SUM(jobs_duplicate),0) as duplicate").
		Where("date >= ?", cutoff).
		Scan(&totals).Error
	if err != nil {
		return storage.WeeklySummary{}, fmt.Errorf("postgres: weekly totals: %w", err)
	}

	var bandRows []struct {
		ScoreBand string
		Count     int
	}
	err = s.db.WithContext(ctx).Model(&models.CanonicalJob{}).
		Select("score_band, count(*) as count").
		Where("status = ? AND first_seen_at >= ?", models.StatusActive, cutoff).
		Group("score_band").
		Scan(&bandRows).Error
	if err != nil {
		return storage.WeeklySummary{}, fmt.Errorf("postgres: weekly band breakdown: %w", err)
	}

	byBand := make(map[string]int, len(bandRows))
	for _, r := range bandRows {
		byBand[r.ScoreBand] = r.Count
	}

	return storage.WeeklySummary{
		TotalFound:     totals.Found,
		TotalNew:       totals.New,
		TotalDuplicate: totals.Duplicate,
		ByBand:         byBand,
	}, nil
}
