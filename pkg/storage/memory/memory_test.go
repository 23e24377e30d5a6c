package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"jobradar/pkg/models"
	"jobradar/pkg/storage"
)

func TestInsertCanonicalJobRejectsDuplicateURLHash(t *testing.T) {
	s := New()
	ctx := context.Background()

	job := &models.CanonicalJob{URLHash: "abc123", Status: models.StatusActive}
	if err := s.InsertCanonicalJob(ctx, job); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	dup := &models.CanonicalJob{URLHash: "abc123", Status: models.StatusActive}
	err := s.InsertCanonicalJob(ctx, dup)
	if err != storage.ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	s := New()
	err := s.UpdateStatus(context.Background(), uuid.New(), models.StatusApplied)
	if err != storage.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBoardRetiresAfterConsecutiveZeroYield(t *testing.T) {
	s := New()
	ctx := context.Background()

	board := &models.DiscoveredBoard{Platform: "lever", BoardURL: "https://jobs.lever.co/acme"}
	if err := s.UpsertBoard(ctx, board); err != nil {
		t.Fatalf("upsert board: %v", err)
	}

	for i := 0; i < models.MaxConsecutiveZeroYieldRuns; i++ {
		if err := s.UpdatePollState(ctx, board.ID, false); err != nil {
			t.Fatalf("update poll state: %v", err)
		}
	}

	active, err := s.GetActiveByPlatform(ctx, "lever")
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected board to be retired, still active: %+v", active)
	}
}

func TestUpsertSourceMetricAccumulates(t *testing.T) {
	s := New()
	ctx := context.Background()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	if err := s.UpsertSourceMetric(ctx, models.SourceMetric{Source: "greenboard", Date: day, JobsFound: 10, JobsNew: 4, SuccessRate: 1.0}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := s.UpsertSourceMetric(ctx, models.SourceMetric{Source: "greenboard", Date: day, JobsFound: 10, JobsNew: 2, SuccessRate: 0.5}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	metrics, err := s.SourceMetricsSince(ctx, 30)
	if err != nil {
		t.Fatalf("metrics since: %v", err)
	}
	if len(metrics) != 1 {
		t.Fatalf("expected exactly one aggregated row, got %d", len(metrics))
	}
	m := metrics[0]
	if m.JobsFound != 20 || m.JobsNew != 6 {
		t.Fatalf("unexpected accumulation: %+v", m)
	}
	if m.SuccessRate != 0.75 {
		t.Fatalf("expected weighted success rate 0.75, got %f", m.SuccessRate)
	}
}

func TestListJobsFiltersAndPaginates(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		job := &models.CanonicalJob{
			URLHash:   uuid.NewString(),
			Status:    models.StatusActive,
			Score:     i * 10,
			ScoreBand: models.ScoreBandGoodMatch,
		}
		if err := s.InsertCanonicalJob(ctx, job); err != nil {
			t.Fatalf("insert job %d: %v", i, err)
		}
	}

	page, err := s.ListJobs(ctx, storage.JobFilter{Limit: 2, Band: string(models.ScoreBandGoodMatch)})
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 results, got %d", len(page))
	}
	if page[0].Score < page[1].Score {
		t.Fatalf("expected descending score order, got %+v", page)
	}
}
