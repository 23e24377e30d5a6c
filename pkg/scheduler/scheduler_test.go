package scheduler

import (
	"context"
	"testing"
	"time"

	config "jobradar/configs"
	"jobradar/pkg/connectors"
	"jobradar/pkg/models"
	"jobradar/pkg/pipeline"
	"jobradar/pkg/storage/memory"
)

type nopConnector struct{}

func (nopConnector) Fetch(ctx context.Context, company string, def config.SourceDef) connectors.ConnectorResult {
	return connectors.ConnectorResult{Success: true}
}

func newTestScheduler(t *testing.T) (*Scheduler, *memory.Store) {
	t.Helper()
	store := memory.New()
	orch := pipeline.New(pipeline.Deps{
		Store: store,
		Sources: []pipeline.Source{
			{Name: "greenhouse", Category: "ats", Connector: nopConnector{}},
		},
		Boards: store,
		Config: pipeline.Config{DedupWindowDays: 30, BatchSize: 10, TimeZone: time.UTC},
	})
	s := New(Deps{Orchestrator: orch, Store: store, TimeZone: time.UTC})
	return s, store
}

func TestCatchUpRunsWhenNoPriorRunExists(t *testing.T) {
	s, store := newTestScheduler(t)
	s.catchUp(context.Background())

	last, err := store.LastCompletedRun(context.Background())
	if err != nil {
		t.Fatalf("expected a completed catch-up run, got error: %v", err)
	}
	if last.Type != models.RunTypeCatchUp {
		t.Errorf("expected catch_up run type, got %s", last.Type)
	}
}

func TestCatchUpSkippedWhenRecentRunExists(t *testing.T) {
	s, store := newTestScheduler(t)
	run := &models.RunLog{Type: models.RunTypeATSSweep, Status: models.RunStatusRunning}
	if err := store.CreateRun(context.Background(), run); err != nil {
		t.Fatal(err)
	}
	if err := store.FinishRun(context.Background(), run.ID, models.RunStatusCompleted, models.Counts{}, nil); err != nil {
		t.Fatal(err)
	}

	s.catchUp(context.Background())

	last, err := store.LastCompletedRun(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if last.Type != models.RunTypeATSSweep {
		t.Errorf("expected the recent ats_sweep run to remain the last completed run, got %s", last.Type)
	}
}

func TestSingleFlightSkipsConcurrentRun(t *testing.T) {
	s, _ := newTestScheduler(t)
	s.running.Store(true)
	s.runPipeline(context.Background(), models.RunTypeATSSweep, pipeline.RunConnectorOptions{IncludeATS: true})
	if !s.running.Load() {
		t.Errorf("expected running flag to remain true (guard must not touch an in-progress run's flag)")
	}
}

func TestTickFiresDueSlotAndAdvancesNext(t *testing.T) {
	s, _ := newTestScheduler(t)
	fired := 0
	s.slots = []*slot{
		{name: "test", schedule: everyMinuteSchedule{}, next: time.Now().Add(-time.Minute), run: func(ctx context.Context) { fired++ }},
	}
	s.tick(context.Background())
	if fired != 1 {
		t.Errorf("expected the due slot to fire once, got %d", fired)
	}
	if !s.slots[0].next.After(time.Now()) {
		t.Errorf("expected next occurrence to be advanced into the future")
	}
}

// everyMinuteSchedule is a minimal cron.Schedule stub for TestTickFiresDueSlotAndAdvancesNext.
type everyMinuteSchedule struct{}

func (everyMinuteSchedule) Next(t time.Time) time.Time { return t.Add(time.Minute) }
