package pipeline

import (
	"context"
	"testing"
	"time"

	config "jobradar/configs"
	"jobradar/pkg/connectors"
	"jobradar/pkg/models"
	"jobradar/pkg/storage/memory"
)

// fakeConnector returns a fixed ConnectorResult regardless of company/def,
// so a run's behavior can be driven deterministically.
type fakeConnector struct {
	result connectors.ConnectorResult
}

func (f *fakeConnector) Fetch(ctx context.Context, company string, def config.SourceDef) connectors.ConnectorResult {
	return f.result
}

// fakeNotifier records every alert it was asked to send.
type fakeNotifier struct {
	alerts []string
	fail   bool
}

func (n *fakeNotifier) SendAlert(ctx context.Context, job *models.CanonicalJob, fit *models.FitAnalysis) error {
	if n.fail {
		return errFake
	}
	n.alerts = append(n.alerts, job.Title)
	return nil
}

func (n *fakeNotifier) SendDigest(ctx context.Context, period string, jobs []models.CanonicalJob) error {
	return nil
}

func (n *fakeNotifier) SendSystemAlert(ctx context.Context, message string) error {
	n.alerts = append(n.alerts, "system:"+message)
	return nil
}

var errFake = &fakeError{"fake notifier failure"}

type fakeError struct{ msg string }

func (e *fakeError) Error() string { return e.msg }

func testConfig() Config {
	return Config{
		Titles: config.TitleFilters{
			Include: []string{"engineer"},
			Reject:  []string{"recruiter"},
		},
		Locations: config.LocationsConfig{
			"l1": {Label: "Toronto", Points: 20, Cities: []string{"toronto"}},
		},
		Modes: config.ModesConfig{
			"remote":  {Points: 10, Keywords: []string{"remote"}},
			"onsite":  {Points: 0, Keywords: []string{"onsite"}},
			"unknown": {Points: 5},
		},
		Scoring: config.ScoringConfig{
			Bands: map[string]config.BandConfig{
				"topPriority": {MinScore: 20},
				"goodMatch":   {MinScore: 10},
				"worthALook":  {MinScore: 0},
			},
		},
		AIAnalysisMinScore: 1000, // disable AI enqueue by default in most tests
		DedupWindowDays:    30,
		BatchSize:          10,
		TimeZone:           time.UTC,
	}
}

func newTestOrchestrator(t *testing.T, src Source, notifier *fakeNotifier) *Orchestrator {
	t.Helper()
	store := memory.New()
	return New(Deps{
		Store:    store,
		Sources:  []Source{src},
		Boards:   store,
		Config:   testConfig(),
		Notifier: notifier,
	})
}

func TestRunInsertsNewJobAndSkipsRejectedTitle(t *testing.T) {
	src := Source{
		Name:     "greenhouse",
		Category: "ats",
		Def:      config.SourceDef{Type: "api"},
		Connector: &fakeConnector{result: connectors.ConnectorResult{
			Source:  "greenhouse",
			Success: true,
			Jobs: []models.RawJob{
				{Source: "greenhouse", SourceJobID: "1", Title: "Backend Engineer", Company: "Acme", URL: "https://acme.example/jobs/1", Content: "remote role", FetchedAt: time.Now()},
				{Source: "greenhouse", SourceJobID: "2", Title: "Technical Recruiter", Company: "Acme", URL: "https://acme.example/jobs/2", FetchedAt: time.Now()},
			},
		}},
	}
	notifier := &fakeNotifier{}
	o := newTestOrchestrator(t, src, notifier)

	result, err := o.Run(context.Background(), models.RunTypeATSSweep, false, false, RunConnectorOptions{IncludeATS: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Status != models.RunStatusCompleted {
		t.Errorf("expected completed status, got %s", result.Status)
	}
	if result.Counts["jobsNew"] != 1 {
		t.Errorf("expected 1 new job, got %d", result.Counts["jobsNew"])
	}
	if result.Counts["rejects"] != 1 {
		t.Errorf("expected 1 rejected title, got %d", result.Counts["rejects"])
	}
}

func TestRunSkipsDisabledCategory(t *testing.T) {
	src := Source{
		Name:     "greenhouse",
		Category: "ats",
		Connector: &fakeConnector{result: connectors.ConnectorResult{
			Source: "greenhouse", Success: true,
			Jobs: []models.RawJob{{Source: "greenhouse", Title: "Backend Engineer", Company: "Acme", URL: "https://acme.example/1", FetchedAt: time.Now()}},
		}},
	}
	o := newTestOrchestrator(t, src, &fakeNotifier{})

	result, err := o.Run(context.Background(), models.RunTypeATSSweep, false, false, RunConnectorOptions{IncludeATS: false})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Counts["jobsFound"] != 0 {
		t.Errorf("expected no jobs processed when category disabled, got %d", result.Counts["jobsFound"])
	}
}

func TestRunDispatchesAlertForTopPriorityInclude(t *testing.T) {
	cfg := testConfig()
	cfg.Scoring.Bands = map[string]config.BandConfig{
		"topPriority": {MinScore: 0},
		"goodMatch":   {MinScore: -1},
		"worthALook":  {MinScore: -2},
	}
	src := Source{
		Name:     "greenhouse",
		Category: "ats",
		Connector: &fakeConnector{result: connectors.ConnectorResult{
			Source: "greenhouse", Success: true,
			Jobs: []models.RawJob{{Source: "greenhouse", Title: "Backend Engineer", Company: "Acme", URL: "https://acme.example/1", FetchedAt: time.Now()}},
		}},
	}
	notifier := &fakeNotifier{}
	store := memory.New()
	o := New(Deps{
		Store:    store,
		Sources:  []Source{src},
		Boards:   store,
		Config:   cfg,
		Notifier: notifier,
	})

	result, err := o.Run(context.Background(), models.RunTypeATSSweep, false, false, RunConnectorOptions{IncludeATS: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Counts["alertsSent"] != 1 {
		t.Errorf("expected 1 alert sent, got %d", result.Counts["alertsSent"])
	}
	if len(notifier.alerts) != 1 || notifier.alerts[0] != "Backend Engineer" {
		t.Errorf("expected notifier to record the alert, got %v", notifier.alerts)
	}
}

func TestRunBackfillNeverEnqueuesAIOrAlerts(t *testing.T) {
	cfg := testConfig()
	cfg.AIAnalysisMinScore = 0
	cfg.Scoring.Bands = map[string]config.BandConfig{
		"topPriority": {MinScore: 0},
		"goodMatch":   {MinScore: -1},
		"worthALook":  {MinScore: -2},
	}
	src := Source{
		Name:     "greenhouse",
		Category: "ats",
		Connector: &fakeConnector{result: connectors.ConnectorResult{
			Source: "greenhouse", Success: true,
			Jobs: []models.RawJob{{Source: "greenhouse", Title: "Backend Engineer", Company: "Acme", URL: "https://acme.example/1", FetchedAt: time.Now()}},
		}},
	}
	notifier := &fakeNotifier{}
	store := memory.New()
	o := New(Deps{Store: store, Sources: []Source{src}, Boards: store, Config: cfg, Notifier: notifier})

	result, err := o.Run(context.Background(), models.RunTypeBackfill, false, true, RunConnectorOptions{IncludeATS: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Counts["alertsSent"] != 0 {
		t.Errorf("expected no alerts during backfill, got %d", result.Counts["alertsSent"])
	}
	if len(notifier.alerts) != 0 {
		t.Errorf("expected no alerts recorded during backfill, got %v", notifier.alerts)
	}
}

func TestRunConnectorFailureDoesNotAbortAndEmitsSystemAlertOnThirdFailure(t *testing.T) {
	src := Source{
		Name:     "lever",
		Category: "ats",
		Companies: []string{"a", "b", "c"},
		Def:      config.SourceDef{RateLimiting: config.RateLimiting{BatchSize: 1}},
		Connector: &fakeConnector{result: connectors.ConnectorResult{
			Source: "lever", Success: false, Error: errFake,
		}},
	}
	notifier := &fakeNotifier{}
	o := newTestOrchestrator(t, src, notifier)

	result, err := o.Run(context.Background(), models.RunTypeATSSweep, false, false, RunConnectorOptions{IncludeATS: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Status != models.RunStatusCompleted {
		t.Errorf("expected completed status (connector failures never abort a run), got %s", result.Status)
	}

	found := false
	for _, a := range notifier.alerts {
		if a == "system:source \"lever\" has failed 3 times in a row: fake notifier failure" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a system alert on the third consecutive failure, got %v", notifier.alerts)
	}
}
