package notifier

import (
	"context"
	"testing"
	"time"

	"jobradar/pkg/models"
	"jobradar/pkg/storage/memory"
)

func TestSendAlertDryRunSkipsDelivery(t *testing.T) {
	store := memory.New()
	n := NewTelegramNotifier(&BotClients{JobsToken: "tok", JobsChatID: "1"}, store, nil, true)

	job := &models.CanonicalJob{Title: "Backend Engineer", Company: "Acme", Score: 90, ScoreBand: models.ScoreBandTopPriority}
	if err := n.SendAlert(context.Background(), job, nil); err != nil {
		t.Fatalf("expected no error in dry run, got %v", err)
	}

	items, err := store.GetDue(context.Background(), time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Errorf("expected no retry items queued during dry run, got %d", len(items))
	}
}

func TestSendAlertWithoutTokenIsSkippedNotFailed(t *testing.T) {
	store := memory.New()
	n := NewTelegramNotifier(&BotClients{}, store, nil, false)

	job := &models.CanonicalJob{Title: "Backend Engineer", Company: "Acme"}
	if err := n.SendAlert(context.Background(), job, nil); err != nil {
		t.Fatalf("expected missing-token to be a soft skip, got %v", err)
	}
}

func TestFormatAlertIncludesFitSummary(t *testing.T) {
	job := &models.CanonicalJob{Title: "Backend Engineer", Company: "Acme", City: "Toronto", WorkMode: models.WorkModeHybrid, Score: 85, ScoreBand: models.ScoreBandGoodMatch}
	fit := &models.FitAnalysis{FitScore: 80, Verdict: models.VerdictStrong, Summary: "solid match"}
	text := formatAlert(job, fit)
	if !contains(text, "solid match") || !contains(text, "Toronto") {
		t.Errorf("expected formatted alert to include fit summary and city, got %q", text)
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (func() bool {
		for i := 0; i+len(substr) <= len(s); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	})()
}
