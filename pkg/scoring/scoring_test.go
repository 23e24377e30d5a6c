package scoring

import (
	"testing"
	"time"

	config "jobradar/configs"
	"jobradar/pkg/models"
)

func hoursPtr(h float64) *float64 { return &h }

func testScoringConfig() config.ScoringConfig {
	var cfg config.ScoringConfig
	cfg.Freshness.Brackets = []config.FreshnessBracket{
		{MaxHours: hoursPtr(24), Points: 50},
		{MaxHours: hoursPtr(72), Points: 30},
		{MaxHours: nil, Points: 5},
	}
	cfg.Freshness.LowConfidenceCap = 10
	cfg.Bands = map[string]config.BandConfig{
		"topPriority": {MinScore: 80},
		"goodMatch":   {MinScore: 40},
		"worthALook":  {MinScore: 0},
	}
	return cfg
}

func TestFreshnessPicksFirstMatchingBracket(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	posted := now.Add(-10 * time.Hour)
	cfg := testScoringConfig()
	got := Freshness(&posted, nil, models.ConfidenceHigh, now, cfg)
	if got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
}

func TestFreshnessFutureDatedClampsToZeroHours(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	future := now.Add(5 * time.Hour)
	cfg := testScoringConfig()
	got := Freshness(&future, nil, models.ConfidenceHigh, now, cfg)
	if got != 50 {
		t.Fatalf("expected top bracket for future-dated posting, got %d", got)
	}
}

func TestFreshnessLowConfidenceCapsPoints(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	posted := now.Add(-10 * time.Hour)
	cfg := testScoringConfig()
	got := Freshness(&posted, nil, models.ConfidenceLow, now, cfg)
	if got != cfg.Freshness.LowConfidenceCap {
		t.Fatalf("expected capped at %d, got %d", cfg.Freshness.LowConfidenceCap, got)
	}
}

func TestBandPicksHighestQualifying(t *testing.T) {
	cfg := testScoringConfig()
	if b := Band(85, cfg.Bands); b != models.ScoreBandTopPriority {
		t.Fatalf("expected topPriority, got %s", b)
	}
	if b := Band(50, cfg.Bands); b != models.ScoreBandGoodMatch {
		t.Fatalf("expected goodMatch, got %s", b)
	}
	if b := Band(0, cfg.Bands); b != models.ScoreBandWorthALook {
		t.Fatalf("expected worthALook, got %s", b)
	}
}

func TestModeFallsBackToUnknown(t *testing.T) {
	modes := config.ModesConfig{
		"unknown": {Points: -5},
	}
	got := Mode(models.WorkMode("something-unconfigured"), modes)
	if got != -5 {
		t.Fatalf("expected fallback to unknown's points, got %d", got)
	}
}
