package dateparse

import (
	"testing"
	"time"
)

func TestParseRelative(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, loc)

	cases := []struct {
		in       string
		wantDate string
	}{
		{"today", "2026-03-15"},
		{"yesterday", "2026-03-14"},
		{"3 days ago", "2026-03-12"},
		{"2 weeks ago", "2026-03-01"},
		{"1 hour ago", "2026-03-15"},
	}
	for _, c := range cases {
		got, _, ok := Parse(c.in, now, loc)
		if !ok {
			t.Fatalf("Parse(%q) not ok", c.in)
		}
		if got.Format("2006-01-02") != c.wantDate {
			t.Errorf("Parse(%q) = %s, want %s", c.in, got.Format("2006-01-02"), c.wantDate)
		}
	}
}

func TestParseShortDate(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, loc)

	got, conf, ok := Parse("Jan 2, 2026", now, loc)
	if !ok {
		t.Fatal("expected parse ok")
	}
	if got.Year() != 2026 || got.Month() != time.January || got.Day() != 2 {
		t.Errorf("got %v", got)
	}
	if conf != ConfidenceMedium {
		t.Errorf("expected medium confidence, got %s", conf)
	}
}

func TestParseUnrecognized(t *testing.T) {
	_, _, ok := Parse("whenever", time.Now(), time.UTC)
	if ok {
		t.Fatal("expected unrecognized phrase to fail")
	}
}
