package llm

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestPoolAcquireReleaseRoundRobin(t *testing.T) {
	p := NewPool([]string{"a", "b"})
	ctx := context.Background()

	k1, err := p.Acquire(ctx)
	if err != nil {
		t.Fatal(err)
	}
	k2, err := p.Acquire(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if k1 == k2 {
		t.Fatalf("expected distinct keys, got %q twice", k1)
	}

	// both keys now busy; next acquire must wait until a release
	p.AcquireTimeout = 50 * time.Millisecond
	done := make(chan string, 1)
	go func() {
		k, _ := p.Acquire(context.Background())
		done <- k
	}()
	time.Sleep(10 * time.Millisecond)
	p.Release(k1)
	select {
	case got := <-done:
		if got != k1 {
			t.Errorf("expected waiter to receive released key %q, got %q", k1, got)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("waiter never received a key")
	}
}

func TestPoolAcquireTimesOut(t *testing.T) {
	p := NewPool([]string{"only"})
	p.AcquireTimeout = 20 * time.Millisecond
	ctx := context.Background()

	if _, err := p.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Acquire(ctx); err != ErrPoolTimeout {
		t.Errorf("expected ErrPoolTimeout, got %v", err)
	}
}

func TestPoolEmptyKeysStillSizeOne(t *testing.T) {
	p := NewPool(nil)
	if p.Size() != 1 {
		t.Errorf("expected size 1 for empty key list, got %d", p.Size())
	}
}

func TestParseResponseStripsThinkAndFence(t *testing.T) {
	content := "<think>reasoning here</think>\n```json\n{\"fitScore\": 87.6, \"verdict\": \"strong\", \"summary\": \"great match\"}\n```"
	analysis, err := parseResponse(content)
	if err != nil {
		t.Fatal(err)
	}
	if analysis.FitScore != 88 {
		t.Errorf("expected rounded score 88, got %d", analysis.FitScore)
	}
	if analysis.Verdict != "strong" {
		t.Errorf("unexpected verdict: %v", analysis.Verdict)
	}
}

func TestParseResponseClampsOutOfRangeScore(t *testing.T) {
	analysis, err := parseResponse(`{"fitScore": 150, "verdict": "strong", "summary": "x"}`)
	if err != nil {
		t.Fatal(err)
	}
	if analysis.FitScore != 100 {
		t.Errorf("expected clamp to 100, got %d", analysis.FitScore)
	}
}

func TestParseResponseMissingRequiredFieldErrors(t *testing.T) {
	if _, err := parseResponse(`{"fitScore": 50, "summary": "x"}`); err == nil {
		t.Fatal("expected error for missing verdict")
	}
}

func TestParseResponseDefaultsExperienceLevelMatch(t *testing.T) {
	analysis, err := parseResponse(`{"fitScore": 50, "verdict": "moderate", "summary": "x"}`)
	if err != nil {
		t.Fatal(err)
	}
	if analysis.ExperienceLevelMatch != "unknown" {
		t.Errorf("expected default unknown, got %q", analysis.ExperienceLevelMatch)
	}
	if analysis.Strengths == nil || len(analysis.Strengths) != 0 {
		t.Errorf("expected coerced empty slice, got %v", analysis.Strengths)
	}
}

func TestPrepareDescriptionStripsTagsAndTruncates(t *testing.T) {
	raw := "<p>Hello &amp; welcome</p>" + strings.Repeat("x", 9000)
	out := PrepareDescription(raw)
	if strings.Contains(out, "<p>") {
		t.Error("expected tags stripped")
	}
	if !strings.Contains(out, "Hello & welcome") {
		t.Error("expected entity decoded")
	}
	if !strings.HasSuffix(out, truncationMarker) {
		t.Error("expected truncation marker appended")
	}
	if len(out) > maxDescriptionChars+len(truncationMarker) {
		t.Errorf("expected truncation, got length %d", len(out))
	}
}
