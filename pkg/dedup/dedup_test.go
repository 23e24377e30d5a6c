package dedup

import (
	"context"
	"testing"
	"time"

	"jobradar/pkg/models"
	"jobradar/pkg/storage/memory"
)

func TestSimilarityIdentical(t *testing.T) {
	if s := Similarity("acme | engineer | toronto", "acme | engineer | toronto"); s != 1 {
		t.Fatalf("expected 1.0 for identical strings, got %f", s)
	}
}

func TestSimilarityCloseVariants(t *testing.T) {
	s := Similarity("acme inc | senior engineer | toronto", "acme | senior engineer | toronto")
	if s < 0.85 {
		t.Fatalf("expected near-duplicate strings to score >= 0.85, got %f", s)
	}
}

func TestCheckURLHashExactDuplicate(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	existing := &models.CanonicalJob{URLHash: "hash1", Status: models.StatusActive}
	if err := store.InsertCanonicalJob(ctx, existing); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	idx := &Index{}
	candidate := &models.CanonicalJob{URLHash: "hash1", Company: "acme", Title: "engineer"}
	outcome, err := Check(ctx, store, idx, candidate, time.Now())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !outcome.IsDuplicate || outcome.Method != models.DedupMethodURLHash {
		t.Fatalf("expected url_hash duplicate, got %+v", outcome)
	}
}

func TestCheckContentFingerprintRepostAfterWindow(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	old := time.Now().UTC().AddDate(0, 0, -30)
	existing := &models.CanonicalJob{
		URLHash:            "hash-old",
		ContentFingerprint: "fp1",
		Status:             models.StatusActive,
		FirstSeenAt:        old,
	}
	if err := store.InsertCanonicalJob(ctx, existing); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	idx := &Index{}
	candidate := &models.CanonicalJob{URLHash: "hash-new", ContentFingerprint: "fp1"}
	outcome, err := Check(ctx, store, idx, candidate, time.Now())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !outcome.IsRepost || outcome.IsDuplicate {
		t.Fatalf("expected repost (not duplicate) past the window, got %+v", outcome)
	}
	if outcome.OriginalPostDate == nil {
		t.Fatal("expected OriginalPostDate to be set")
	}
}

func TestCheckNoMatchIsNeitherDuplicateNorRepost(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	idx := &Index{}
	candidate := &models.CanonicalJob{URLHash: "unique-hash", ContentFingerprint: "unique-fp"}
	outcome, err := Check(ctx, store, idx, candidate, time.Now())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if outcome.IsDuplicate || outcome.IsRepost {
		t.Fatalf("expected no match, got %+v", outcome)
	}
}
