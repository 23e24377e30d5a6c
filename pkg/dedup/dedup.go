// Package dedup implements C5's three-pass duplicate detector, per
// spec.md §4.5: URL hash exact match, fuzzy identity over a pre-loaded
// in-memory index, then content fingerprint with repost detection.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"jobradar/pkg/models"
	"jobradar/pkg/storage"
)

const (
	fuzzyDuplicateThreshold  = 0.85
	fuzzyPotentialThreshold  = 0.70
	repostWindowDays         = 7
	defaultFuzzyIndexWindow  = 7
)

// Outcome is the result of running a candidate RawJob/CanonicalJob pair
// through all three passes.
type Outcome struct {
	IsDuplicate         bool
	IsPotentialDuplicate bool
	Method              models.DedupMethod
	Similarity          float64
	ExistingJobID       uuid.UUID
	ExistingSource      string // source of the matched job, for spec.md §4.5's cross-source AlternateURL gate
	IsRepost            bool
	OriginalPostDate    *time.Time
}

// Index is the in-memory fuzzy-identity index, built once per pipeline
// run (spec.md §4.5: "built once per pipeline run and discarded at end")
// and keyed by the lowercased "company | title | city" string.
type Index struct {
	entries []indexEntry
}

type indexEntry struct {
	key string
	job models.CanonicalJob
}

// BuildIndex loads all active canonical jobs first seen within windowDays
// (default 7) into a fresh Index. Handles the empty-result case.
func BuildIndex(ctx context.Context, store storage.CanonicalJobStore, windowDays int) (*Index, error) {
	if windowDays <= 0 {
		windowDays = defaultFuzzyIndexWindow
	}
	jobs, err := store.GetRecentActive(ctx, windowDays)
	if err != nil {
		return nil, fmt.Errorf("dedup: build fuzzy index: %w", err)
	}
	idx := &Index{entries: make([]indexEntry, 0, len(jobs))}
	for _, j := range jobs {
		idx.entries = append(idx.entries, indexEntry{key: j.FuzzyKey(), job: j})
	}
	return idx, nil
}

// Len reports how many jobs the index currently holds.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// bestMatch returns the highest-similarity entry for key, or ok=false on
// an empty index.
func (idx *Index) bestMatch(key string) (models.CanonicalJob, float64, bool) {
	if idx == nil || len(idx.entries) == 0 {
		return models.CanonicalJob{}, 0, false
	}
	var best models.CanonicalJob
	bestScore := -1.0
	for _, e := range idx.entries {
		score := Similarity(key, e.key)
		if score > bestScore {
			bestScore = score
			best = e.job
		}
	}
	return best, bestScore, true
}

// Check runs the three-pass pipeline against a normalized candidate.
// candidate.URLHash, candidate.ContentFingerprint and candidate.FuzzyKey()
// must already be populated.
func Check(ctx context.Context, store storage.CanonicalJobStore, idx *Index, candidate *models.CanonicalJob, now time.Time) (Outcome, error) {
	// Pass 1: URL hash exact.
	if existing, err := store.GetByURLHash(ctx, candidate.URLHash); err == nil {
		return Outcome{
			IsDuplicate:    true,
			Method:         models.DedupMethodURLHash,
			Similarity:     1,
			ExistingJobID:  existing.ID,
			ExistingSource: existing.Source,
		}, nil
	} else if err != storage.ErrNotFound {
		return Outcome{}, fmt.Errorf("dedup: url hash lookup: %w", err)
	}

	// Pass 2: fuzzy identity over the pre-loaded index.
	if best, score, ok := idx.bestMatch(candidate.FuzzyKey()); ok {
		switch {
		case score >= fuzzyDuplicateThreshold:
			return Outcome{
				IsDuplicate:    true,
				Method:         models.DedupMethodFuzzyKey,
				Similarity:     score,
				ExistingJobID:  best.ID,
				ExistingSource: best.Source,
			}, nil
		case score >= fuzzyPotentialThreshold:
			return Outcome{
				IsDuplicate:          true,
				IsPotentialDuplicate: true,
				Method:               models.DedupMethodFuzzyKey,
				Similarity:           score,
				ExistingJobID:        best.ID,
				ExistingSource:       best.Source,
			}, nil
		}
	}

	// Pass 3: content fingerprint, with repost detection.
	existing, err := store.GetByContentFingerprint(ctx, candidate.ContentFingerprint)
	if err == storage.ErrNotFound {
		return Outcome{}, nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("dedup: content fingerprint lookup: %w", err)
	}

	cutoff := now.AddDate(0, 0, -repostWindowDays)
	if existing.FirstSeenAt.After(cutoff) || existing.FirstSeenAt.Equal(cutoff) {
		return Outcome{
			IsDuplicate:    true,
			Method:         models.DedupMethodContentFingerprint,
			Similarity:     1,
			ExistingJobID:  existing.ID,
			ExistingSource: existing.Source,
		}, nil
	}

	originalDate := existing.PostedAt
	if originalDate == nil {
		originalDate = &existing.FirstSeenAt
	}
	return Outcome{
		IsRepost:         true,
		ExistingJobID:    existing.ID,
		OriginalPostDate: originalDate,
	}, nil
}
