package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BoardStatus is a closed variant for DiscoveredBoard.Status.
type BoardStatus string

const (
	BoardStatusActive   BoardStatus = "active"
	BoardStatusInactive BoardStatus = "inactive"
)

// MaxConsecutiveZeroYieldRuns is the retirement threshold from spec.md
// §4.3: a board polled this many times in a row with zero new jobs is
// marked inactive.
const MaxConsecutiveZeroYieldRuns = 10

// DiscoveredBoard is the registry of ATS boards found by discovery
// (spec.md §4.3).
type DiscoveredBoard struct {
	ID                      uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	Platform                string      `json:"platform" gorm:"not null;index"`
	BoardURL                string      `json:"boardUrl" gorm:"uniqueIndex;not null"`
	BoardSlug               string      `json:"boardSlug" gorm:"not null"`
	Confidence              float64     `json:"confidence"`
	Status                  BoardStatus `json:"status" gorm:"type:varchar(16);not null;default:active"`
	LastSuccessAt           *time.Time  `json:"lastSuccessAt"`
	LastSeenAt              time.Time   `json:"lastSeenAt"`
	ConsecutiveZeroYieldRuns int        `json:"consecutiveZeroYieldRuns"`
	CreatedAt               time.Time   `json:"createdAt"`
	UpdatedAt               time.Time   `json:"updatedAt"`
}

func (b *DiscoveredBoard) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// AlternateURL is a secondary URL for a canonical job surfaced by another
// source, unique per (canonicalJobId, source).
type AlternateURL struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CanonicalJobID uuid.UUID `json:"canonicalJobId" gorm:"type:uuid;not null;uniqueIndex:idx_canonical_source"`
	Source         string    `json:"source" gorm:"not null;uniqueIndex:idx_canonical_source"`
	URL            string    `json:"url" gorm:"not null"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (a *AlternateURL) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// DedupMethod is the closed variant recording which pass found a duplicate.
type DedupMethod string

const (
	DedupMethodURLHash            DedupMethod = "url_hash"
	DedupMethodFuzzyKey           DedupMethod = "fuzzy_key"
	DedupMethodContentFingerprint DedupMethod = "content_fingerprint"
)

// JobDuplicate records a potential-duplicate edge written when the fuzzy
// pass matches in the 0.70-0.85 band (spec.md §4.8 step 5).
type JobDuplicate struct {
	ID            uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	NewJobID      uuid.UUID   `json:"newJobId" gorm:"type:uuid;not null;index"`
	ExistingJobID uuid.UUID   `json:"existingJobId" gorm:"type:uuid;not null;index"`
	Method        DedupMethod `json:"method" gorm:"type:varchar(32);not null"`
	Similarity    float64     `json:"similarity"`
	IsPotential   bool        `json:"isPotential"`
	CreatedAt     time.Time   `json:"createdAt"`
}

func (j *JobDuplicate) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}
