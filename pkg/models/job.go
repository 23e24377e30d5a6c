package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkMode is a closed variant per spec.md's Design Notes: sum types at the
// store/wire boundary map through a single total string mapping.
type WorkMode string

const (
	WorkModeOnsite  WorkMode = "onsite"
	WorkModeHybrid  WorkMode = "hybrid"
	WorkModeRemote  WorkMode = "remote"
	WorkModeUnknown WorkMode = "unknown"
)

// TitleBucket classifies a job title against the configured include/maybe/
// reject substring lists. A CanonicalJob is never persisted with bucket
// "reject".
type TitleBucket string

const (
	TitleBucketInclude TitleBucket = "include"
	TitleBucketMaybe   TitleBucket = "maybe"
	TitleBucketReject  TitleBucket = "reject"
)

// ScoreBand is the named bucket a total score falls into.
type ScoreBand string

const (
	ScoreBandTopPriority ScoreBand = "topPriority"
	ScoreBandGoodMatch   ScoreBand = "goodMatch"
	ScoreBandWorthALook  ScoreBand = "worthALook"
)

// TimestampConfidence records how trustworthy a parsed postedAt is.
type TimestampConfidence string

const (
	ConfidenceHigh   TimestampConfidence = "high"
	ConfidenceMedium TimestampConfidence = "medium"
	ConfidenceLow    TimestampConfidence = "low"
)

// JobStatus is the CanonicalJob lifecycle state. Transitions are monotone:
// active -> {applied|dismissed|expired|archived}, never back.
type JobStatus string

const (
	StatusActive    JobStatus = "active"
	StatusApplied   JobStatus = "applied"
	StatusDismissed JobStatus = "dismissed"
	StatusExpired   JobStatus = "expired"
	StatusArchived  JobStatus = "archived"
)

// CanTransitionTo enforces the monotone status invariant from spec.md §3.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	if s != StatusActive {
		return false
	}
	switch next {
	case StatusApplied, StatusDismissed, StatusExpired, StatusArchived:
		return true
	default:
		return false
	}
}

// RawJob is the untransformed capture from a connector. Stored exactly once
// per poll yielding it; referenced by at most one CanonicalJob.
type RawJob struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Source      string     `json:"source" gorm:"not null;index"`
	SourceJobID string     `json:"sourceJobId" gorm:"not null"`
	Title       string     `json:"title" gorm:"not null"`
	Company     string     `json:"company" gorm:"not null"`
	URL         string     `json:"url" gorm:"not null"`
	LocationRaw string     `json:"locationRaw"`
	Content     string     `json:"content"`
	PostedAtRaw *time.Time `json:"postedAt"`
	// RawPayload holds the original serialized document inline when small;
	// once it exceeds the archival threshold it is written to pkg/storage/blob
	// and BlobKey records where, with RawPayload left empty.
	RawPayload  string     `json:"rawPayload,omitempty"`
	BlobKey     string     `json:"blobKey,omitempty" gorm:"index"`
	CanonicalID *uuid.UUID `json:"canonicalId" gorm:"type:uuid;index"`
	FetchedAt   time.Time  `json:"fetchedAt" gorm:"not null;index"`
}

func (r *RawJob) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.FetchedAt.IsZero() {
		r.FetchedAt = time.Now().UTC()
	}
	return nil
}

// CanonicalJob is the normalized, scored, deduplicated job record.
type CanonicalJob struct {
	ID                 uuid.UUID           `json:"id" gorm:"type:uuid;primaryKey"`
	RawJobID            uuid.UUID           `json:"rawJobId" gorm:"type:uuid;not null;index"`
	Source              string              `json:"source" gorm:"not null;index"`
	Title                string              `json:"title" gorm:"not null"`
	Company              string              `json:"company" gorm:"not null;index"`
	URL                  string              `json:"url" gorm:"not null"`
	URLHash              string              `json:"urlHash" gorm:"uniqueIndex;not null"`
	ContentFingerprint   string              `json:"contentFingerprint" gorm:"index;not null"`
	City                 string              `json:"city"`
	Province             string              `json:"province"`
	Country              string              `json:"country"`
	LocationTier         string              `json:"locationTier"` // "" means no tier matched (spec's null)
	WorkMode             WorkMode            `json:"workMode" gorm:"type:varchar(16);not null"`
	TitleBucket          TitleBucket         `json:"titleBucket" gorm:"type:varchar(16);not null"`
	Score                int                 `json:"score" gorm:"index"`
	ScoreFreshness       int                 `json:"scoreFreshness"`
	ScoreLocation        int                 `json:"scoreLocation"`
	ScoreMode            int                 `json:"scoreMode"`
	ScoreBand            ScoreBand           `json:"scoreBand" gorm:"type:varchar(16);index"`
	PostedAt             *time.Time          `json:"postedAt"`
	PostedAtConfidence   TimestampConfidence `json:"postedAtConfidence" gorm:"type:varchar(8)"`
	FirstSeenAt          time.Time           `json:"firstSeenAt" gorm:"not null;index"`
	Status               JobStatus           `json:"status" gorm:"type:varchar(16);not null;default:active;index"`
	IsBackfill           bool                `json:"isBackfill"`
	IsReposted           bool                `json:"isReposted"`
	OriginalPostDate     *time.Time          `json:"originalPostDate"`
	CreatedAt            time.Time           `json:"createdAt"`
	UpdatedAt            time.Time           `json:"updatedAt"`
}

func (c *CanonicalJob) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.FirstSeenAt.IsZero() {
		c.FirstSeenAt = time.Now().UTC()
	}
	return nil
}

// FuzzyKey builds the lowercased, trimmed "company | title | city" key used
// by the dedup engine's fuzzy pass (spec.md §4.5).
func (c *CanonicalJob) FuzzyKey() string {
	return FuzzyKey(c.Company, c.Title, c.City)
}
