package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RunType distinguishes the scheduler's cron slots and the CLI's ad-hoc
// invocations, for RunLog.Type.
type RunType string

const (
	RunTypeATSSweep           RunType = "ats_sweep"
	RunTypeAggregatorSweep    RunType = "aggregator_sweep"
	RunTypeUndergroundSweep   RunType = "underground_sweep"
	RunTypePreMorning         RunType = "pre_morning"
	RunTypePreEvening         RunType = "pre_evening"
	RunTypeBackfill           RunType = "backfill"
	RunTypeCatchUp            RunType = "catch_up"
	RunTypeReplay             RunType = "replay"
)

// RunStatus is the RunLog's closed completion state.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunLog is one row per pipeline invocation (spec.md §3/§4.8).
type RunLog struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Type       RunType    `json:"type" gorm:"type:varchar(32);not null;index"`
	DryRun     bool       `json:"dryRun"`
	IsBackfill bool       `json:"isBackfill"`
	StartedAt  time.Time  `json:"startedAt" gorm:"not null"`
	FinishedAt *time.Time `json:"finishedAt"`
	Status     RunStatus  `json:"status" gorm:"type:varchar(16);not null;default:running;index"`
	Counts     Counts     `json:"counts" gorm:"type:jsonb"`
	Errors     StringList `json:"errors" gorm:"type:jsonb"`
}

func (r *RunLog) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}
	return nil
}

// SourceMetric is a daily additive-upsert aggregate per source
// (spec.md §3, unique on (source, date)).
type SourceMetric struct {
	ID                 uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Source             string    `json:"source" gorm:"not null;uniqueIndex:idx_source_date"`
	Date               time.Time `json:"date" gorm:"type:date;not null;uniqueIndex:idx_source_date"`
	JobsFound          int       `json:"jobsFound"`
	JobsNew            int       `json:"jobsNew"`
	JobsDuplicate      int       `json:"jobsDuplicate"`
	ParseFailures      int       `json:"parseFailures"`
	RateLimitHits      int       `json:"rateLimitHits"`
	ResponseTimeAvgMs  float64   `json:"responseTimeAvgMs"`
	SuccessRate        float64   `json:"successRate"`
	sampleCount        int       // transient, used while accumulating the running average; not persisted
}

func (s *SourceMetric) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// RetryQueueItem is a notification that failed to send, re-attempted on an
// exponential schedule (spec.md §3/§10).
type RetryQueueItem struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Message      string    `json:"message" gorm:"not null"`
	BotType      string    `json:"botType" gorm:"not null"` // "jobs" or "logs"
	RetryCount   int       `json:"retryCount"`
	NextRetryAt  time.Time `json:"nextRetryAt" gorm:"not null;index"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (r *RetryQueueItem) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ConnectorCheckpoint is the persistence contract's "connector checkpoints:
// success/failure counter per source/company" (spec.md §4.10).
type ConnectorCheckpoint struct {
	Source         string    `json:"source" gorm:"primaryKey"`
	Company        string    `json:"company" gorm:"primaryKey"`
	SuccessCount   int       `json:"successCount"`
	FailureCount   int       `json:"failureCount"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
