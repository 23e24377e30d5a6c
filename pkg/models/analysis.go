package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Verdict is the LLM fit analyzer's closed-variant overall call.
type Verdict string

const (
	VerdictStrong   Verdict = "strong"
	VerdictModerate Verdict = "moderate"
	VerdictWeak     Verdict = "weak"
	VerdictStretch  Verdict = "stretch"
)

// FitAnalysis is at most one row per CanonicalJob (spec.md §3).
type FitAnalysis struct {
	ID                   uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	CanonicalJobID       uuid.UUID  `json:"canonicalJobId" gorm:"type:uuid;uniqueIndex;not null"`
	FitScore             int        `json:"fitScore"`
	Verdict              Verdict    `json:"verdict" gorm:"type:varchar(16)"`
	Summary              string     `json:"summary"`
	Strengths            StringList `json:"strengths" gorm:"type:jsonb"`
	Gaps                 StringList `json:"gaps" gorm:"type:jsonb"`
	MatchedSkills        StringList `json:"matchedSkills" gorm:"type:jsonb"`
	MissingSkills        StringList `json:"missingSkills" gorm:"type:jsonb"`
	BonusSkills          StringList `json:"bonusSkills" gorm:"type:jsonb"`
	TailoringTips        StringList `json:"tailoringTips" gorm:"type:jsonb"`
	CoverLetterPoints    StringList `json:"coverLetterPoints" gorm:"type:jsonb"`
	ExperienceLevelMatch string     `json:"experienceLevelMatch"`
	DomainRelevance      string     `json:"domainRelevance"`
	Recommendation       string     `json:"recommendation"`
	Provider             string     `json:"provider"`
	ModelUsed            string     `json:"modelUsed"`
	PromptTokens         int        `json:"promptTokens"`
	CompletionTokens     int        `json:"completionTokens"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

func (f *FitAnalysis) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
