package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"jobradar/pkg/models"
)

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)
var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// rawResponse mirrors the schema spec.md §4.7 requires the model return.
type rawResponse struct {
	FitScore             *float64 `json:"fitScore"`
	Verdict              *string  `json:"verdict"`
	Summary              *string  `json:"summary"`
	Strengths            []string `json:"strengths"`
	Gaps                 []string `json:"gaps"`
	MatchedSkills        []string `json:"matchedSkills"`
	MissingSkills        []string `json:"missingSkills"`
	BonusSkills          []string `json:"bonusSkills"`
	TailoringTips        []string `json:"tailoringTips"`
	CoverLetterPoints    []string `json:"coverLetterPoints"`
	ExperienceLevelMatch *string  `json:"experienceLevelMatch"`
	DomainRelevance      *string  `json:"domainRelevance"`
	Recommendation       *string  `json:"recommendation"`
}

// parseResponse implements spec.md §4.7's response-parsing contract:
// strip <think> sections and fenced code blocks, decode JSON, require
// fitScore/verdict/summary, clamp fitScore to [0,100], and coerce absent
// arrays/strings to their zero values. Returns an error (not a partial
// result) when a required field is missing — the caller maps that to
// "fall back to next provider; else return null".
func parseResponse(content string) (*models.FitAnalysis, error) {
	cleaned := thinkBlock.ReplaceAllString(content, "")
	if m := fencedBlock.FindStringSubmatch(cleaned); m != nil {
		cleaned = m[1]
	}
	cleaned = strings.TrimSpace(cleaned)

	var raw rawResponse
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("llm: parse response json: %w", err)
	}
	if raw.FitScore == nil || raw.Verdict == nil || raw.Summary == nil {
		return nil, fmt.Errorf("llm: missing required field (fitScore/verdict/summary)")
	}

	score := int(*raw.FitScore + 0.5)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	experienceLevelMatch := "unknown"
	if raw.ExperienceLevelMatch != nil && strings.TrimSpace(*raw.ExperienceLevelMatch) != "" {
		experienceLevelMatch = *raw.ExperienceLevelMatch
	}

	return &models.FitAnalysis{
		FitScore:             score,
		Verdict:              models.Verdict(*raw.Verdict),
		Summary:              *raw.Summary,
		Strengths:            orEmpty(raw.Strengths),
		Gaps:                 orEmpty(raw.Gaps),
		MatchedSkills:        orEmpty(raw.MatchedSkills),
		MissingSkills:        orEmpty(raw.MissingSkills),
		BonusSkills:          orEmpty(raw.BonusSkills),
		TailoringTips:        orEmpty(raw.TailoringTips),
		CoverLetterPoints:    orEmpty(raw.CoverLetterPoints),
		ExperienceLevelMatch: experienceLevelMatch,
		DomainRelevance:      derefOr(raw.DomainRelevance, ""),
		Recommendation:       derefOr(raw.Recommendation, ""),
	}, nil
}

func orEmpty(s []string) models.StringList {
	if s == nil {
		return models.StringList{}
	}
	return models.StringList(s)
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
