package llm

import (
	"html"
	"regexp"
	"strings"
)

// maxDescriptionChars is the truncation bound from spec.md §4.7.
const maxDescriptionChars = 8000

const truncationMarker = "\n...[truncated]"

var tagPattern = regexp.MustCompile(`<[^>]*>`)
var whitespacePattern = regexp.MustCompile(`\s+`)

// PrepareDescription strips HTML, decodes entities, collapses whitespace,
// and truncates to maxDescriptionChars with a trailing marker, per
// spec.md §4.7.
func PrepareDescription(raw string) string {
	stripped := tagPattern.ReplaceAllString(raw, " ")
	decoded := html.UnescapeString(stripped)
	collapsed := strings.TrimSpace(whitespacePattern.ReplaceAllString(decoded, " "))

	if len(collapsed) <= maxDescriptionChars {
		return collapsed
	}
	return collapsed[:maxDescriptionChars] + truncationMarker
}

const systemPrompt = `You are a resume-fit analyzer. Compare the candidate's resume against the job posting and return ONLY a JSON object with this exact schema:
{"fitScore": number (0-100), "verdict": "strong"|"moderate"|"weak"|"stretch", "summary": string, "strengths": string[], "gaps": string[], "matchedSkills": string[], "missingSkills": string[], "bonusSkills": string[], "experienceLevelMatch": string, "domainRelevance": string, "recommendation": string, "tailoringTips": string[], "coverLetterPoints": string[]}
Do not include any text outside the JSON object.`

// BuildUserPrompt lays out the resume and job posting in the labeled
// format spec.md §4.7 describes ("resume + job posting in a labeled
// layout").
func BuildUserPrompt(title, company, resume, description string) string {
	var b strings.Builder
	b.WriteString("RESUME:\n")
	b.WriteString(resume)
	b.WriteString("\n\nJOB POSTING:\n")
	b.WriteString("Title: ")
	b.WriteString(title)
	b.WriteString("\nCompany: ")
	b.WriteString(company)
	b.WriteString("\nDescription:\n")
	b.WriteString(description)
	return b.String()
}
