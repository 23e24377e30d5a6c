// Package api implements the two JSON-API connector families required by
// spec.md §4.2: greenboard (GET, jobs array + numeric ids) and leverpost
// (POST, paginated offset/limit, small JSON body).
package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"jobradar/pkg/connectors"
	"jobradar/pkg/models"
)

// greenboardResponse is the wire shape: a flat jobs array with numeric ids.
type greenboardResponse struct {
	Jobs []greenboardPosting `json:"jobs"`
}

type greenboardPosting struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Location    string `json:"location"`
	Remote      bool   `json:"remote"`
	Description string `json:"description"`
	AbsoluteURL string `json:"absolute_url"`
	UpdatedAt   string `json:"updated_at"`
}

// buildGreenboardURL fails fast (spec.md §4.2: "each connector MUST reject
// its config if required URL templates are absent") rather than silently
// fetching a malformed URL.
func buildGreenboardURL(urlTemplate, company string) (string, error) {
	if urlTemplate == "" {
		return "", fmt.Errorf("api: greenboard: missing urlTemplate")
	}
	return strings.ReplaceAll(urlTemplate, "{company}", company), nil
}

// mapGreenboard converts the decoded response into RawJobs, applying the
// essential mapping obligations from spec.md §4.2.
func mapGreenboard(source, company string, resp greenboardResponse) []models.RawJob {
	jobs := make([]models.RawJob, 0, len(resp.Jobs))
	for _, p := range resp.Jobs {
		title := strings.TrimSpace(p.Title)
		if title == "" {
			title = "Untitled Role"
		}

		sourceJobID := ""
		if p.ID != 0 {
			sourceJobID = strconv.FormatInt(p.ID, 10)
		} else {
			sourceJobID = connectors.SynthesizeID(source, company, title)
		}

		locationRaw := strings.TrimSpace(p.Location)
		if p.Remote && !strings.Contains(strings.ToLower(locationRaw), "remote") {
			locationRaw = strings.TrimSpace(locationRaw + " (remote)")
		}

		var postedAt *time.Time
		if t, err := time.Parse(time.RFC3339, p.UpdatedAt); err == nil {
			postedAt = &t
		}

		payload, _ := json.Marshal(p)
		jobs = append(jobs, models.RawJob{
			Source:      source,
			SourceJobID: sourceJobID,
			Title:       title,
			Company:     company,
			URL:         p.AbsoluteURL,
			LocationRaw: locationRaw,
			Content:     p.Description,
			PostedAtRaw: postedAt,
			RawPayload:  string(payload),
		})
	}
	return jobs
}
