package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	config "jobradar/configs"
	"jobradar/pkg/connectors"
	"jobradar/pkg/fetch"
	"jobradar/pkg/models"
)

const leverpostPageSize = 25

// leverpostRequest is the small JSON body the paginated POST endpoint
// accepts (spec.md §4.2: "the orchestrator treats it as a POST with a
// small JSON body and paginated offset/limit").
type leverpostRequest struct {
	Company string `json:"company"`
	Offset  int    `json:"offset"`
	Limit   int    `json:"limit"`
}

type leverpostResponse struct {
	Postings   []leverpostPosting `json:"postings"`
	TotalCount int                `json:"totalCount"`
}

type leverpostPosting struct {
	ID          string            `json:"id"`
	Text        string            `json:"text"`
	DescHTML    string            `json:"descriptionPlain"`
	Categories  map[string]string `json:"categories"`
	HostedURL   string            `json:"hostedUrl"`
	CreatedAt   int64             `json:"createdAt"` // epoch millis
}

// LeverpostConnector fetches one company's postings from a paginated
// offset/limit POST endpoint, stopping once a page returns fewer entries
// than requested or the reported total is exhausted.
type LeverpostConnector struct {
	HTTP   *fetch.Client
	Source string
}

func NewLeverpostConnector(http *fetch.Client, source string) *LeverpostConnector {
	return &LeverpostConnector{HTTP: http, Source: source}
}

func (c *LeverpostConnector) Fetch(ctx context.Context, company string, def config.SourceDef) connectors.ConnectorResult {
	result := connectors.ConnectorResult{Source: c.Source, Company: company}

	if def.EndpointTemplate == "" {
		result.Error = fmt.Errorf("leverpost: missing endpointTemplate")
		return result
	}
	url := strings.ReplaceAll(def.EndpointTemplate, "{company}", company)

	timeout := time.Duration(def.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var all []models.RawJob
	offset := 0
	var totalResponseMs int64

	for {
		body, err := json.Marshal(leverpostRequest{Company: company, Offset: offset, Limit: leverpostPageSize})
		if err != nil {
			result.Error = fmt.Errorf("leverpost: encode request: %w", err)
			return result
		}

		res := c.HTTP.Fetch(ctx, url, fetch.Options{
			Method:         "POST",
			Body:           body,
			Headers:        map[string]string{"Content-Type": "application/json"},
			Timeout:        timeout,
			MaxRetries:     def.RateLimiting.MaxRetries,
			BackoffStartMs: def.RateLimiting.BackoffStartMs,
		})
		totalResponseMs += res.ResponseTimeMs
		if res.RateLimited {
			result.RateLimited = true
		}
		if res.Err != nil {
			result.Error = fmt.Errorf("leverpost: fetch %s offset %d: %w", company, offset, res.Err)
			result.ResponseTimeMs = totalResponseMs
			return result
		}

		var decoded leverpostResponse
		if err := json.Unmarshal(res.Data, &decoded); err != nil {
			result.Error = fmt.Errorf("leverpost: decode %s offset %d: %w", company, offset, err)
			result.ResponseTimeMs = totalResponseMs
			return result
		}

		all = append(all, mapLeverpost(c.Source, company, decoded.Postings)...)

		if len(decoded.Postings) < leverpostPageSize || len(all) >= decoded.TotalCount {
			break
		}
		offset += leverpostPageSize
	}

	result.Jobs = all
	result.Success = true
	result.ResponseTimeMs = totalResponseMs
	return result
}

func mapLeverpost(source, company string, postings []leverpostPosting) []models.RawJob {
	jobs := make([]models.RawJob, 0, len(postings))
	for _, p := range postings {
		title := strings.TrimSpace(p.Text)
		if title == "" {
			title = "Untitled Role"
		}
		sourceJobID := p.ID
		if sourceJobID == "" {
			sourceJobID = connectors.SynthesizeID(source, company, title)
		}

		var locationRaw string
		if loc, ok := p.Categories["location"]; ok {
			locationRaw = strings.TrimSpace(loc)
		}

		var postedAt *time.Time
		if p.CreatedAt > 0 {
			t := time.UnixMilli(p.CreatedAt)
			postedAt = &t
		}

		payload, _ := json.Marshal(p)
		url := p.HostedURL
		if url == "" {
			url = fmt.Sprintf("https://jobs.lever.co/%s/%s", company, p.ID)
		}

		jobs = append(jobs, models.RawJob{
			Source:      source,
			SourceJobID: sourceJobID,
			Title:       title,
			Company:     company,
			URL:         url,
			LocationRaw: locationRaw,
			Content:     p.DescHTML,
			PostedAtRaw: postedAt,
			RawPayload:  string(payload),
		})
	}
	return jobs
}

var _ connectors.Connector = (*LeverpostConnector)(nil)
