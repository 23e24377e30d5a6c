// Package search implements the search-based connector (C2, spec.md
// §4.2): issues preconfigured queries against pkg/searchapi and builds
// RawJobs from the result items, filtering obviously non-job hits by URL
// shape and blocked-role keyword.
package search

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	config "jobradar/configs"
	"jobradar/pkg/connectors"
	"jobradar/pkg/dateparse"
	"jobradar/pkg/models"
	"jobradar/pkg/searchapi"
)

const resultsPerQuery = 20

// urlShape is one aggregator's allow/deny URL-substring pair (spec.md
// §4.2: "accept /jobs/<digits> but reject /jobs/search").
type urlShape struct {
	allow *regexp.Regexp
	deny  []string
}

// knownShapes maps a host substring to its URL-shape rule. Unrecognized
// hosts are accepted by default — the blocklist/allowlist only tightens
// behavior for aggregators known to emit index pages.
var knownShapes = []struct {
	hostHint string
	shape    urlShape
}{
	{
		hostHint: "indeed.com",
		shape: urlShape{
			allow: regexp.MustCompile(`/viewjob\?jk=[a-z0-9]+`),
			deny:  []string{"/jobs?q=", "/jobs/search"},
		},
	},
	{
		hostHint: "linkedin.com",
		shape: urlShape{
			allow: regexp.MustCompile(`/jobs/view/\d+`),
			deny:  []string{"/jobs/search", "/jobs?"},
		},
	},
}

// blockedRoleKeywords filters obviously out-of-scope roles from title
// text. The list is fixed in code; it is not read from configuration.
var blockedRoleKeywords = []string{"sales", "marketing", "recruiter", "account executive", "business development"}

var titleAt = regexp.MustCompile(`(?i)^(.+?)\s+at\s+(.+)$`)
var titleDash = regexp.MustCompile(`^(.+?)\s*[-–—]\s*(.+)$`)

// Connector issues each configured query against the shared search-API
// client and maps the result page into RawJobs.
type Connector struct {
	Client *searchapi.Client
	Source string
	Clock  func() time.Time
}

func NewConnector(client *searchapi.Client, source string) *Connector {
	return &Connector{Client: client, Source: source, Clock: time.Now}
}

func (c *Connector) Fetch(ctx context.Context, company string, def config.SourceDef) connectors.ConnectorResult {
	result := connectors.ConnectorResult{Source: c.Source, Company: company}

	if len(def.Queries) == 0 {
		result.Error = fmt.Errorf("search: no queries configured for %s", c.Source)
		return result
	}

	now := time.Now
	if c.Clock != nil {
		now = c.Clock
	}

	var all []models.RawJob
	var totalMs int64
	for _, q := range def.Queries {
		start := time.Now()
		resp, err := c.Client.Search(ctx, q, 0, resultsPerQuery)
		totalMs += time.Since(start).Milliseconds()
		if err != nil {
			result.Error = fmt.Errorf("search: query %q: %w", q, err)
			result.ResponseTimeMs = totalMs
			return result
		}
		all = append(all, mapResults(c.Source, resp.Results, now())...)
	}

	result.Jobs = all
	result.Success = true
	result.ResponseTimeMs = totalMs
	return result
}

func mapResults(source string, results []searchapi.Result, now time.Time) []models.RawJob {
	jobs := make([]models.RawJob, 0, len(results))
	for _, r := range results {
		if !passesURLShape(r.Link) || isBlockedRole(r.Title) {
			continue
		}

		company, title := extractCompany(r.Title)

		var postedAt *time.Time
		if t, _, ok := dateparse.Parse(r.Snippet, now, time.UTC); ok {
			postedAt = &t
		}

		jobs = append(jobs, models.RawJob{
			Source:      source,
			SourceJobID: connectors.SynthesizeID(source, company, r.Link),
			Title:       title,
			Company:     company,
			URL:         r.Link,
			Content:     r.Snippet,
			PostedAtRaw: postedAt,
		})
	}
	return jobs
}

// passesURLShape applies the matching aggregator's allow/deny rule, if
// any is known for the link's host. Unknown hosts pass through.
func passesURLShape(link string) bool {
	lower := strings.ToLower(link)
	for _, known := range knownShapes {
		if !strings.Contains(lower, known.hostHint) {
			continue
		}
		for _, d := range known.shape.deny {
			if strings.Contains(lower, d) {
				return false
			}
		}
		if known.shape.allow != nil {
			return known.shape.allow.MatchString(lower)
		}
		return true
	}
	return true
}

func isBlockedRole(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range blockedRoleKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// extractCompany pulls the company name out of title patterns "... at X"
// or "X - ...", defaulting to "Unknown Company" when neither matches.
func extractCompany(rawTitle string) (company, title string) {
	title = strings.TrimSpace(rawTitle)

	if m := titleAt.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(m[2]), strings.TrimSpace(m[1])
	}
	if m := titleDash.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return "Unknown Company", title
}

var _ connectors.Connector = (*Connector)(nil)
