package page

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	config "jobradar/configs"
	"jobradar/pkg/connectors"
	"jobradar/pkg/fetch"
	"jobradar/pkg/models"
)

// selector is one platform's anchor-matching rule: hrefs containing
// pathHint are treated as postings, and stripSuffix, when set, is a
// trailing suffix removed from the anchor's text to give the job title.
type selector struct {
	pathHint     string
	stripSuffix  string
}

var selectors = map[string]selector{
	"lever":    {pathHint: "jobs.lever.co/", stripSuffix: ""},
	"workable": {pathHint: "/apply/", stripSuffix: " - Workable"},
}

// Connector fetches a single career-page listing and extracts postings
// via a platform selector, falling back to the heuristic anchor scan of
// spec.md §4.2 when the primary selector yields zero results.
type Connector struct {
	HTTP     *fetch.Client
	Source   string
	Platform string
}

func NewConnector(http *fetch.Client, source, platform string) *Connector {
	return &Connector{HTTP: http, Source: source, Platform: platform}
}

func (c *Connector) Fetch(ctx context.Context, company string, def config.SourceDef) connectors.ConnectorResult {
	result := connectors.ConnectorResult{Source: c.Source, Company: company}

	if def.URLTemplate == "" {
		result.Error = fmt.Errorf("%s: missing urlTemplate", c.Platform)
		return result
	}
	pageURL := strings.ReplaceAll(def.URLTemplate, "{company}", company)

	base, err := url.Parse(pageURL)
	if err != nil {
		result.Error = fmt.Errorf("%s: parse base url: %w", c.Platform, err)
		return result
	}

	timeout := time.Duration(def.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	res := c.HTTP.Fetch(ctx, pageURL, fetch.Options{
		Timeout:        timeout,
		MaxRetries:     def.RateLimiting.MaxRetries,
		BackoffStartMs: def.RateLimiting.BackoffStartMs,
	})
	result.ResponseTimeMs = res.ResponseTimeMs
	result.RateLimited = res.RateLimited
	if res.Err != nil {
		result.Error = fmt.Errorf("%s: fetch %s: %w", c.Platform, company, res.Err)
		return result
	}

	anchors := dedupeByURL(findAnchors(res.Data, base))

	sel := selectors[c.Platform]
	matched := selectByPlatform(anchors, sel)
	if len(matched) == 0 {
		matched = fallbackAnchors(anchors)
	}

	result.Jobs = mapAnchors(c.Source, company, sel, matched)
	if len(matched) == 0 {
		result.Error = fmt.Errorf("%s: no job anchors matched for %s", c.Platform, company)
		return result
	}
	result.Success = true
	return result
}

// selectByPlatform applies the platform's path-hint selector.
func selectByPlatform(anchors []anchor, sel selector) []anchor {
	if sel.pathHint == "" {
		return nil
	}
	var matched []anchor
	for _, a := range anchors {
		if strings.Contains(strings.ToLower(a.href), sel.pathHint) {
			matched = append(matched, a)
		}
	}
	return matched
}

// fallbackAnchors applies the heuristic anchor-scan fallback from
// spec.md §4.2 when the platform selector finds nothing.
func fallbackAnchors(anchors []anchor) []anchor {
	var matched []anchor
	for _, a := range anchors {
		if looksLikeJobAnchor(a) {
			matched = append(matched, a)
		}
	}
	return matched
}

func mapAnchors(source, company string, sel selector, anchors []anchor) []models.RawJob {
	jobs := make([]models.RawJob, 0, len(anchors))
	for _, a := range anchors {
		title := strings.TrimSpace(a.text)
		if sel.stripSuffix != "" {
			title = strings.TrimSuffix(title, sel.stripSuffix)
			title = strings.TrimSpace(title)
		}
		if title == "" {
			title = "Untitled Role"
		}

		jobs = append(jobs, models.RawJob{
			Source:      source,
			SourceJobID: connectors.SynthesizeID(source, company, a.href),
			Title:       title,
			Company:     company,
			URL:         a.href,
		})
	}
	return jobs
}

var _ connectors.Connector = (*Connector)(nil)
