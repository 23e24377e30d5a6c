// Package discovery implements board discovery (C3, spec.md §4.3): query
// a web-search API for URLs matching known ATS patterns and upsert the
// matches into the DiscoveredBoard registry.
package discovery

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"jobradar/pkg/models"
	"jobradar/pkg/searchapi"
	"jobradar/pkg/storage"

	"github.com/google/uuid"
)

// baseConfidence is the confidence MatchBoard gives every match; the board
// store keeps the higher of this and any existing value
// (spec.md §4.3: "confidence = max(existing, 0.75)").
const baseConfidence = 0.75

// pattern is one ordered ATS-domain matcher. Patterns are tried in
// declaration order; the first match wins.
type pattern struct {
	platform string
	re       *regexp.Regexp
}

// patterns recognizes the eight platforms named in spec.md §4.2, each by
// its canonical hosted-board domain shape.
var patterns = []pattern{
	{platform: "greenhouse", re: regexp.MustCompile(`boards\.greenhouse\.io/([a-z0-9_-]+)`)},
	{platform: "lever", re: regexp.MustCompile(`jobs\.lever\.co/([a-z0-9_-]+)`)},
	{platform: "workable", re: regexp.MustCompile(`apply\.workable\.com/([a-z0-9_-]+)`)},
	{platform: "ashby", re: regexp.MustCompile(`jobs\.ashbyhq\.com/([a-z0-9_-]+)`)},
	{platform: "smartrecruiters", re: regexp.MustCompile(`jobs\.smartrecruiters\.com/([a-zA-Z0-9_-]+)`)},
	{platform: "bamboohr", re: regexp.MustCompile(`([a-z0-9_-]+)\.bamboohr\.com/careers`)},
	{platform: "recruitee", re: regexp.MustCompile(`([a-z0-9_-]+)\.recruitee\.com`)},
	{platform: "personio", re: regexp.MustCompile(`([a-z0-9_-]+)\.jobs\.personio\.com`)},
}

// boardURLTemplates maps platform -> canonical board URL template, keyed
// by the matched slug.
var boardURLTemplates = map[string]string{
	"greenhouse":      "https://boards.greenhouse.io/%s",
	"lever":           "https://jobs.lever.co/%s",
	"workable":        "https://apply.workable.com/%s",
	"ashby":           "https://jobs.ashbyhq.com/%s",
	"smartrecruiters": "https://jobs.smartrecruiters.com/%s",
	"bamboohr":        "https://%s.bamboohr.com/careers",
	"recruitee":       "https://%s.recruitee.com",
	"personio":        "https://%s.jobs.personio.com",
}

// Runner executes one discovery pass over a list of preconfigured
// queries, per spec.md §4.3.
type Runner struct {
	Client       *searchapi.Client
	Boards       storage.BoardStore
	QueryDelay   time.Duration
	ResultsPerQuery int
}

func NewRunner(client *searchapi.Client, boards storage.BoardStore) *Runner {
	return &Runner{Client: client, Boards: boards, QueryDelay: 2 * time.Second, ResultsPerQuery: 20}
}

// Run issues each query in turn, throttled by QueryDelay between
// requests (spec.md §4.3: "throttle with a polite fixed delay"), and
// upserts every matched board. The pass is idempotent: re-running it
// against the same search results only refreshes last_seen_at/confidence.
func (r *Runner) Run(ctx context.Context, queries []string) (int, error) {
	perQuery := r.ResultsPerQuery
	if perQuery <= 0 {
		perQuery = 20
	}

	matched := 0
	for i, q := range queries {
		if i > 0 && r.QueryDelay > 0 {
			select {
			case <-ctx.Done():
				return matched, ctx.Err()
			case <-time.After(r.QueryDelay):
			}
		}

		resp, err := r.Client.Search(ctx, q, 0, perQuery)
		if err != nil {
			return matched, fmt.Errorf("discovery: query %q: %w", q, err)
		}

		for _, result := range resp.Results {
			board, ok := MatchBoard(result.Link)
			if !ok {
				continue
			}
			if err := r.upsert(ctx, board); err != nil {
				return matched, fmt.Errorf("discovery: upsert %s: %w", board.BoardURL, err)
			}
			matched++
		}
	}
	return matched, nil
}

// MatchBoard tries every ordered pattern against link and returns the
// canonical board it implies, if any pattern matches.
func MatchBoard(link string) (models.DiscoveredBoard, bool) {
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(link)
		if m == nil {
			continue
		}
		slug := m[1]
		return models.DiscoveredBoard{
			Platform:   p.platform,
			BoardSlug:  slug,
			BoardURL:   fmt.Sprintf(boardURLTemplates[p.platform], slug),
			Confidence: baseConfidence,
		}, true
	}
	return models.DiscoveredBoard{}, false
}

func (r *Runner) upsert(ctx context.Context, board models.DiscoveredBoard) error {
	board.ID = uuid.New()
	board.Status = models.BoardStatusActive
	board.LastSeenAt = time.Now()
	return r.Boards.UpsertBoard(ctx, &board)
}
