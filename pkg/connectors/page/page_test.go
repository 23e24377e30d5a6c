package page

import (
	"net/url"
	"testing"
)

const leverHTML = `<html><body>
<div class="postings">
<a href="https://jobs.lever.co/acme/1111-2222">Backend Engineer</a>
<a href="https://jobs.lever.co/acme/3333-4444">Frontend Engineer</a>
<a href="/about">About us</a>
</div>
</body></html>`

func TestFindAnchorsAndLeverSelector(t *testing.T) {
	base, _ := url.Parse("https://jobs.lever.co/acme")
	anchors := dedupeByURL(findAnchors([]byte(leverHTML), base))
	matched := selectByPlatform(anchors, selectors["lever"])
	if len(matched) != 2 {
		t.Fatalf("expected 2 lever postings, got %d", len(matched))
	}
	if matched[0].text != "Backend Engineer" {
		t.Errorf("unexpected title: %q", matched[0].text)
	}
}

const heuristicHTML = `<html><body>
<a href="/careers/backend-engineer">Backend Engineer</a>
<a href="/careers/apply/backend-engineer">Apply Now</a>
</body></html>`

func TestFallbackHeuristicFiltersNonJobPhrases(t *testing.T) {
	anchors := dedupeByURL(findAnchors([]byte(heuristicHTML), nil))
	matched := fallbackAnchors(anchors)
	if len(matched) != 1 {
		t.Fatalf("expected 1 heuristic match, got %d", len(matched))
	}
	if matched[0].text != "Backend Engineer" {
		t.Errorf("unexpected anchor kept: %q", matched[0].text)
	}
}

func TestDedupeByURLRemovesRepeats(t *testing.T) {
	anchors := []anchor{{href: "a"}, {href: "a"}, {href: "b"}}
	out := dedupeByURL(anchors)
	if len(out) != 2 {
		t.Fatalf("expected 2 unique anchors, got %d", len(out))
	}
}

func TestMapAnchorsStripsWorkableSuffix(t *testing.T) {
	jobs := mapAnchors("workable", "acme", selectors["workable"], []anchor{
		{href: "https://apply.workable.com/acme/j/ABC", text: "Data Engineer - Workable"},
	})
	if jobs[0].Title != "Data Engineer" {
		t.Errorf("expected suffix stripped, got %q", jobs[0].Title)
	}
}
