// Package page implements the HTML parser connector family (C2, spec.md
// §4.2) on golang.org/x/net/html's tokenizer: a small per-platform
// selector map (tag + attribute matchers), absolute-URL resolution, and
// the heuristic anchor-scan fallback.
package page

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// anchor is one <a href="..."> found on the page, with its resolved
// absolute URL and the text content inside it.
type anchor struct {
	href string
	text string
}

// jobIndicators is used by the heuristic fallback to recognize anchors
// that plausibly point at a job posting.
var jobIndicators = []string{"/jobs/", "/job/", "/careers/", "/positions/", "/openings/"}

// nonJobPhrases filters out anchors that are clearly navigation chrome
// rather than a posting, per spec.md §4.2.
var nonJobPhrases = []string{"apply", "learn more", "view all", "see all", "back to"}

// findAnchors walks the token stream collecting every <a> tag's href and
// inner text, resolving relative hrefs against base.
func findAnchors(body []byte, base *url.URL) []anchor {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	var anchors []anchor
	var current *anchor
	var textBuf strings.Builder

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return anchors
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tokenizer.TagName()
			if string(name) == "a" {
				href := ""
				for hasAttr {
					var key, val []byte
					key, val, hasAttr = tokenizer.TagAttr()
					if string(key) == "href" {
						href = string(val)
					}
				}
				if href != "" {
					resolved := resolveURL(base, href)
					current = &anchor{href: resolved}
					textBuf.Reset()
				}
			}
		case html.TextToken:
			if current != nil {
				textBuf.Write(tokenizer.Text())
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == "a" && current != nil {
				current.text = strings.TrimSpace(textBuf.String())
				anchors = append(anchors, *current)
				current = nil
			}
		}
	}
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// dedupeByURL removes repeated anchors pointing at the same resolved URL
// within one page fetch (spec.md §4.2).
func dedupeByURL(anchors []anchor) []anchor {
	seen := make(map[string]bool, len(anchors))
	out := make([]anchor, 0, len(anchors))
	for _, a := range anchors {
		if seen[a.href] {
			continue
		}
		seen[a.href] = true
		out = append(out, a)
	}
	return out
}

// looksLikeJobAnchor is the heuristic fallback matcher: path contains a
// known job indicator and the text isn't an obvious non-job phrase.
func looksLikeJobAnchor(a anchor) bool {
	lowerHref := strings.ToLower(a.href)
	lowerText := strings.ToLower(a.text)

	hasIndicator := false
	for _, ind := range jobIndicators {
		if strings.Contains(lowerHref, ind) {
			hasIndicator = true
			break
		}
	}
	if !hasIndicator {
		return false
	}

	for _, phrase := range nonJobPhrases {
		if strings.Contains(lowerText, phrase) {
			return false
		}
	}
	return true
}
