package models

import "strings"

// FuzzyKey builds the canonical lowercased "company | title | city" key the
// dedup engine's fuzzy pass indexes and compares (spec.md §4.5).
func FuzzyKey(company, title, city string) string {
	parts := []string{
		strings.ToLower(strings.TrimSpace(company)),
		strings.ToLower(strings.TrimSpace(title)),
		strings.ToLower(strings.TrimSpace(city)),
	}
	return strings.Join(parts, " | ")
}
