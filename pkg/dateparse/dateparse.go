// Package dateparse parses the relative and short textual date phrases
// job boards and search snippets use, shared by pkg/normalize (C4) and
// pkg/connectors/search (C2) per spec.md §4.2/§4.4/§9.
package dateparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Confidence mirrors models.TimestampConfidence without importing it, to
// keep this package dependency-free; callers map the string across.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

var relativeUnit = regexp.MustCompile(`^(\d+)\s*(hour|hours|day|days|week|weeks|month|months)\s+ago$`)

// shortDate matches "Jan 2", "Jan 2, 2024", "January 2 2024".
var shortDate = regexp.MustCompile(`(?i)^([A-Za-z]{3,9})\s+(\d{1,2})(?:,?\s+(\d{4}))?$`)

var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// Parse interprets a free-text date phrase relative to now, in loc.
// Recognizes: "today", "yesterday", "N hours/days/weeks/months ago", and
// short "Mon DD[, YYYY]" forms. Returns ok=false when nothing matches.
func Parse(text string, now time.Time, loc *time.Location) (t time.Time, confidence Confidence, ok bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return time.Time{}, "", false
	}

	switch s {
	case "today":
		return dayStart(now, loc), ConfidenceMedium, true
	case "yesterday":
		return dayStart(now.AddDate(0, 0, -1), loc), ConfidenceMedium, true
	}

	if m := relativeUnit.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, "", false
		}
		unit := m[2]
		var d time.Duration
		switch {
		case strings.HasPrefix(unit, "hour"):
			d = time.Duration(n) * time.Hour
			return now.Add(-d).In(loc), ConfidenceMedium, true
		case strings.HasPrefix(unit, "day"):
			return now.AddDate(0, 0, -n).In(loc), ConfidenceMedium, true
		case strings.HasPrefix(unit, "week"):
			return now.AddDate(0, 0, -7*n).In(loc), ConfidenceMedium, true
		case strings.HasPrefix(unit, "month"):
			return now.AddDate(0, -n, 0).In(loc), ConfidenceMedium, true
		}
	}

	if m := shortDate.FindStringSubmatch(strings.TrimSpace(text)); m != nil {
		month, known := monthNames[strings.ToLower(m[1])]
		if !known {
			return time.Time{}, "", false
		}
		day, err := strconv.Atoi(m[2])
		if err != nil || day < 1 || day > 31 {
			return time.Time{}, "", false
		}
		year := now.In(loc).Year()
		if m[3] != "" {
			y, err := strconv.Atoi(m[3])
			if err == nil {
				year = y
			}
		}
		candidate := time.Date(year, month, day, 0, 0, 0, 0, loc)
		// Year omitted and the date is in the future relative to now:
		// it almost certainly belongs to last year (a board rarely
		// back-dates "Jan 2" to next year).
		if m[3] == "" && candidate.After(now.In(loc)) {
			candidate = time.Date(year-1, month, day, 0, 0, 0, 0, loc)
		}
		return candidate, ConfidenceMedium, true
	}

	// High-fidelity machine formats (RFC3339 and a couple of common
	// variants) parse with full confidence.
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", "2006-01-02 15:04:05"} {
		if parsed, err := time.ParseInLocation(layout, text, loc); err == nil {
			return parsed, ConfidenceHigh, true
		}
	}

	return time.Time{}, "", false
}

func dayStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
