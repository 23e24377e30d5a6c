// Package normalize implements C4: turning a RawJob plus the JSON config
// tables into the derived fields a CanonicalJob persists (title bucket,
// location tier, work mode, normalized company, formatted timestamp,
// urlHash, contentFingerprint), per spec.md §4.4.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"html"
	"regexp"
	"sort"
	"strings"
	"time"

	config "jobradar/configs"
	"jobradar/pkg/dateparse"
	"jobradar/pkg/models"
)

var legalSuffixes = []string{
	"incorporated", "corporation", "limited",
	"inc", "llc", "ltd", "corp", "co", "plc", "gmbh", "ag", "sa",
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)
var whitespaceRe = regexp.MustCompile(`\s+`)

// TitleBucket classifies a title per spec.md §4.4: reject is checked
// first regardless of list order, then include, then maybe.
func TitleBucket(title string, filters config.TitleFilters) models.TitleBucket {
	lower := strings.ToLower(title)
	if anySubstr(lower, filters.Reject) {
		return models.TitleBucketReject
	}
	if anySubstr(lower, filters.Include) {
		return models.TitleBucketInclude
	}
	if anySubstr(lower, filters.Maybe) {
		return models.TitleBucketMaybe
	}
	return models.TitleBucketReject
}

func anySubstr(haystack string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(haystack, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// LocationResult is the normalizer's derived location fields.
type LocationResult struct {
	Tier     string // key of the matched tier, "" if none
	Province string
	City     string // literal tier city/alias substring matched, "" if none
}

// LocationTier matches locationRaw against each tier's cities+aliases,
// returning the highest-points match. Tiers with equal points are tried in
// lexical order of their keys; LocationsConfig is a map, so the order the
// tiers appear in the config file is not kept. The literal city/alias string that matched is kept as
// City, since spec.md §3's dedup identity triple (company|title|city,
// models.FuzzyKey) needs a city component and nothing else in the
// pipeline derives one.
func LocationTier(locationRaw string, tiers config.LocationsConfig) LocationResult {
	lower := strings.ToLower(locationRaw)

	keys := make([]string, 0, len(tiers))
	for k := range tiers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sort.SliceStable(keys, func(i, j int) bool {
		return tiers[keys[i]].Points > tiers[keys[j]].Points
	})

	for _, key := range keys {
		tier := tiers[key]
		all := append(append([]string{}, tier.Cities...), tier.Aliases...)
		for _, needle := range all {
			if needle == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(needle)) {
				return LocationResult{Tier: key, Province: provinceForTier(key, tier), City: needle}
			}
		}
	}
	return LocationResult{}
}

func provinceForTier(key string, tier config.LocationTier) string {
	label := strings.ToLower(tier.Label)
	switch {
	case strings.Contains(label, "remote"):
		return ""
	case strings.Contains(label, "ontario"):
		return "Ontario"
	case strings.Contains(label, "british columbia") || strings.Contains(label, "bc"):
		return "British Columbia"
	default:
		return ""
	}
}

// WorkMode determines onsite/hybrid/remote/unknown from content+location
// keyword sets, per spec.md §4.4's hybrid-takes-precedence rule.
func WorkMode(content, locationRaw string, modes config.ModesConfig, matchedTier string) models.WorkMode {
	haystack := strings.ToLower(content + " " + locationRaw)

	hasKeyword := func(mode string) bool {
		cfg, ok := modes[mode]
		if !ok {
			return false
		}
		return anySubstr(haystack, cfg.Keywords)
	}

	if hasKeyword("hybrid") {
		return models.WorkModeHybrid
	}

	remote := hasKeyword("remote")
	onsite := hasKeyword("onsite")
	concreteCity := matchedTier != ""

	if remote && (onsite || concreteCity) {
		return models.WorkModeHybrid
	}
	if remote {
		return models.WorkModeRemote
	}
	if onsite {
		return models.WorkModeOnsite
	}
	return models.WorkModeUnknown
}

// Company strips trailing legal suffixes and collapses whitespace.
func Company(raw string) string {
	name := whitespaceRe.ReplaceAllString(strings.TrimSpace(raw), " ")

	for {
		trimmed := false
		base := strings.TrimRight(name, ".")
		for _, suffix := range legalSuffixes {
			lower := strings.ToLower(base)
			candidates := []string{" " + suffix, "," + suffix, "."+suffix}
			for _, c := range candidates {
				if strings.HasSuffix(lower, c) {
					name = strings.TrimSpace(base[:len(base)-len(c)])
					name = strings.TrimRight(name, ".,")
					trimmed = true
					break
				}
			}
			if trimmed {
				break
			}
		}
		if !trimmed {
			break
		}
	}
	return name
}

// Timestamp parses a raw posted-at string (or falls back to a pre-parsed
// time.Time) into the configured wall-clock timezone, per spec.md §4.4.
func Timestamp(raw *time.Time, rawText string, loc *time.Location, now time.Time) (*time.Time, models.TimestampConfidence) {
	if raw != nil {
		t := raw.In(loc)
		return &t, models.ConfidenceHigh
	}
	if rawText == "" {
		return nil, models.ConfidenceLow
	}
	parsed, conf, ok := dateparse.Parse(rawText, now, loc)
	if !ok {
		return nil, models.ConfidenceLow
	}
	switch conf {
	case dateparse.ConfidenceHigh:
		return &parsed, models.ConfidenceHigh
	case dateparse.ConfidenceMedium:
		return &parsed, models.ConfidenceMedium
	default:
		return &parsed, models.ConfidenceLow
	}
}

// URLHash is SHA-256 of the lowercased URL with trailing slashes and query
// string stripped (spec.md §4.4).
func URLHash(rawURL string) string {
	u := strings.ToLower(strings.TrimSpace(rawURL))
	if idx := strings.IndexAny(u, "?#"); idx >= 0 {
		u = u[:idx]
	}
	u = strings.TrimRight(u, "/")
	sum := sha256.Sum256([]byte(u))
	return hex.EncodeToString(sum[:])
}

// ContentFingerprint is SHA-256 of content stripped of HTML tags,
// entity-decoded, collapsed whitespace, lowercased (spec.md §4.4).
func ContentFingerprint(content string) string {
	stripped := htmlTagRe.ReplaceAllString(content, " ")
	stripped = html.UnescapeString(stripped)
	stripped = whitespaceRe.ReplaceAllString(strings.TrimSpace(stripped), " ")
	stripped = strings.ToLower(stripped)
	sum := sha256.Sum256([]byte(stripped))
	return hex.EncodeToString(sum[:])
}
