// Package scoring implements C6's pure scoring functions, config-driven
// from configs.ScoringConfig, per spec.md §4.6.
package scoring

import (
	"sort"
	"time"

	config "jobradar/configs"
	"jobradar/pkg/models"
)

// Result holds the three component scores plus the total and band.
type Result struct {
	Freshness int
	Location  int
	Mode      int
	Total     int
	Band      models.ScoreBand
}

// Freshness computes the freshness component. hoursAgo is clamped to 0 for
// future-dated postings. If confidence is low, the result is capped at
// cfg.Freshness.LowConfidenceCap.
func Freshness(postedAt, firstSeenAt *time.Time, confidence models.TimestampConfidence, now time.Time, cfg config.ScoringConfig) int {
	ref := firstSeenAt
	if postedAt != nil {
		ref = postedAt
	}

	var hoursAgo float64
	if ref != nil {
		hoursAgo = now.Sub(*ref).Hours()
		if hoursAgo < 0 {
			hoursAgo = 0
		}
	}

	brackets := append([]config.FreshnessBracket{}, cfg.Freshness.Brackets...)
	sort.SliceStable(brackets, func(i, j int) bool {
		a, b := brackets[i].MaxHours, brackets[j].MaxHours
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return *a < *b
	})

	points := 0
	for _, b := range brackets {
		if b.MaxHours == nil || *b.MaxHours >= hoursAgo {
			points = b.Points
			break
		}
	}

	if confidence == models.ConfidenceLow && points > cfg.Freshness.LowConfidenceCap {
		points = cfg.Freshness.LowConfidenceCap
	}
	return points
}

// Location returns the tier's configured points, or 0 if no tier matched.
func Location(tierKey string, tiers config.LocationsConfig) int {
	if tierKey == "" {
		return 0
	}
	tier, ok := tiers[tierKey]
	if !ok {
		return 0
	}
	return tier.Points
}

// Mode returns the per-mode points, falling back to the "unknown" mode's
// configured points if the given mode key is absent.
func Mode(mode models.WorkMode, modes config.ModesConfig) int {
	if cfg, ok := modes[string(mode)]; ok {
		return cfg.Points
	}
	return modes["unknown"].Points
}

// Band returns the highest band whose MinScore is <= total score, falling
// back to the lowest-threshold band.
func Band(total int, bands map[string]config.BandConfig) models.ScoreBand {
	type named struct {
		key string
		min int
	}
	list := make([]named, 0, len(bands))
	for k, b := range bands {
		list = append(list, named{k, b.MinScore})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].min > list[j].min })

	for _, b := range list {
		if total >= b.min {
			return models.ScoreBand(b.key)
		}
	}
	if len(list) > 0 {
		return models.ScoreBand(list[len(list)-1].key)
	}
	return ""
}

// Score computes all three components plus total and band for a
// normalized CanonicalJob.
func Score(job *models.CanonicalJob, now time.Time, cfg config.ScoringConfig, tiers config.LocationsConfig, modes config.ModesConfig) Result {
	freshness := Freshness(job.PostedAt, &job.FirstSeenAt, job.PostedAtConfidence, now, cfg)
	location := Location(job.LocationTier, tiers)
	mode := Mode(job.WorkMode, modes)
	total := freshness + location + mode
	return Result{
		Freshness: freshness,
		Location:  location,
		Mode:      mode,
		Total:     total,
		Band:      Band(total, cfg.Bands),
	}
}
