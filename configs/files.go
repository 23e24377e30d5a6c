package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LocationTier is one configured location tier (conventionally keyed
// L1..L5), matching spec.md §6.
type LocationTier struct {
	Label   string   `json:"label"`
	Points  int      `json:"points"`
	Cities  []string `json:"cities"`
	Aliases []string `json:"aliases"`
}

// LocationsConfig maps tier key -> tier definition.
type LocationsConfig map[string]LocationTier

// TitleFilters holds the three include/maybe/reject substring lists.
type TitleFilters struct {
	Include []string
	Maybe   []string
	Reject  []string
}

// ModeConfig is one work-mode's scoring weight and keyword set.
type ModeConfig struct {
	Points   int      `json:"points"`
	Keywords []string `json:"keywords"`
}

// ModesConfig maps mode name (onsite/hybrid/remote/unknown) -> config.
type ModesConfig map[string]ModeConfig

// FreshnessBracket is one row of the freshness scoring table. A nil MaxHours
// means "no upper bound" (matches-all, sorted last).
type FreshnessBracket struct {
	MaxHours *float64 `json:"maxHours"`
	Points   int      `json:"points"`
}

// BandConfig is one score-band's minimum threshold.
type BandConfig struct {
	MinScore int `json:"minScore"`
}

// ScoringConfig is the full scoring table (spec.md §4.6, §6).
type ScoringConfig struct {
	Freshness struct {
		Brackets         []FreshnessBracket `json:"brackets"`
		LowConfidenceCap int                `json:"lowConfidenceCap"`
	} `json:"freshness"`
	Bands map[string]BandConfig `json:"bands"`
	Weights struct {
		Freshness int `json:"freshness"`
		Location  int `json:"location"`
		Mode      int `json:"mode"`
	} `json:"weights"`
}

// RateLimiting is a per-source fetch pacing config.
type RateLimiting struct {
	BatchSize               int `json:"batchSize"`
	DelayBetweenRequestsMs  int `json:"delayBetweenRequestsMs"`
	BatchPauseMs            int `json:"batchPauseMs"`
	MaxRetries              int `json:"maxRetries"`
	BackoffStartMs          int `json:"backoffStartMs"`
}

// SourceDef is one connector's configuration (spec.md §6).
type SourceDef struct {
	Type             string       `json:"type"` // "api" | "page" | "search"
	Enabled          bool         `json:"enabled"`
	Schedule         string       `json:"schedule"`
	EndpointTemplate string       `json:"endpointTemplate"`
	URLTemplate      string       `json:"urlTemplate"`
	RateLimiting     RateLimiting `json:"rateLimiting"`
	TimeoutMs        int          `json:"timeoutMs"`
	Queries          []string     `json:"queries"`
	Platform         string       `json:"platform"`
}

// SourcesConfig maps source name -> definition.
type SourcesConfig map[string]SourceDef

// CompaniesConfig maps platform -> seed board slugs.
type CompaniesConfig map[string][]string

func loadJSON(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	return nil
}

func LoadLocations(dir string) (LocationsConfig, error) {
	var cfg LocationsConfig
	if err := loadJSON(filepath.Join(dir, "locations.json"), &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadTitleFilters(dir string) (TitleFilters, error) {
	var filters TitleFilters
	if err := loadJSON(filepath.Join(dir, "titles_include.json"), &filters.Include); err != nil {
		return filters, err
	}
	if err := loadJSON(filepath.Join(dir, "titles_maybe.json"), &filters.Maybe); err != nil {
		return filters, err
	}
	if err := loadJSON(filepath.Join(dir, "titles_reject.json"), &filters.Reject); err != nil {
		return filters, err
	}
	return filters, nil
}

func LoadModes(dir string) (ModesConfig, error) {
	var cfg ModesConfig
	if err := loadJSON(filepath.Join(dir, "modes.json"), &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadScoring(dir string) (ScoringConfig, error) {
	var cfg ScoringConfig
	if err := loadJSON(filepath.Join(dir, "scoring.json"), &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func LoadSources(dir string) (SourcesConfig, error) {
	var cfg SourcesConfig
	if err := loadJSON(filepath.Join(dir, "sources.json"), &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadCompanies(dir string) (CompaniesConfig, error) {
	var cfg CompaniesConfig
	if err := loadJSON(filepath.Join(dir, "companies.json"), &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
