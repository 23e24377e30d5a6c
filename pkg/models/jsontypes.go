package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// StringList is a JSONB-backed []string, used for the fit-analysis arrays
// (strengths, gaps, matched/missing/bonus skills, tailoring tips, cover
// letter points) and RunLog.Errors.
type StringList []string

func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = StringList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("models: type assertion to []byte failed for StringList")
	}
	if len(bytes) == 0 {
		*s = StringList{}
		return nil
	}
	return json.Unmarshal(bytes, s)
}

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		s = StringList{}
	}
	return json.Marshal(s)
}

// Counts is a JSONB-backed map[string]int used for RunLog's per-phase
// tallies (jobsFound, jobsNew, duplicates, rejects, parseFailures, ...).
type Counts map[string]int

func (c *Counts) Scan(value interface{}) error {
	if value == nil {
		*c = Counts{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("models: type assertion to []byte failed for Counts")
	}
	if len(bytes) == 0 {
		*c = Counts{}
		return nil
	}
	return json.Unmarshal(bytes, c)
}

func (c Counts) Value() (driver.Value, error) {
	if c == nil {
		c = Counts{}
	}
	return json.Marshal(c)
}
