package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidSchedule is returned for basal schedules that cannot be used
var ErrInvalidSchedule = errors.New("invalid basal schedule")

// TimeOfDay is an offset from local midnight
type TimeOfDay time.Duration

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS"
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: time of day %q", ErrInvalidSchedule, s)
	}
	limits := []int{24, 60, 60}
	var total time.Duration
	units := []time.Duration{time.Hour, time.Minute, time.Second}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n >= limits[i] {
			return 0, fmt.Errorf("%w: time of day %q", ErrInvalidSchedule, s)
		}
		total += time.Duration(n) * units[i]
	}
	return TimeOfDay(total), nil
}

// On returns the instant at this time of day on the calendar date of day
func (t TimeOfDay) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, day.Location()).Add(time.Duration(t))
}

// String formats as HH:MM:SS
func (t TimeOfDay) String() string {
	d := time.Duration(t)
	return fmt.Sprintf("%02d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}

// BasalRate is one entry of a basal schedule
type BasalRate struct {
	Start TimeOfDay
	Rate  float64 `validate:"gte=0"` // U/hour
}

// BasalSchedule is a daily-periodic list of basal rates ordered by start time.
// The last entry stays in effect until the first entry's time on the next day.
type BasalSchedule []BasalRate

// Validate checks the schedule is non-empty, strictly ascending and within one day
func (s BasalSchedule) Validate() error {
	if err := validate.Var(s, "min=1,dive"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	for i, r := range s {
		if time.Duration(r.Start) < 0 || time.Duration(r.Start) >= 24*time.Hour {
			return fmt.Errorf("%w: entry %d starts outside the day", ErrInvalidSchedule, i)
		}
		if i > 0 && r.Start <= s[i-1].Start {
			return fmt.Errorf("%w: entry %d at %s is not after %s", ErrInvalidSchedule, i, r.Start, s[i-1].Start)
		}
	}
	return nil
}

// MarshalJSON writes {"start": "HH:MM:SS", "rate": x}
func (r BasalRate) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start string  `json:"start"`
		Rate  float64 `json:"rate"`
	}{r.Start.String(), r.Rate})
}

// MarshalYAML writes the same shape as MarshalJSON
func (r BasalRate) MarshalYAML() (any, error) {
	return struct {
		Start string  `yaml:"start"`
		Rate  float64 `yaml:"rate"`
	}{r.Start.String(), r.Rate}, nil
}

// UnmarshalJSON accepts start/rate as well as Nightscout's time/value keys
func (r *BasalRate) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parsing basal rate: %w", err)
	}
	return r.fromMap(m)
}

// UnmarshalYAML accepts the same keys as UnmarshalJSON
func (r *BasalRate) UnmarshalYAML(node *yaml.Node) error {
	var m map[string]any
	if err := node.Decode(&m); err != nil {
		return fmt.Errorf("parsing basal rate: %w", err)
	}
	return r.fromMap(m)
}

func (r *BasalRate) fromMap(m map[string]any) error {
	start, ok := firstString(m, "start", "time")
	if !ok {
		return fmt.Errorf("%w: entry has no start time", ErrInvalidSchedule)
	}
	tod, err := ParseTimeOfDay(start)
	if err != nil {
		return err
	}
	rate, ok := firstNumber(m, "rate", "value")
	if !ok {
		return fmt.Errorf("%w: entry at %s has no rate", ErrInvalidSchedule, start)
	}
	r.Start = tod
	r.Rate = rate
	return nil
}

func firstString(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

func firstNumber(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// ParseBasalSchedule decodes a schedule from JSON or YAML and validates it
func ParseBasalSchedule(data []byte) (BasalSchedule, error) {
	var s BasalSchedule
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing basal schedule: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
