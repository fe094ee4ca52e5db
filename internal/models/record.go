package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// RecordType is the canonical record variant
type RecordType string

// Canonical record types
const (
	RecordBolus     RecordType = "Bolus"
	RecordMeal      RecordType = "Meal"
	RecordTempBasal RecordType = "TempBasal"
	RecordExercise  RecordType = "Exercise"
)

// Unit describes how a record's Amount is measured
type Unit string

// Record units
const (
	UnitGrams          Unit = "g"
	UnitPercentOfBasal Unit = "percent"
	UnitUnits          Unit = "U"
	UnitUnitsPerHour   Unit = "U/hour"
	UnitEvent          Unit = "event"
)

// Record is a canonical dosing, meal or activity record
type Record struct {
	Type        RecordType
	StartAt     time.Time
	EndAt       time.Time
	Amount      float64
	Unit        Unit
	Description string
}

// Duration returns the length of the record's interval
func (r Record) Duration() time.Duration {
	return r.EndAt.Sub(r.StartAt)
}

// recordJSON is the wire shape of a Record
type recordJSON struct {
	Type        RecordType `json:"type"`
	StartAt     string     `json:"start_at"`
	EndAt       string     `json:"end_at"`
	Amount      float64    `json:"amount"`
	Unit        Unit       `json:"unit"`
	Description string     `json:"description"`
}

// MarshalJSON writes timestamps at second precision
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		Type:        r.Type,
		StartAt:     FormatTimestamp(r.StartAt),
		EndAt:       FormatTimestamp(r.EndAt),
		Amount:      r.Amount,
		Unit:        r.Unit,
		Description: r.Description,
	})
}

// UnmarshalJSON reads a record written by MarshalJSON
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing record: %w", err)
	}
	start, err := ParseTimestamp(raw.StartAt)
	if err != nil {
		return fmt.Errorf("parsing record start_at: %w", err)
	}
	end, err := ParseTimestamp(raw.EndAt)
	if err != nil {
		return fmt.Errorf("parsing record end_at: %w", err)
	}
	*r = Record{
		Type:        raw.Type,
		StartAt:     start,
		EndAt:       end,
		Amount:      raw.Amount,
		Unit:        raw.Unit,
		Description: raw.Description,
	}
	return nil
}

// RelativeRecord is a Record whose instants are signed minute offsets from a zero time
type RelativeRecord struct {
	Type        RecordType `json:"type"`
	StartAt     int        `json:"start_at"`
	EndAt       int        `json:"end_at"`
	Amount      float64    `json:"amount"`
	Unit        Unit       `json:"unit"`
	Description string     `json:"description"`
}

// LooksResolved reports whether a JSON history array holds canonical records
// rather than raw pump events, by checking the first element for start_at.
func LooksResolved(data []byte) bool {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil || len(items) == 0 {
		return false
	}
	_, ok := items[0]["start_at"]
	return ok
}
