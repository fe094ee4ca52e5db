package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"
)

// ErrInvalidDose is returned for dose entries missing required fields
var ErrInvalidDose = errors.New("invalid dose")

// Requested holds the parameters a dose was commanded with
type Requested struct {
	Duration float64 `json:"duration"`
}

// Dose is a dose issued to the pump, as reported by the controller that issued it.
// Doses use "type" rather than "_type" and carry the event payload alongside.
type Dose struct {
	Type      string     `json:"type" validate:"required"`
	Timestamp string     `json:"timestamp" validate:"required"`
	Duration  float64    `json:"duration" validate:"gte=0"` // Minutes
	Requested *Requested `json:"requested,omitempty"`
	Received  bool       `json:"received"`

	fields map[string]any
}

// UnmarshalJSON keeps every field and accepts "recieved" as an alias of "received"
func (d *Dose) UnmarshalJSON(data []byte) error {
	type plain Dose
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("parsing dose: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parsing dose: %w", err)
	}
	if v, ok := m["recieved"].(bool); ok && v {
		p.Received = true
	}
	*d = Dose(p)
	d.fields = m
	return nil
}

// MarshalJSON writes the full payload
func (d Dose) MarshalJSON() ([]byte, error) {
	m := maps.Clone(d.fields)
	if m == nil {
		m = make(map[string]any)
	}
	m["type"] = d.Type
	m[KeyTimestamp] = d.Timestamp
	m[KeyBolusDuration] = d.Duration
	m["received"] = d.Received
	delete(m, "recieved")
	if d.Requested != nil {
		m["requested"] = d.Requested
	}
	return json.Marshal(m)
}

// Validate checks the required fields
func (d Dose) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDose, err)
	}
	if _, err := ParseTimestamp(d.Timestamp); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDose, err)
	}
	return nil
}

// WasReceived reports whether the pump acknowledged the dose, either explicitly
// or by echoing back the requested duration
func (d Dose) WasReceived() bool {
	if d.Received {
		return true
	}
	return d.Requested != nil && d.Requested.Duration == d.Duration
}

// Time returns the dose's start
func (d Dose) Time() (time.Time, error) {
	return ParseTimestamp(d.Timestamp)
}

// Events expands the dose into raw history events, newest first.
// A TempBasal becomes a TempBasalDuration and TempBasal pair at the same instant.
func (d Dose) Events() []Event {
	base := maps.Clone(d.fields)
	if base == nil {
		base = make(map[string]any)
	}
	delete(base, "type")
	base[KeyTimestamp] = d.Timestamp

	if ParseKind(d.Type) != KindTempBasal {
		return []Event{NewEvent(d.Type, base)}
	}

	amount := NewEvent(d.Type, base)
	durationFields := maps.Clone(base)
	delete(durationFields, KeyBolusDuration)
	durationFields[KeyDuration] = d.Duration
	duration := NewEvent(d.Type+"Duration", durationFields)
	return []Event{duration, amount}
}
