// Package models contains data structures used throughout the application
package models

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"
)

// Well-known pump history field names
const (
	KeyType          = "_type"
	KeyTimestamp     = "timestamp"
	KeyDescription   = "_description"
	KeyBody          = "_body"
	KeyDate          = "_date"
	KeyDuration      = "duration (min)" // TempBasalDuration length in minutes
	KeyRate          = "rate"
	KeyTemp          = "temp" // "percent" or "absolute"
	KeyAmount        = "amount"
	KeyProgrammed    = "programmed"
	KeyBolusType     = "type" // "normal" or "square"
	KeyBolusDuration = "duration"
	KeyCarbInput     = "carb_input"
)

// Kind identifies the pump history event types the pipeline understands
type Kind int

// Known event kinds. KindUnknown events are carried through untouched.
const (
	KindUnknown Kind = iota
	KindBolus
	KindBolusWizard
	KindJournalEntryMealMarker
	KindJournalEntryExerciseMarker
	KindPumpSuspend
	KindPumpResume
	KindTempBasal
	KindTempBasalDuration
)

var kindNames = map[Kind]string{
	KindBolus:                      "Bolus",
	KindBolusWizard:                "BolusWizard",
	KindJournalEntryMealMarker:     "JournalEntryMealMarker",
	KindJournalEntryExerciseMarker: "JournalEntryExerciseMarker",
	KindPumpSuspend:                "PumpSuspend",
	KindPumpResume:                 "PumpResume",
	KindTempBasal:                  "TempBasal",
	KindTempBasalDuration:          "TempBasalDuration",
}

var kindsByLowerName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[strings.ToLower(name)] = k
	}
	return m
}()

// ParseKind maps a `_type` value to a Kind, ignoring case
func ParseKind(s string) Kind {
	return kindsByLowerName[strings.ToLower(s)]
}

// String returns the canonical type name
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Event is a single raw pump history entry.
//
// The payload is open-ended: every field read from the source is kept, including
// ones the pipeline never looks at. Events are values; With returns a modified copy
// and never touches the receiver's fields, so lists produced by earlier stages stay
// valid after later stages run.
type Event struct {
	Kind   Kind
	fields map[string]any
}

// NewEvent creates an event of the given type with a copy of fields
func NewEvent(typeName string, fields map[string]any) Event {
	m := make(map[string]any, len(fields)+1)
	maps.Copy(m, fields)
	m[KeyType] = typeName
	return Event{Kind: ParseKind(typeName), fields: m}
}

// TypeName returns the `_type` value as it appeared in the source
func (e Event) TypeName() string {
	s, _ := e.fields[KeyType].(string)
	return s
}

// Get returns a raw field value
func (e Event) Get(key string) (any, bool) {
	v, ok := e.fields[key]
	return v, ok
}

// Has reports whether the field is present
func (e Event) Has(key string) bool {
	_, ok := e.fields[key]
	return ok
}

// String returns a string field, or "" when missing or not a string
func (e Event) String(key string) string {
	s, _ := e.fields[key].(string)
	return s
}

// Float returns a numeric field
func (e Event) Float(key string) (float64, bool) {
	switch v := e.fields[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Fields returns a copy of the payload
func (e Event) Fields() map[string]any {
	return maps.Clone(e.fields)
}

// With returns a copy of the event with key set to value.
// Setting KeyType re-derives the Kind.
func (e Event) With(key string, value any) Event {
	m := make(map[string]any, len(e.fields)+1)
	maps.Copy(m, e.fields)
	m[key] = value
	out := Event{Kind: e.Kind, fields: m}
	if key == KeyType {
		s, _ := value.(string)
		out.Kind = ParseKind(s)
	}
	return out
}

// MarshalJSON encodes the event as its original flat object
func (e Event) MarshalJSON() ([]byte, error) {
	if e.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(e.fields)
}

// UnmarshalJSON decodes a flat object and derives the Kind from `_type`
func (e *Event) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parsing event: %w", err)
	}
	if m == nil {
		m = make(map[string]any)
	}
	typeName, _ := m[KeyType].(string)
	e.Kind = ParseKind(typeName)
	e.fields = m
	return nil
}
