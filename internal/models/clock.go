package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-openapi/strfmt"
)

// ErrMissingTimestamp is returned when none of the candidate fields hold a parseable timestamp
var ErrMissingTimestamp = errors.New("missing timestamp")

// DefaultTimestampKeys are tried, in order, after any caller-supplied keys
var DefaultTimestampKeys = []string{"dateString", "display_time", "date", KeyTimestamp}

// timestampLayout matches the pump's own zone-less format
const timestampLayout = "2006-01-02T15:04:05"

// ParseTimestamp parses an RFC3339 or zone-less ISO8601 timestamp.
// Zone-less values are read as UTC wall-clock time.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrMissingTimestamp)
	}
	dt, err := strfmt.ParseDateTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return time.Time(dt), nil
}

// FormatTimestamp renders t the way the pump writes timestamps.
// A zone offset is only appended for non-UTC locations.
func FormatTimestamp(t time.Time) string {
	if t.Location() == time.UTC {
		return t.Format(timestampLayout)
	}
	return t.Format(timestampLayout + "Z07:00")
}

// Time resolves the event's instant from the first parseable field among keys,
// followed by DefaultTimestampKeys. Only string values are considered.
func (e Event) Time(keys ...string) (time.Time, error) {
	candidates := make([]string, 0, len(keys)+len(DefaultTimestampKeys))
	candidates = append(candidates, keys...)
	candidates = append(candidates, DefaultTimestampKeys...)

	for _, key := range candidates {
		s, ok := e.fields[key].(string)
		if !ok || s == "" {
			continue
		}
		if t, err := ParseTimestamp(s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s event has none of %v", ErrMissingTimestamp, e.TypeName(), candidates)
}
