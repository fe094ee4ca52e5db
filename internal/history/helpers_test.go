package history

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/mrcode/pumphistory/internal/models"
	"github.com/stretchr/testify/require"
)

// ev builds an event stamped ts with extra key/value pairs
func ev(typeName, ts string, kv ...any) models.Event {
	fields := map[string]any{}
	if ts != "" {
		fields[models.KeyTimestamp] = ts
	}
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i].(string)] = kv[i+1]
	}
	return models.NewEvent(typeName, fields)
}

// at parses a pump timestamp or panics
func at(s string) time.Time {
	t, err := models.ParseTimestamp(s)
	if err != nil {
		panic(err)
	}
	return t
}

// describe lists "Type@timestamp" for each event
func describe(events []models.Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.TypeName()+"@"+e.String(models.KeyTimestamp))
	}
	return out
}

func tempBasalPair(ts string, minutes float64, rate float64, temp string) []models.Event {
	return []models.Event{
		ev("TempBasalDuration", ts, models.KeyDuration, minutes),
		ev("TempBasal", ts, models.KeyRate, rate, models.KeyTemp, temp),
	}
}

func concat(lists ...[]models.Event) []models.Event {
	var out []models.Event
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

func parseDoses(t *testing.T, s string) []models.Dose {
	t.Helper()
	var doses []models.Dose
	require.NoError(t, json.Unmarshal([]byte(s), &doses))
	return doses
}

var zeroTime time.Time
