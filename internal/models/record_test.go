package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_JSON(t *testing.T) {
	r := Record{
		Type:        RecordTempBasal,
		StartAt:     time.Date(2015, 1, 1, 10, 0, 0, 0, time.UTC),
		EndAt:       time.Date(2015, 1, 1, 10, 30, 0, 0, time.UTC),
		Amount:      150,
		Unit:        UnitPercentOfBasal,
		Description: "TempBasal: 150% over 30min",
	}
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "TempBasal",
		"start_at": "2015-01-01T10:00:00",
		"end_at": "2015-01-01T10:30:00",
		"amount": 150,
		"unit": "percent",
		"description": "TempBasal: 150% over 30min"
	}`, string(data))

	var back Record
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r, back)
	assert.Equal(t, 30*time.Minute, back.Duration())
}

func TestRecord_UnmarshalBadTimestamp(t *testing.T) {
	var r Record
	err := json.Unmarshal([]byte(`{"type":"Bolus","start_at":"never","end_at":"2015-01-01T10:00:00"}`), &r)
	assert.Error(t, err)
}

func TestLooksResolved(t *testing.T) {
	tests := []struct {
		name string
		data string
		want bool
	}{
		{"records", `[{"type":"Bolus","start_at":"2015-01-01T10:00:00"}]`, true},
		{"events", `[{"_type":"Bolus","timestamp":"2015-01-01T10:00:00"}]`, false},
		{"empty", `[]`, false},
		{"garbage", `{`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksResolved([]byte(tt.data)))
		})
	}
}
