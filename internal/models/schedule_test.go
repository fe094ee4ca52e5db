package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"00:00", 0, false},
		{"06:30", 6*time.Hour + 30*time.Minute, false},
		{"23:59:59", 24*time.Hour - time.Second, false},
		{"24:00", 0, true},
		{"6", 0, true},
		{"aa:bb", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSchedule)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, TimeOfDay(tt.want), got)
		})
	}
}

func TestParseBasalSchedule(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		s, err := ParseBasalSchedule([]byte("- start: \"00:00\"\n  rate: 0.9\n- start: \"06:00\"\n  rate: 1.2\n"))
		require.NoError(t, err)
		assert.Equal(t, BasalSchedule{
			{Start: 0, Rate: 0.9},
			{Start: TimeOfDay(6 * time.Hour), Rate: 1.2},
		}, s)
	})

	t.Run("nightscout json", func(t *testing.T) {
		s, err := ParseBasalSchedule([]byte(`[{"time":"00:00","value":"0.8","timeAsSeconds":"0"},{"time":"12:00","value":1}]`))
		require.NoError(t, err)
		require.Len(t, s, 2)
		assert.Equal(t, 0.8, s[0].Rate)
		assert.Equal(t, TimeOfDay(12*time.Hour), s[1].Start)
	})

	errCases := map[string]string{
		"empty":         `[]`,
		"unordered":     `[{"start":"06:00","rate":1},{"start":"01:00","rate":1}]`,
		"duplicate":     `[{"start":"06:00","rate":1},{"start":"06:00","rate":2}]`,
		"negative rate": `[{"start":"00:00","rate":-1}]`,
		"missing rate":  `[{"start":"00:00"}]`,
		"missing start": `[{"rate":1}]`,
	}
	for name, in := range errCases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseBasalSchedule([]byte(in))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSchedule), "got %v", err)
		})
	}
}

func TestBasalRate_JSONRoundTrip(t *testing.T) {
	in := BasalSchedule{{Start: TimeOfDay(90 * time.Minute), Rate: 1.1}}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"start":"01:30:00","rate":1.1}]`, string(data))

	var out BasalSchedule
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestBasalRate_YAMLRoundTrip(t *testing.T) {
	in := BasalSchedule{{Start: 0, Rate: 0.8}, {Start: TimeOfDay(6*time.Hour + 30*time.Minute), Rate: 1.25}}
	data, err := yaml.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), "06:30:00")

	out, err := ParseBasalSchedule(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestTimeOfDay_On(t *testing.T) {
	day := time.Date(2015, 3, 4, 17, 45, 0, 0, time.UTC)
	got := TimeOfDay(6 * time.Hour).On(day)
	assert.Equal(t, time.Date(2015, 3, 4, 6, 0, 0, 0, time.UTC), got)
}
