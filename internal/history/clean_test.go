package history

import (
	"testing"

	"github.com/mrcode/pumphistory/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertPaired checks that walking newest first, every PumpSuspend closes
// exactly one PumpResume seen before it
func assertPaired(t *testing.T, events []models.Event) {
	t.Helper()
	pending := 0
	for _, e := range events {
		switch e.Kind {
		case models.KindPumpResume:
			pending++
			assert.LessOrEqual(t, pending, 1, "two resumes without a suspend in %v", describe(events))
		case models.KindPumpSuspend:
			assert.Equal(t, 1, pending, "suspend without resume in %v", describe(events))
			pending = 0
		}
	}
	assert.Zero(t, pending, "resume without suspend in %v", describe(events))
}

func TestClean_ResumeBeforeWindow(t *testing.T) {
	events := []models.Event{
		ev("PumpResume", "2015-01-01T20:50:01"),
		ev("Prime", "2015-01-01T18:12:34"),
	}
	got, w, err := Clean(events, zeroTime, zeroTime)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"PumpResume@2015-01-01T20:50:01",
		"Prime@2015-01-01T18:12:34",
		"PumpSuspend@2015-01-01T18:12:34",
	}, describe(got))
	assert.True(t, w.Start.Equal(at("2015-01-01T18:12:34")))
	assertPaired(t, got)
}

func TestClean_SuspendAfterWindow(t *testing.T) {
	events := []models.Event{
		ev("Bolus", "2015-01-01T12:00:00"),
		ev("PumpSuspend", "2015-01-01T11:00:00"),
		ev("Bolus", "2015-01-01T10:00:00"),
	}
	got, _, err := Clean(events, zeroTime, zeroTime)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Bolus@2015-01-01T12:00:00",
		"PumpResume@2015-01-01T12:00:00",
		"PumpSuspend@2015-01-01T11:00:00",
		"Bolus@2015-01-01T10:00:00",
	}, describe(got))
	assertPaired(t, got)
}

func TestClean_DeduplicatesBolusWizard(t *testing.T) {
	events := []models.Event{
		ev("BolusWizard", "2015-01-01T10:00:30", models.KeyBody, "aa", models.KeyCarbInput, 30.0),
		ev("BolusWizard", "2015-01-01T10:00:10", models.KeyBody, "bb", models.KeyCarbInput, 10.0),
		ev("BolusWizard", "2015-01-01T10:00:00", models.KeyBody, "aa", models.KeyCarbInput, 30.0),
		ev("BolusWizard", "2015-01-01T09:58:00", models.KeyBody, "aa", models.KeyCarbInput, 30.0),
	}
	got, _, err := Clean(events, zeroTime, zeroTime)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"BolusWizard@2015-01-01T10:00:30",
		"BolusWizard@2015-01-01T10:00:10",
		"BolusWizard@2015-01-01T09:58:00",
	}, describe(got))
}

func TestClean_DeduplicatesBolusWizardWithEmptyBody(t *testing.T) {
	events := []models.Event{
		ev("BolusWizard", "2015-01-01T10:00:30", models.KeyBody, "", models.KeyCarbInput, 30.0),
		ev("BolusWizard", "2015-01-01T10:00:00", models.KeyBody, "", models.KeyCarbInput, 30.0),
	}
	got, _, err := Clean(events, zeroTime, zeroTime)
	require.NoError(t, err)
	assert.Equal(t, []string{"BolusWizard@2015-01-01T10:00:30"}, describe(got))
}

func TestClean_TempBasalPairing(t *testing.T) {
	tests := []struct {
		name    string
		events  []models.Event
		wantErr bool
	}{
		{
			name:   "paired",
			events: tempBasalPair("2015-01-01T10:00:00", 30, 1.0, "absolute"),
		},
		{
			name:    "missing duration",
			events:  []models.Event{ev("TempBasal", "2015-01-01T10:00:00", models.KeyRate, 1.0)},
			wantErr: true,
		},
		{
			name: "duration at another instant",
			events: []models.Event{
				ev("TempBasalDuration", "2015-01-01T10:30:00", models.KeyDuration, 30.0),
				ev("TempBasal", "2015-01-01T10:00:00", models.KeyRate, 1.0),
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Clean(tt.events, zeroTime, zeroTime)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnpairedTempBasal)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestClean_FiltersToWindow(t *testing.T) {
	events := []models.Event{
		ev("Bolus", "2015-01-01T12:00:00"),
		ev("Bolus", "2015-01-01T10:00:00"),
		ev("Bolus", "2015-01-01T08:00:00"),
	}
	got, _, err := Clean(events, at("2015-01-01T09:00:00"), at("2015-01-01T11:00:00"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Bolus@2015-01-01T10:00:00"}, describe(got))
}

func TestClean_Idempotent(t *testing.T) {
	events := []models.Event{
		ev("PumpSuspend", "2015-01-01T12:00:00"),
		ev("Bolus", "2015-01-01T11:00:00", models.KeyAmount, 1.0, models.KeyProgrammed, 1.0),
		ev("PumpResume", "2015-01-01T10:30:00"),
		ev("PumpSuspend", "2015-01-01T10:00:00"),
		ev("BolusWizard", "2015-01-01T09:30:20", models.KeyBody, "aa"),
		ev("BolusWizard", "2015-01-01T09:30:00", models.KeyBody, "aa"),
		ev("PumpResume", "2015-01-01T09:00:00"),
		ev("Bolus", "2015-01-01T08:00:00", models.KeyAmount, 1.0, models.KeyProgrammed, 1.0),
	}

	once, w, err := Clean(events, zeroTime, zeroTime)
	require.NoError(t, err)
	assertPaired(t, once)
	assert.Equal(t, []string{
		"PumpResume@2015-01-01T12:00:00",
		"PumpSuspend@2015-01-01T12:00:00",
		"Bolus@2015-01-01T11:00:00",
		"PumpResume@2015-01-01T10:30:00",
		"PumpSuspend@2015-01-01T10:00:00",
		"BolusWizard@2015-01-01T09:30:20",
		"PumpResume@2015-01-01T09:00:00",
		"Bolus@2015-01-01T08:00:00",
		"PumpSuspend@2015-01-01T08:00:00",
	}, describe(once))

	twice, _, err := Clean(once, w.Start, w.End)
	require.NoError(t, err)
	assert.Equal(t, once, twice)

	defaulted, _, err := Clean(once, zeroTime, zeroTime)
	require.NoError(t, err)
	assert.Equal(t, once, defaulted)
}
