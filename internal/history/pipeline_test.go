package history

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/mrcode/pumphistory/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHistory() []models.Event {
	return concat(
		tempBasalPair("2015-01-01T10:30:00", 30, 150, "percent"),
		[]models.Event{ev("Bolus", "2015-01-01T10:15:00",
			models.KeyBolusType, "normal", models.KeyAmount, 1.0, models.KeyProgrammed, 1.0)},
		tempBasalPair("2015-01-01T10:00:00", 60, 0.5, "absolute"),
		[]models.Event{ev("BolusWizard", "2015-01-01T09:55:00", models.KeyCarbInput, 30.0, models.KeyBody, "x")},
	)
}

func TestRun(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	res, err := Run(sampleHistory(), Options{
		Schedule: models.BasalSchedule{{Start: 0, Rate: 1.0}},
		Zero:     at("2015-01-01T10:00:00"),
		Logger:   logger,
	})
	require.NoError(t, err)

	assert.Len(t, res.Trimmed, 6)
	assert.Len(t, res.Cleaned, 6)
	assert.InDelta(t, 30.0, durationOf(t, res.Reconciled[3]), 1e-9)

	require.Len(t, res.Resolved, 4)
	assert.Equal(t, "TempBasal: 150% over 30min", res.Resolved[0].Description)
	assert.Equal(t, models.RecordBolus, res.Resolved[1].Type)
	assert.Equal(t, "TempBasal: 0.5U/hour over 30min", res.Resolved[2].Description)
	assert.Equal(t, models.RecordMeal, res.Resolved[3].Type)

	require.Len(t, res.Normalized, 4)
	assert.InDelta(t, 0.5, res.Normalized[0].Amount, 1e-9)
	assert.InDelta(t, -0.5, res.Normalized[2].Amount, 1e-9)
	assert.Equal(t, models.UnitUnitsPerHour, res.Normalized[2].Unit)

	require.Len(t, res.Zeroed, 4)
	assert.Equal(t, 30, res.Zeroed[0].StartAt)
	assert.Equal(t, 60, res.Zeroed[0].EndAt)
	assert.Equal(t, -5, res.Zeroed[3].StartAt)

	for _, stage := range []string{"trimmed history", "cleaned history", "reconciled history", "resolved records", "normalized records"} {
		assert.Contains(t, logs.String(), stage)
	}
}

func TestRun_StopsAtFirstError(t *testing.T) {
	events := []models.Event{ev("TempBasal", "2015-01-01T10:00:00", models.KeyRate, 1.0)}
	res, err := Run(events, Options{})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrUnpairedTempBasal)
}

func TestRunBatch(t *testing.T) {
	t.Run("all succeed", func(t *testing.T) {
		histories := map[string][]models.Event{
			"a": sampleHistory(),
			"b": sampleHistory()[2:],
			"c": nil,
		}
		results, err := RunBatch(context.Background(), histories, Options{}, 2)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Len(t, results["a"].Resolved, 4)
		assert.Len(t, results["b"].Resolved, 3)
		assert.Empty(t, results["c"].Resolved)
	})

	t.Run("one fails", func(t *testing.T) {
		histories := map[string][]models.Event{
			"good": sampleHistory(),
			"bad":  {ev("TempBasal", "2015-01-01T10:00:00", models.KeyRate, 1.0)},
		}
		_, err := RunBatch(context.Background(), histories, Options{Logger: slog.New(slog.DiscardHandler)}, 0)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnpairedTempBasal)
		assert.Contains(t, err.Error(), "history bad")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := RunBatch(ctx, map[string][]models.Event{"a": sampleHistory()}, Options{}, 1)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
