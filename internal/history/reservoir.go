package history

import (
	"fmt"
	"slices"
	"time"

	"github.com/mrcode/pumphistory/internal/models"
)

// DefaultReservoirLookback is how much reservoir history AppendReservoirEntry keeps
const DefaultReservoirLookback = 4 * time.Hour

// maxDropPerMinute is the fastest plausible reservoir drop in units per minute.
// A pump needs about 40s per unit while bolusing; larger drops are refills or rewinds.
const maxDropPerMinute = 2.0

// AppendReservoirEntry appends a reading taken at clock to a copy of the
// chronological history and drops readings older than clock minus lookback.
// A non-positive lookback uses DefaultReservoirLookback.
func AppendReservoirEntry(history []models.ReservoirEntry, amount float64, clock time.Time, lookback time.Duration) []models.ReservoirEntry {
	if lookback <= 0 {
		lookback = DefaultReservoirLookback
	}
	cutoff := clock.Add(-lookback)

	out := make([]models.ReservoirEntry, 0, len(history)+1)
	for _, e := range history {
		if !e.Date.Before(cutoff) {
			out = append(out, e)
		}
	}
	return append(out, models.ReservoirEntry{Date: clock, Amount: amount, Unit: models.UnitUnits})
}

// ReservoirDoses estimates delivered insulin from consecutive readings of a
// chronological reservoir history. Implausible drops are treated as gaps.
// Records are returned newest first.
func ReservoirDoses(history []models.ReservoirEntry) []models.Record {
	var out []models.Record
	for i := 1; i < len(history); i++ {
		prev, curr := history[i-1], history[i]
		elapsed := curr.Date.Sub(prev.Date).Minutes()
		if elapsed <= 0 {
			continue
		}
		drop := prev.Amount - curr.Amount
		if drop < 0 || drop > maxDropPerMinute*elapsed {
			continue
		}
		out = append(out, models.Record{
			Type:        models.RecordTempBasal,
			StartAt:     prev.Date,
			EndAt:       curr.Date,
			Amount:      drop * 60 / elapsed,
			Unit:        models.UnitUnitsPerHour,
			Description: fmt.Sprintf("Reservoir decreased %vU over %.2fmin", drop, elapsed),
		})
	}
	slices.Reverse(out)
	return out
}
