package history

import (
	"fmt"
	"math"
	"time"

	"github.com/mrcode/pumphistory/internal/models"
)

// maxScheduleDays bounds the per-day walk in scheduleSegments
const maxScheduleDays = 3

// segment is a span of constant scheduled basal rate
type segment struct {
	start, end time.Time
	rate       float64
}

// Normalize rewrites each TempBasal record as one or more records whose amount is
// the signed difference from the scheduled basal rate, in U/hour, split at every
// schedule boundary the record crosses. Split records are in chronological order.
// Without a schedule the records are returned unchanged.
func Normalize(records []models.Record, schedule models.BasalSchedule) ([]models.Record, error) {
	out := make([]models.Record, 0, len(records))
	if len(schedule) == 0 {
		return append(out, records...), nil
	}
	if err := schedule.Validate(); err != nil {
		return nil, fmt.Errorf("normalizing records: %w", err)
	}
	for _, r := range records {
		if r.Type != models.RecordTempBasal || !r.StartAt.Before(r.EndAt) {
			out = append(out, r)
			continue
		}
		adjusted, err := basalAdjustments(r, schedule)
		if err != nil {
			return nil, fmt.Errorf("normalizing records: %w", err)
		}
		out = append(out, adjusted...)
	}
	return out, nil
}

func basalAdjustments(r models.Record, schedule models.BasalSchedule) ([]models.Record, error) {
	if r.Unit != models.UnitPercentOfBasal && r.Unit != models.UnitUnitsPerHour {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBasalUnit, r.Unit)
	}
	segs, err := scheduleSegments(schedule, r.StartAt, r.EndAt)
	if err != nil {
		return nil, err
	}
	out := make([]models.Record, 0, len(segs))
	for _, s := range segs {
		rate := r.Amount
		if r.Unit == models.UnitPercentOfBasal {
			rate = s.rate * r.Amount / 100
		}
		out = append(out, models.Record{
			Type:        models.RecordTempBasal,
			StartAt:     s.start,
			EndAt:       s.end,
			Amount:      rate - s.rate,
			Unit:        models.UnitUnitsPerHour,
			Description: r.Description,
		})
	}
	return out, nil
}

// scheduleSegments returns the scheduled rates covering [start, end), clipped to it
func scheduleSegments(schedule models.BasalSchedule, start, end time.Time) ([]segment, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: %s is not before %s", ErrInvalidInterval, models.FormatTimestamp(start), models.FormatTimestamp(end))
	}
	if end.Sub(start) >= 24*time.Hour {
		return nil, fmt.Errorf("%w: %s spans a full day or more", ErrInvalidInterval, end.Sub(start))
	}

	var segs []segment
	day := models.TimeOfDay(0).On(start)
	for i := 0; i < maxScheduleDays && day.Before(end); i++ {
		next := day.AddDate(0, 0, 1)
		segs = append(segs, ratesWithinDay(schedule, day, next, maxTime(start, day), minTime(end, next))...)
		day = next
	}
	return segs, nil
}

// ratesWithinDay lists the segments of one calendar day between from and to.
// Before the first entry of the day the previous day's last rate still runs.
func ratesWithinDay(schedule models.BasalSchedule, day, next, from, to time.Time) []segment {
	bounds := make([]segment, 0, len(schedule)+1)
	if schedule[0].Start > 0 {
		bounds = append(bounds, segment{start: day, rate: schedule[len(schedule)-1].Rate})
	}
	for _, entry := range schedule {
		bounds = append(bounds, segment{start: entry.Start.On(day), rate: entry.Rate})
	}
	for i := range bounds {
		if i+1 < len(bounds) {
			bounds[i].end = bounds[i+1].start
		} else {
			bounds[i].end = next
		}
	}

	var out []segment
	for _, b := range bounds {
		if b.start.After(to) {
			break
		}
		s := segment{start: maxTime(b.start, from), end: minTime(b.end, to), rate: b.rate}
		if s.end.After(s.start) {
			out = append(out, s)
		}
	}
	return out
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// Zero replaces every instant with its signed offset from t0 in whole minutes
func Zero(records []models.Record, t0 time.Time) []models.RelativeRecord {
	out := make([]models.RelativeRecord, 0, len(records))
	for _, r := range records {
		out = append(out, models.RelativeRecord{
			Type:        r.Type,
			StartAt:     minutesFrom(t0, r.StartAt),
			EndAt:       minutesFrom(t0, r.EndAt),
			Amount:      r.Amount,
			Unit:        r.Unit,
			Description: r.Description,
		})
	}
	return out
}

func minutesFrom(t0, t time.Time) int {
	return int(math.Round(t.Sub(t0).Minutes()))
}
