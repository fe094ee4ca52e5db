package history

import (
	"fmt"
	"slices"

	"github.com/mrcode/pumphistory/internal/models"
)

// AppendDoses inserts received doses at the front of a newest-first raw history.
// Doses are given oldest first; ones the pump never acknowledged are skipped.
func AppendDoses(events []models.Event, doses []models.Dose) ([]models.Event, error) {
	out := slices.Clone(events)
	for _, d := range doses {
		if !d.WasReceived() {
			continue
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("appending dose: %w", err)
		}
		out = append(d.Events(), out...)
	}
	return out, nil
}

// AppendResolvedDoses resolves received doses and inserts the records at the
// front of a newest-first canonical history. A temp basal dose older than the
// TempBasal at the head of the history is stale and dropped; a newer one starts
// no earlier than the head's end.
func AppendResolvedDoses(records []models.Record, doses []models.Dose) ([]models.Record, error) {
	out := slices.Clone(records)
	for _, d := range doses {
		if !d.WasReceived() {
			continue
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("appending dose: %w", err)
		}
		doseAt, err := d.Time()
		if err != nil {
			return nil, fmt.Errorf("appending dose: %w", err)
		}

		var head *models.Record
		if models.ParseKind(d.Type) == models.KindTempBasal && len(out) > 0 && out[0].Type == models.RecordTempBasal {
			head = &out[0]
			if head.StartAt.After(doseAt) {
				continue
			}
		}

		resolved, err := Resolve(d.Events(), ResolveOptions{})
		if err != nil {
			return nil, fmt.Errorf("appending dose: %w", err)
		}
		if len(resolved) == 0 {
			continue
		}
		if head != nil {
			newest := &resolved[0]
			if newest.StartAt.After(head.StartAt) {
				newest.StartAt = minTime(maxTime(newest.StartAt, head.EndAt), newest.EndAt)
			}
		}
		out = append(resolved, out...)
	}
	return out, nil
}
