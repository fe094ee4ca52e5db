package history

import (
	"fmt"
	"time"

	"github.com/mrcode/pumphistory/internal/models"
)

// TrimOptions bounds the trimmed window. Any two of the three fields
// determine the third; zero values are derived from the history.
type TrimOptions struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

// Trim keeps the events of a newest-first history whose span overlaps the window.
// Events with no resolvable instant are kept. Order is preserved.
func Trim(events []models.Event, opts TrimOptions) ([]models.Event, Window, error) {
	w, err := trimWindow(events, opts)
	if err != nil {
		return nil, Window{}, fmt.Errorf("trimming history: %w", err)
	}
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if w.overlaps(e) {
			out = append(out, e)
		}
	}
	return out, w, nil
}

func trimWindow(events []models.Event, opts TrimOptions) (Window, error) {
	start, end, d := opts.Start, opts.End, opts.Duration
	switch {
	case !start.IsZero() && !end.IsZero():
		return Window{Start: start, End: end}, nil
	case !start.IsZero() && d > 0:
		return Window{Start: start, End: start.Add(d)}, nil
	case !end.IsZero() && d > 0:
		return Window{Start: end.Add(-d), End: end}, nil
	case d > 0:
		w, err := defaultWindow(events, time.Time{}, time.Time{})
		if err != nil || len(events) == 0 {
			return w, err
		}
		w.Start = w.End.Add(-d)
		return w, nil
	}
	return defaultWindow(events, start, end)
}
