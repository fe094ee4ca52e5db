package history

import (
	"time"

	"github.com/mrcode/pumphistory/internal/models"
)

// Window is an inclusive time range
type Window struct {
	Start time.Time
	End   time.Time
}

// overlaps reports whether the event's span touches the window.
// Events without a resolvable instant are always kept.
func (w Window) overlaps(e models.Event) bool {
	endAt, err := e.Time("end_at")
	if err != nil {
		return true
	}
	startAt, err := e.Time("start_at")
	if err != nil {
		return true
	}
	return !endAt.Before(w.Start) && !startAt.After(w.End)
}

// defaultWindow derives missing bounds from a newest-first event list:
// the oldest event's start and the newest event's end.
func defaultWindow(events []models.Event, start, end time.Time) (Window, error) {
	w := Window{Start: start, End: end}
	if len(events) == 0 {
		return w, nil
	}
	if w.Start.IsZero() {
		t, err := events[len(events)-1].Time("start_at")
		if err != nil {
			return w, err
		}
		w.Start = t
	}
	if w.End.IsZero() {
		t, err := events[0].Time("end_at")
		if err != nil {
			return w, err
		}
		w.End = t
	}
	return w, nil
}
