package history

import (
	"fmt"
	"slices"
	"time"

	"github.com/mrcode/pumphistory/internal/models"
)

// reconciler carries the scan state of a single Reconcile call.
// Events are appended oldest first and reversed at the end.
type reconciler struct {
	out []models.Event

	lastSuspend  *models.Event
	lastRate     *models.Event
	openDuration int // index into out of the running TempBasalDuration, or -1
}

// Reconcile adjusts temp basal durations in a cleaned newest-first history so
// that no two temp basals overlap: a new temp basal cuts the running one short,
// and a suspend cuts it at the suspend and restarts the remainder at the resume.
func Reconcile(events []models.Event) ([]models.Event, error) {
	r := &reconciler{
		out:          make([]models.Event, 0, len(events)),
		openDuration: -1,
	}
	for _, e := range slices.Backward(events) {
		if err := r.add(e); err != nil {
			return nil, fmt.Errorf("reconciling history: %w", err)
		}
	}
	slices.Reverse(r.out)
	return r.out, nil
}

func (r *reconciler) add(e models.Event) error {
	switch e.Kind {
	case models.KindPumpSuspend:
		r.lastSuspend = &e
	case models.KindTempBasal:
		r.lastRate = &e
	case models.KindTempBasalDuration:
		t, err := e.Time()
		if err != nil {
			return err
		}
		if err := r.trimOpenBasal(t); err != nil {
			return err
		}
		r.out = append(r.out, e)
		r.openDuration = len(r.out) - 1
		return nil
	case models.KindPumpResume:
		return r.addResume(e)
	}
	r.out = append(r.out, e)
	return nil
}

// basalSpan returns the start and scheduled end of a TempBasalDuration event
func basalSpan(e models.Event) (time.Time, time.Time, error) {
	start, err := e.Time()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	minutes, ok := e.Float(models.KeyDuration)
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("TempBasalDuration at %s has no %q", models.FormatTimestamp(start), models.KeyDuration)
	}
	return start, start.Add(time.Duration(minutes * float64(time.Minute))), nil
}

// trimOpenBasal shortens the running temp basal so it ends at t
func (r *reconciler) trimOpenBasal(t time.Time) error {
	if r.openDuration < 0 {
		return nil
	}
	start, end, err := basalSpan(r.out[r.openDuration])
	if err != nil {
		return err
	}
	if end.After(t) {
		r.out[r.openDuration] = r.out[r.openDuration].With(models.KeyDuration, t.Sub(start).Minutes())
	}
	return nil
}

func (r *reconciler) addResume(e models.Event) error {
	r.out = append(r.out, e)
	if r.openDuration < 0 {
		return nil
	}
	if r.lastSuspend == nil {
		return fmt.Errorf("%w: PumpResume at %s has no preceding PumpSuspend", ErrUnbalancedSuspendResume, e.String(models.KeyTimestamp))
	}

	suspendAt, err := r.lastSuspend.Time()
	if err != nil {
		return err
	}
	resumeAt, err := e.Time()
	if err != nil {
		return err
	}
	open := r.out[r.openDuration]
	_, end, err := basalSpan(open)
	if err != nil {
		return err
	}
	if err := r.trimOpenBasal(suspendAt); err != nil {
		return err
	}
	if !end.After(resumeAt) || r.lastRate == nil {
		return nil
	}

	// Restart the temp basal that was still scheduled
	rate := restartedAt(*r.lastRate, e)
	duration := restartedAt(open, e).With(models.KeyDuration, int(end.Sub(resumeAt).Minutes()))
	r.out = append(r.out, rate, duration)
	r.lastRate = &rate
	r.openDuration = len(r.out) - 1
	return nil
}

// restartedAt copies e to start at the resume event's instant
func restartedAt(e, resume models.Event) models.Event {
	for _, key := range []string{models.KeyDate, models.KeyTimestamp} {
		if v, ok := resume.Get(key); ok {
			e = e.With(key, v)
		}
	}
	return e.With(models.KeyDescription, e.TypeName()+" generated due to interleaved PumpSuspend event")
}
