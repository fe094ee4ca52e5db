package history

import (
	"fmt"
	"time"

	"github.com/mrcode/pumphistory/internal/models"
)

// bolusWizardDedupWindow is how close two BolusWizard events with the same
// body must be to count as duplicates
const bolusWizardDedupWindow = time.Minute

// cleaner carries the scan state of a single Clean call
type cleaner struct {
	window Window
	out    []models.Event

	wizardsByBody   map[string][]time.Time
	pendingResume   bool
	lastDuration    time.Time
	hasLastDuration bool
}

// Clean restricts a newest-first history to the window, drops duplicate
// BolusWizard events and pairs every PumpSuspend with a PumpResume, synthesizing
// the missing half at the window edge. Zero bounds default to the oldest and
// newest event instants.
func Clean(events []models.Event, start, end time.Time) ([]models.Event, Window, error) {
	w, err := defaultWindow(events, start, end)
	if err != nil {
		return nil, Window{}, fmt.Errorf("cleaning history: %w", err)
	}

	c := &cleaner{
		window:        w,
		out:           make([]models.Event, 0, len(events)+1),
		wizardsByBody: make(map[string][]time.Time),
	}
	for _, e := range events {
		if !w.overlaps(e) {
			continue
		}
		if err := c.add(e); err != nil {
			return nil, Window{}, fmt.Errorf("cleaning history: %w", err)
		}
	}

	// The pump was suspended before the window began
	if c.pendingResume {
		c.out = append(c.out, models.NewEvent(models.KindPumpSuspend.String(), map[string]any{
			models.KeyTimestamp: models.FormatTimestamp(w.Start),
		}))
	}
	return c.out, w, nil
}

func (c *cleaner) add(e models.Event) error {
	switch e.Kind {
	case models.KindBolusWizard:
		return c.addBolusWizard(e)
	case models.KindPumpResume:
		c.pendingResume = true
	case models.KindPumpSuspend:
		if !c.pendingResume {
			c.out = append(c.out, models.NewEvent(models.KindPumpResume.String(), map[string]any{
				models.KeyTimestamp: models.FormatTimestamp(c.window.End),
			}))
		}
		c.pendingResume = false
	case models.KindTempBasalDuration:
		t, err := e.Time()
		if err != nil {
			return err
		}
		c.lastDuration, c.hasLastDuration = t, true
	case models.KindTempBasal:
		t, err := e.Time()
		if err != nil {
			return err
		}
		if !c.hasLastDuration || !t.Equal(c.lastDuration) {
			return fmt.Errorf("%w: TempBasal at %s", ErrUnpairedTempBasal, models.FormatTimestamp(t))
		}
	}
	c.out = append(c.out, e)
	return nil
}

func (c *cleaner) addBolusWizard(e models.Event) error {
	t, err := e.Time()
	if err != nil {
		return err
	}
	body := e.String(models.KeyBody)
	for _, seen := range c.wizardsByBody[body] {
		if t.Sub(seen).Abs() <= bolusWizardDedupWindow {
			return nil
		}
	}
	c.wizardsByBody[body] = append(c.wizardsByBody[body], t)
	c.out = append(c.out, e)
	return nil
}
