package history

import (
	"fmt"
	"math"
	"time"

	"github.com/mrcode/pumphistory/internal/models"
)

// ResolveOptions tunes Resolve
type ResolveOptions struct {
	// Now marks square boluses that have not finished yet. Zero disables
	// the in-progress check.
	Now time.Time
}

// resolver carries the scan state of a single Resolve call
type resolver struct {
	now time.Time

	resumeAt    *time.Time
	suspendAt   *time.Time
	durationMin *float64
}

// Resolve converts a reconciled newest-first history into canonical records.
// Events that have no dosing effect produce nothing.
func Resolve(events []models.Event, opts ResolveOptions) ([]models.Record, error) {
	r := &resolver{now: opts.Now}
	out := make([]models.Record, 0, len(events))
	for _, e := range events {
		rec, ok, err := r.add(e)
		if err != nil {
			return nil, fmt.Errorf("resolving history: %w", err)
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *resolver) add(e models.Event) (models.Record, bool, error) {
	switch e.Kind {
	case models.KindBolus:
		return r.bolus(e)
	case models.KindBolusWizard, models.KindJournalEntryMealMarker:
		return meal(e)
	case models.KindJournalEntryExerciseMarker:
		t, err := e.Time()
		if err != nil {
			return models.Record{}, false, err
		}
		return models.Record{
			Type:        models.RecordExercise,
			StartAt:     t,
			EndAt:       t,
			Amount:      1,
			Unit:        models.UnitEvent,
			Description: e.TypeName(),
		}, true, nil
	case models.KindPumpResume:
		t, err := e.Time()
		if err != nil {
			return models.Record{}, false, err
		}
		r.resumeAt = &t
	case models.KindPumpSuspend:
		return r.suspend(e)
	case models.KindTempBasalDuration:
		minutes, ok := e.Float(models.KeyDuration)
		if !ok {
			return models.Record{}, false, fmt.Errorf("%w: TempBasalDuration at %s has no %q", ErrMissingTempBasalDuration, e.String(models.KeyTimestamp), models.KeyDuration)
		}
		r.durationMin = &minutes
	case models.KindTempBasal:
		if r.durationMin == nil {
			return models.Record{}, false, fmt.Errorf("%w: TempBasal at %s", ErrMissingTempBasalDuration, e.String(models.KeyTimestamp))
		}
		minutes := *r.durationMin
		r.durationMin = nil
		return tempBasal(e, minutes)
	}
	return models.Record{}, false, nil
}

func (r *resolver) suspend(e models.Event) (models.Record, bool, error) {
	start, err := e.Time()
	if err != nil {
		return models.Record{}, false, err
	}
	if r.resumeAt == nil {
		return models.Record{}, false, fmt.Errorf("%w: PumpSuspend at %s has no PumpResume", ErrUnbalancedSuspendResume, models.FormatTimestamp(start))
	}
	end := *r.resumeAt
	r.resumeAt = nil
	r.suspendAt = &start

	if !end.After(start) {
		return models.Record{}, false, nil
	}
	return models.Record{
		Type:        models.RecordTempBasal,
		StartAt:     start,
		EndAt:       end,
		Amount:      0,
		Unit:        models.UnitPercentOfBasal,
		Description: "Pump Suspend",
	}, true, nil
}

func (r *resolver) bolus(e models.Event) (models.Record, bool, error) {
	start, err := e.Time()
	if err != nil {
		return models.Record{}, false, err
	}
	delivered, _ := e.Float(models.KeyAmount)
	programmed, _ := e.Float(models.KeyProgrammed)
	if math.Max(delivered, programmed) <= 0 {
		return models.Record{}, false, nil
	}

	minutes, _ := e.Float(models.KeyBolusDuration)
	if e.String(models.KeyBolusType) != "square" || minutes <= 0 || programmed <= 0 {
		return models.Record{
			Type:        models.RecordBolus,
			StartAt:     start,
			EndAt:       start,
			Amount:      delivered,
			Unit:        models.UnitUnits,
			Description: fmt.Sprintf("Normal bolus: %vU", programmed),
		}, true, nil
	}

	nominalEnd := start.Add(time.Duration(minutes * float64(time.Minute)))
	inProgress := !r.now.IsZero() && r.now.Before(nominalEnd)
	interrupted := r.suspendAt != nil && r.suspendAt.After(start) && r.suspendAt.Before(nominalEnd)
	cancelled := !r.now.IsZero() && !r.now.Before(nominalEnd) && delivered < programmed

	if !inProgress && (interrupted || cancelled) {
		minutes = math.Round(minutes * delivered / programmed)
		// Delivery cannot continue past the suspend
		if interrupted {
			minutes = math.Min(minutes, math.Floor(r.suspendAt.Sub(start).Minutes()))
		}
		programmed = delivered
		if minutes <= 0 {
			return models.Record{
				Type:        models.RecordBolus,
				StartAt:     start,
				EndAt:       start,
				Amount:      delivered,
				Unit:        models.UnitUnits,
				Description: fmt.Sprintf("Square bolus: %vU over 0min", delivered),
			}, true, nil
		}
	}

	// Square boluses are delivered like a temporary basal rate
	return models.Record{
		Type:        models.RecordTempBasal,
		StartAt:     start,
		EndAt:       start.Add(time.Duration(minutes * float64(time.Minute))),
		Amount:      programmed / (minutes / 60),
		Unit:        models.UnitUnitsPerHour,
		Description: fmt.Sprintf("Square bolus: %vU over %dmin", programmed, int(minutes)),
	}, true, nil
}

func meal(e models.Event) (models.Record, bool, error) {
	carbs, _ := e.Float(models.KeyCarbInput)
	if carbs == 0 {
		return models.Record{}, false, nil
	}
	t, err := e.Time()
	if err != nil {
		return models.Record{}, false, err
	}
	return models.Record{
		Type:        models.RecordMeal,
		StartAt:     t,
		EndAt:       t,
		Amount:      carbs,
		Unit:        models.UnitGrams,
		Description: fmt.Sprintf("%s: %vg", e.TypeName(), carbs),
	}, true, nil
}

// tempBasal resolves a TempBasal event running for minutes. Zero-length
// basals produce nothing.
func tempBasal(e models.Event, minutes float64) (models.Record, bool, error) {
	start, err := e.Time()
	if err != nil {
		return models.Record{}, false, err
	}
	end := start.Add(time.Duration(minutes * float64(time.Minute)))
	if !end.After(start) {
		return models.Record{}, false, nil
	}

	amount, _ := e.Float(models.KeyRate)
	unit, suffix := models.UnitUnitsPerHour, string(models.UnitUnitsPerHour)
	if e.String(models.KeyTemp) == "percent" {
		unit, suffix = models.UnitPercentOfBasal, "%"
	}
	return models.Record{
		Type:        models.RecordTempBasal,
		StartAt:     start,
		EndAt:       end,
		Amount:      amount,
		Unit:        unit,
		Description: fmt.Sprintf("TempBasal: %v%s over %dmin", amount, suffix, int(math.Round(minutes))),
	}, true, nil
}
