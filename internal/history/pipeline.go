package history

import (
	"log/slog"
	"time"

	"github.com/mrcode/pumphistory/internal/logging"
	"github.com/mrcode/pumphistory/internal/models"
)

// Options configures a full pipeline run
type Options struct {
	Trim     TrimOptions
	Now      time.Time            // See ResolveOptions
	Schedule models.BasalSchedule // Nil skips basal normalization
	Zero     time.Time            // Zero skips time zeroing
	Logger   *slog.Logger
}

// Result keeps the output of every stage of a run
type Result struct {
	Window     Window
	Trimmed    []models.Event
	Cleaned    []models.Event
	Reconciled []models.Event
	Resolved   []models.Record
	Normalized []models.Record
	Zeroed     []models.RelativeRecord // Nil unless Options.Zero is set
}

// Run takes a raw newest-first history through Trim, Clean, Reconcile, Resolve
// and Normalize, and zeroes the result when requested
func Run(events []models.Event, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	res := &Result{}
	var err error

	res.Trimmed, res.Window, err = Trim(events, opts.Trim)
	if err != nil {
		return nil, err
	}
	logger.Debug("trimmed history", "in", len(events), "out", len(res.Trimmed),
		"start", res.Window.Start, "end", res.Window.End)

	res.Cleaned, _, err = Clean(res.Trimmed, res.Window.Start, res.Window.End)
	if err != nil {
		return nil, err
	}
	logger.Debug("cleaned history", "in", len(res.Trimmed), "out", len(res.Cleaned))

	res.Reconciled, err = Reconcile(res.Cleaned)
	if err != nil {
		return nil, err
	}
	logger.Debug("reconciled history", "out", len(res.Reconciled))

	res.Resolved, err = Resolve(res.Reconciled, ResolveOptions{Now: opts.Now})
	if err != nil {
		return nil, err
	}
	logger.Debug("resolved records", "out", len(res.Resolved))

	res.Normalized, err = Normalize(res.Resolved, opts.Schedule)
	if err != nil {
		return nil, err
	}
	logger.Debug("normalized records", "out", len(res.Normalized), "schedule_entries", len(opts.Schedule))

	if !opts.Zero.IsZero() {
		res.Zeroed = Zero(res.Normalized, opts.Zero)
	}
	return res, nil
}
