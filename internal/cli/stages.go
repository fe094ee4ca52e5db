package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/mrcode/pumphistory/internal/history"
	"github.com/mrcode/pumphistory/internal/models"
	"github.com/spf13/cobra"
)

// windowFlags are the flags that bound a history window
type windowFlags struct {
	start    string
	end      string
	duration time.Duration
}

func (f *windowFlags) register(cmd *cobra.Command, withDuration bool) {
	cmd.Flags().StringVar(&f.start, "start", "", "window start timestamp")
	cmd.Flags().StringVar(&f.end, "end", "", "window end timestamp")
	if withDuration {
		cmd.Flags().DurationVar(&f.duration, "duration", 0, "window length, used with --start or --end")
	}
}

func (f *windowFlags) trimOptions() (history.TrimOptions, error) {
	start, err := parseTime("start", f.start)
	if err != nil {
		return history.TrimOptions{}, err
	}
	end, err := parseTime("end", f.end)
	if err != nil {
		return history.TrimOptions{}, err
	}
	return history.TrimOptions{Start: start, End: end, Duration: f.duration}, nil
}

// loadSchedule reads a basal schedule file, falling back to the configured
// path. No path means no schedule.
func (a *app) loadSchedule(path string) (models.BasalSchedule, error) {
	if path == "" {
		path = a.settings.BasalSchedulePath
	}
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from a flag or the settings file
	if err != nil {
		return nil, fmt.Errorf("reading basal schedule: %w", err)
	}
	schedule, err := models.ParseBasalSchedule(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.logger.Debug("basal schedule loaded", "path", path, "entries", len(schedule))
	return schedule, nil
}

func (a *app) trimCommand() *cobra.Command {
	var wf windowFlags
	cmd := &cobra.Command{
		Use:   "trim [file]",
		Short: "Keep the events that overlap a time window",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := readEvents(cmd, args)
			if err != nil {
				return err
			}
			opts, err := wf.trimOptions()
			if err != nil {
				return err
			}
			out, w, err := history.Trim(events, opts)
			if err != nil {
				return err
			}
			a.logger.Info("trimmed history", "in", len(events), "out", len(out), "start", w.Start, "end", w.End)
			return writeJSON(cmd, out)
		},
	}
	wf.register(cmd, true)
	return cmd
}

func (a *app) cleanCommand() *cobra.Command {
	var wf windowFlags
	cmd := &cobra.Command{
		Use:   "clean [file]",
		Short: "Remove duplicates and balance suspend/resume events",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := readEvents(cmd, args)
			if err != nil {
				return err
			}
			opts, err := wf.trimOptions()
			if err != nil {
				return err
			}
			out, w, err := history.Clean(events, opts.Start, opts.End)
			if err != nil {
				return err
			}
			a.logger.Info("cleaned history", "in", len(events), "out", len(out), "start", w.Start, "end", w.End)
			return writeJSON(cmd, out)
		},
	}
	wf.register(cmd, false)
	return cmd
}

func (a *app) reconcileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [file]",
		Short: "Trim temp basals and boluses interrupted by pump suspends",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := readEvents(cmd, args)
			if err != nil {
				return err
			}
			out, err := history.Reconcile(events)
			if err != nil {
				return err
			}
			a.logger.Info("reconciled history", "in", len(events), "out", len(out))
			return writeJSON(cmd, out)
		},
	}
}

func (a *app) resolveCommand() *cobra.Command {
	var now string
	cmd := &cobra.Command{
		Use:   "resolve [file]",
		Short: "Convert reconciled events into canonical records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := readEvents(cmd, args)
			if err != nil {
				return err
			}
			t, err := parseTime("now", now)
			if err != nil {
				return err
			}
			out, err := history.Resolve(events, history.ResolveOptions{Now: t})
			if err != nil {
				return err
			}
			a.logger.Info("resolved records", "in", len(events), "out", len(out))
			return writeJSON(cmd, out)
		},
	}
	cmd.Flags().StringVar(&now, "now", "", `current time for in-progress square boluses ("now" for the clock)`)
	return cmd
}

func (a *app) normalizeCommand() *cobra.Command {
	var schedulePath, zero string
	cmd := &cobra.Command{
		Use:   "normalize [file]",
		Short: "Express temp basals relative to the basal schedule",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readRecords(cmd, args)
			if err != nil {
				return err
			}
			schedule, err := a.loadSchedule(schedulePath)
			if err != nil {
				return err
			}
			t0, err := parseTime("zero", zero)
			if err != nil {
				return err
			}
			out, err := history.Normalize(records, schedule)
			if err != nil {
				return err
			}
			a.logger.Info("normalized records", "in", len(records), "out", len(out))
			if !t0.IsZero() {
				return writeJSON(cmd, history.Zero(out, t0))
			}
			return writeJSON(cmd, out)
		},
	}
	cmd.Flags().StringVar(&schedulePath, "schedule", "", "basal schedule file, JSON or YAML")
	cmd.Flags().StringVar(&zero, "zero", "", "express instants as minutes from this timestamp")
	return cmd
}
