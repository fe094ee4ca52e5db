package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrcode/pumphistory/internal/history"
	"github.com/mrcode/pumphistory/internal/models"
	"github.com/spf13/cobra"
)

// pipelineFlags configure a full pipeline run
type pipelineFlags struct {
	window   windowFlags
	now      string
	schedule string
	zero     string
	stage    string
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	f.window.register(cmd, true)
	cmd.Flags().StringVar(&f.now, "now", "", `current time for in-progress square boluses ("now" for the clock)`)
	cmd.Flags().StringVar(&f.schedule, "schedule", "", "basal schedule file, JSON or YAML")
	cmd.Flags().StringVar(&f.zero, "zero", "", "express instants as minutes from this timestamp")
}

func (f *pipelineFlags) registerStage(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.stage, "stage", "", "print this stage instead of the final one: trimmed, cleaned, reconciled, resolved or normalized")
}

func (a *app) pipelineOptions(f *pipelineFlags) (history.Options, error) {
	trim, err := f.window.trimOptions()
	if err != nil {
		return history.Options{}, err
	}
	now, err := parseTime("now", f.now)
	if err != nil {
		return history.Options{}, err
	}
	zero, err := parseTime("zero", f.zero)
	if err != nil {
		return history.Options{}, err
	}
	schedule, err := a.loadSchedule(f.schedule)
	if err != nil {
		return history.Options{}, err
	}
	return history.Options{
		Trim:     trim,
		Now:      now,
		Schedule: schedule,
		Zero:     zero,
		Logger:   a.logger,
	}, nil
}

// stageOutput picks the list of a result to print
func stageOutput(res *history.Result, stage string) (any, error) {
	switch strings.ToLower(stage) {
	case "":
		if res.Zeroed != nil {
			return res.Zeroed, nil
		}
		return res.Normalized, nil
	case "trimmed":
		return res.Trimmed, nil
	case "cleaned":
		return res.Cleaned, nil
	case "reconciled":
		return res.Reconciled, nil
	case "resolved":
		return res.Resolved, nil
	case "normalized":
		return res.Normalized, nil
	default:
		return nil, fmt.Errorf("unknown stage %q", stage)
	}
}

func (a *app) runCommand() *cobra.Command {
	var pf pipelineFlags
	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Run every stage from raw history to normalized records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := readEvents(cmd, args)
			if err != nil {
				return err
			}
			opts, err := a.pipelineOptions(&pf)
			if err != nil {
				return err
			}
			res, err := history.Run(events, opts)
			if err != nil {
				return err
			}
			a.logger.Info("history processed", "events", len(events), "records", len(res.Normalized))
			out, err := stageOutput(res, pf.stage)
			if err != nil {
				return err
			}
			return writeJSON(cmd, out)
		},
	}
	pf.register(cmd)
	pf.registerStage(cmd)
	return cmd
}

func (a *app) batchCommand() *cobra.Command {
	var pf pipelineFlags
	var concurrency int
	cmd := &cobra.Command{
		Use:   "batch file...",
		Short: "Run the pipeline over several histories in parallel",
		Long: `Run the pipeline over several independent histories in parallel.

Output is a JSON object keyed by file name without extension.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			histories := make(map[string][]models.Event, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path) //nolint:gosec // Paths are the caller's arguments
				if err != nil {
					return fmt.Errorf("reading input: %w", err)
				}
				events, err := decodeJSON[[]models.Event](data, path)
				if err != nil {
					return err
				}
				name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				if _, dup := histories[name]; dup {
					return fmt.Errorf("duplicate history name %q", name)
				}
				histories[name] = events
			}

			opts, err := a.pipelineOptions(&pf)
			if err != nil {
				return err
			}
			limit := a.settings.BatchConcurrency
			if cmd.Flags().Changed("concurrency") {
				limit = concurrency
			}
			results, err := history.RunBatch(cmd.Context(), histories, opts, limit)
			if err != nil {
				return err
			}
			a.logger.Info("batch processed", "histories", len(results), "concurrency", limit)

			out := make(map[string]any, len(results))
			for name, res := range results {
				if out[name], err = stageOutput(res, pf.stage); err != nil {
					return err
				}
			}
			return writeJSON(cmd, out)
		},
	}
	pf.register(cmd)
	pf.registerStage(cmd)
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "histories processed at once (default from settings)")
	return cmd
}
