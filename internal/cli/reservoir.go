package cli

import (
	"time"

	"github.com/mrcode/pumphistory/internal/history"
	"github.com/mrcode/pumphistory/internal/models"
	"github.com/spf13/cobra"
)

func (a *app) reservoirCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reservoir",
		Short: "Track reservoir readings and estimate doses from them",
	}
	cmd.AddCommand(a.reservoirAppendCommand(), a.reservoirDosesCommand())
	return cmd
}

func (a *app) reservoirAppendCommand() *cobra.Command {
	var (
		amount   float64
		clock    string
		lookback time.Duration
	)
	cmd := &cobra.Command{
		Use:   "append [file]",
		Short: "Append a reservoir reading to a chronological reading history",
		Long: `Append a reservoir reading to a chronological reading history.

Without a file the history starts empty; "-" reads it from stdin. Readings
older than the lookback are dropped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []models.ReservoirEntry
			if len(args) > 0 {
				data, err := readInput(cmd, args)
				if err != nil {
					return err
				}
				if entries, err = decodeJSON[[]models.ReservoirEntry](data, "reservoir history"); err != nil {
					return err
				}
			}

			if clock == "" {
				clock = "now"
			}
			at, err := parseTime("clock", clock)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("lookback") {
				lookback = time.Duration(a.settings.LookbackHours * float64(time.Hour))
			}

			out := history.AppendReservoirEntry(entries, amount, at, lookback)
			a.logger.Info("reservoir reading appended", "amount", amount, "kept", len(out), "lookback", lookback)
			return writeJSON(cmd, out)
		},
	}
	cmd.Flags().Float64Var(&amount, "amount", 0, "units left in the reservoir")
	cmd.Flags().StringVar(&clock, "clock", "", "time of the reading (default now)")
	cmd.Flags().DurationVar(&lookback, "lookback", 0, "how much reading history to keep (default from settings)")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func (a *app) reservoirDosesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doses [file]",
		Short: "Estimate delivered insulin from consecutive reservoir readings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			entries, err := decodeJSON[[]models.ReservoirEntry](data, "reservoir history")
			if err != nil {
				return err
			}
			out := history.ReservoirDoses(entries)
			a.logger.Info("reservoir doses estimated", "readings", len(entries), "doses", len(out))
			return writeJSON(cmd, out)
		},
	}
}
