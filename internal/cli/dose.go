package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/mrcode/pumphistory/internal/history"
	"github.com/mrcode/pumphistory/internal/models"
	"github.com/spf13/cobra"
)

// readDoses accepts a single dose object or an array of doses, oldest first
func readDoses(path string) ([]models.Dose, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is the caller's argument
	if err != nil {
		return nil, fmt.Errorf("reading doses: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		d, err := decodeJSON[models.Dose](data, "dose")
		if err != nil {
			return nil, err
		}
		return []models.Dose{d}, nil
	}
	return decodeJSON[[]models.Dose](data, "doses")
}

func (a *app) appendDoseCommand() *cobra.Command {
	var resolved bool
	cmd := &cobra.Command{
		Use:   "append-dose history doses",
		Short: "Add doses issued by a controller to the front of a history",
		Long: `Add doses issued by a controller to the front of a history.

The history may be raw pump events or resolved records; the kind is detected
from its first element unless --resolved is given. Doses the pump never
acknowledged are skipped.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[:1])
			if err != nil {
				return err
			}
			doses, err := readDoses(args[1])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("resolved") {
				resolved = models.LooksResolved(data)
			}

			if resolved {
				records, err := decodeJSON[[]models.Record](data, "records")
				if err != nil {
					return err
				}
				out, err := history.AppendResolvedDoses(records, doses)
				if err != nil {
					return err
				}
				a.logger.Info("appended doses to records", "doses", len(doses), "records", len(out))
				return writeJSON(cmd, out)
			}

			events, err := decodeJSON[[]models.Event](data, "history")
			if err != nil {
				return err
			}
			out, err := history.AppendDoses(events, doses)
			if err != nil {
				return err
			}
			a.logger.Info("appended doses to history", "doses", len(doses), "events", len(out))
			return writeJSON(cmd, out)
		},
	}
	cmd.Flags().BoolVar(&resolved, "resolved", false, "treat the history as resolved records")
	return cmd
}
