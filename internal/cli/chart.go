package cli

import (
	"fmt"
	"os"

	"github.com/mrcode/pumphistory/internal/chart"
	"github.com/mrcode/pumphistory/internal/history"
	"github.com/mrcode/pumphistory/internal/models"
	"github.com/spf13/cobra"
)

func (a *app) chartCommand() *cobra.Command {
	var (
		out           string
		title         string
		width, height int
		pf            pipelineFlags
	)
	cmd := &cobra.Command{
		Use:   "chart [file]",
		Short: "Render records as a PNG timeline",
		Long: `Render records as a PNG timeline.

Input may be resolved records or raw pump history; raw history is run through
the pipeline first, using the pipeline flags.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			var records []models.Record
			if models.LooksResolved(data) {
				if records, err = decodeJSON[[]models.Record](data, "records"); err != nil {
					return err
				}
			} else {
				events, err := decodeJSON[[]models.Event](data, "history")
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
				records = res.Normalized
			}

			if !cmd.Flags().Changed("width") {
				width = a.settings.ChartWidth
			}
			if !cmd.Flags().Changed("height") {
				height = a.settings.ChartHeight
			}
			img, err := chart.Render(records, chart.Options{Width: width, Height: height, Title: title})
			if err != nil {
				return err
			}
			a.logger.Info("chart rendered", "records", len(records), "width", width, "height", height)

			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(img)
				return err
			}
			if err := os.WriteFile(out, img, 0600); err != nil {
				return fmt.Errorf("writing chart: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "PNG file to write (default stdout)")
	cmd.Flags().StringVar(&title, "title", "", "chart title")
	cmd.Flags().IntVar(&width, "width", 0, "image width in pixels (default from settings)")
	cmd.Flags().IntVar(&height, "height", 0, "image height in pixels (default from settings)")
	pf.register(cmd)
	return cmd
}
