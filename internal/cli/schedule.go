package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/mrcode/pumphistory/internal/models"
	"github.com/mrcode/pumphistory/internal/nightscout"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// errNotConfigured is returned by commands that need a Nightscout site
var errNotConfigured = errors.New("no Nightscout URL configured; set nightscoutUrl or PUMPHISTORY_NIGHTSCOUT_URL")

func (a *app) scheduleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage basal schedules",
	}
	cmd.AddCommand(a.scheduleFetchCommand())
	return cmd
}

func (a *app) scheduleFetchCommand() *cobra.Command {
	var profile, out, format string
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the basal schedule of a Nightscout profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.settings.IsConfigured() {
				return errNotConfigured
			}
			client := nightscout.NewClientFromSettings(a.settings)
			if err := client.TestConnection(cmd.Context()); err != nil {
				return fmt.Errorf("connecting to Nightscout: %w", err)
			}
			p, err := client.GetProfile(cmd.Context(), profile)
			if err != nil {
				return fmt.Errorf("fetching basal schedule: %w", err)
			}
			// Schedule times are wall clock in the profile's zone, like pump timestamps
			loc, err := p.Location()
			if err != nil {
				return err
			}
			schedule := p.Basal
			a.logger.Info("basal schedule fetched", "profile", profile, "entries", len(schedule), "timezone", loc.String())

			data, err := encodeSchedule(schedule, format)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0600); err != nil {
				return fmt.Errorf("writing basal schedule: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "profile name (default is the site's default profile)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the schedule to this file instead of stdout")
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or json")
	return cmd
}

func encodeSchedule(schedule models.BasalSchedule, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(schedule); err != nil {
			return nil, fmt.Errorf("encoding basal schedule: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encoding basal schedule: %w", err)
		}
	case "json":
		if err := encodeJSON(&buf, schedule); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown schedule format %q", format)
	}
	return buf.Bytes(), nil
}
