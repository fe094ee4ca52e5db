// Package cli implements the pumphistory command tree
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mrcode/pumphistory/internal/logging"
	"github.com/mrcode/pumphistory/internal/models"
	"github.com/spf13/cobra"
)

// app holds the state shared by every subcommand of one invocation
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	settings *models.Settings
	logger   *slog.Logger
}

// NewRootCommand builds the full command tree
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "pumphistory",
		Short: "Reconcile insulin pump history into canonical dosing records",
		Long: `pumphistory turns raw, newest-first insulin pump history into clean,
non-overlapping dosing records.

Every stage reads JSON from a file argument or stdin and writes JSON to stdout.

Examples:
  pumphistory clean history.json
  pumphistory run --schedule basal.yaml --zero 2015-10-15T20:00:00 history.json
  cat records.json | pumphistory chart --out records.png`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "settings file (default is settings.json in the user config dir)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(
		a.trimCommand(),
		a.cleanCommand(),
		a.reconcileCommand(),
		a.resolveCommand(),
		a.normalizeCommand(),
		a.runCommand(),
		a.batchCommand(),
		a.appendDoseCommand(),
		a.reservoirCommand(),
		a.scheduleCommand(),
		a.chartCommand(),
		a.configCommand(),
	)
	return root
}

// Execute runs the command tree with os.Args
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// setup loads settings, applies flag overrides and builds the logger
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	a.settings = models.DefaultSettings()

	var err error
	if a.configPath != "" {
		err = a.settings.LoadFile(a.configPath)
	} else {
		err = a.settings.Load()
	}
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	if cmd.Flags().Changed("log-level") {
		a.settings.LogLevel = a.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		a.settings.LogFormat = a.logFormat
	}
	if err := a.settings.Validate(); err != nil {
		return err
	}

	logger := logging.New(cmd.ErrOrStderr(), logging.ParseLevel(a.settings.LogLevel), a.settings.LogFormat)
	a.logger = logging.WithRunID(logger).With("command", cmd.Name())
	a.logger.Debug("settings loaded", "configured", a.settings.IsConfigured())
	return nil
}
