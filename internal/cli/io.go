package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mrcode/pumphistory/internal/models"
	"github.com/spf13/cobra"
)

// readInput reads the file named by the first argument, or stdin when there
// is no argument or it is "-"
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0]) //nolint:gosec // Path is the caller's argument
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return data, nil
}

func decodeJSON[T any](data []byte, what string) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("parsing %s: %w", what, err)
	}
	return v, nil
}

func readEvents(cmd *cobra.Command, args []string) ([]models.Event, error) {
	data, err := readInput(cmd, args)
	if err != nil {
		return nil, err
	}
	return decodeJSON[[]models.Event](data, "history")
}

func readRecords(cmd *cobra.Command, args []string) ([]models.Record, error) {
	data, err := readInput(cmd, args)
	if err != nil {
		return nil, err
	}
	return decodeJSON[[]models.Record](data, "records")
}

// writeJSON writes v as indented JSON to the command's stdout
func writeJSON(cmd *cobra.Command, v any) error {
	return encodeJSON(cmd.OutOrStdout(), v)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// parseTime reads an optional timestamp flag. "now" is the current time.
func parseTime(name, value string) (time.Time, error) {
	switch strings.TrimSpace(value) {
	case "":
		return time.Time{}, nil
	case "now":
		return wallClockNow(), nil
	}
	t, err := models.ParseTimestamp(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return t, nil
}

// wallClockNow returns the local wall clock read the way zone-less pump
// timestamps are, as UTC at second precision
func wallClockNow() time.Time {
	n := time.Now()
	return time.Date(n.Year(), n.Month(), n.Day(), n.Hour(), n.Minute(), n.Second(), 0, time.UTC)
}
