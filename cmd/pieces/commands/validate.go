package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pieces/pkg/observability"
	"github.com/Sumatoshi-tech/pieces/pkg/snapshot"
)

// ErrValidationFailed is returned when a document violates the snapshot
// schema.
var ErrValidationFailed = errors.New("snapshot validation failed")

func newValidateCommand(state *app) *cobra.Command {
	var colorize, nocolor bool

	cmd := &cobra.Command{
		Use:   "validate <snapshot.json>",
		Short: "Check a JSON snapshot against the snapshot schema",
		Long: `Validate a JSON snapshot document against the embedded snapshot schema.

Examples:
  pieces validate pieces.json
  pieces validate --no-color pieces.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if nocolor {
				color.NoColor = true //nolint:reassign // intentional override of library global
			} else if colorize {
				color.NoColor = false //nolint:reassign // intentional override of library global
			}

			err := state.setup(observability.ModeCLI, "")
			if err != nil {
				return err
			}

			defer state.shutdown()

			return state.traced(cmd.Context(), "validate", func(_ context.Context) error {
				return runValidate(args[0], cmd.OutOrStdout())
			})
		},
	}

	cmd.Flags().BoolVar(&colorize, "color", false, "force colored output")
	cmd.Flags().BoolVar(&nocolor, "no-color", false, "disable colored output")

	return cmd
}

func runValidate(path string, out io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	violations, err := snapshot.Violations(data)
	if err != nil {
		return fmt.Errorf("validate %s: %w", path, err)
	}

	if len(violations) == 0 {
		color.New(color.FgGreen).Fprintf(out, "snapshot is valid (%s)\n", path)

		return nil
	}

	color.New(color.FgRed).Fprintf(out, "snapshot validation failed (%s)\n", path)

	for _, violation := range violations {
		color.New(color.FgRed).Fprintf(out, "  - %s\n", violation)
	}

	return fmt.Errorf("%w: %d violations", ErrValidationFailed, len(violations))
}
