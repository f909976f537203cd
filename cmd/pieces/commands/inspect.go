package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pieces/internal/render"
	"github.com/Sumatoshi-tech/pieces/pkg/observability"
	"github.com/Sumatoshi-tech/pieces/pkg/persist"
	"github.com/Sumatoshi-tech/pieces/pkg/pieces"
)

// ErrSnapshotTooLarge is returned when a snapshot file exceeds the configured
// maximum size.
var ErrSnapshotTooLarge = errors.New("snapshot exceeds maximum size")

type inspectOptions struct {
	rows    int
	missing bool
}

func newInspectCommand(state *app) *cobra.Command {
	var opts inspectOptions

	cmd := &cobra.Command{
		Use:   "inspect <snapshot>",
		Short: "Print the ranges stored in a snapshot file",
		Long: `Load a snapshot written by simulate and print its coverage and ranges.
The codec is chosen from the file extension (.pcs, .json, .gob, .yaml and
their .lz4 variants).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := state.setup(observability.ModeCLI, "")
			if err != nil {
				return err
			}

			defer state.shutdown()

			return state.traced(cmd.Context(), "inspect", func(ctx context.Context) error {
				return runInspect(ctx, state, args[0], opts, cmd.OutOrStdout())
			})
		},
	}

	cmd.Flags().IntVar(&opts.rows, "rows", defaultRows, "maximum table rows to print (0 for all)")
	cmd.Flags().BoolVar(&opts.missing, "missing", false, "also print the missing ranges")

	return cmd
}

func runInspect(ctx context.Context, state *app, path string, opts inspectOptions, out io.Writer) error {
	maxBytes, err := state.config.Snapshot.MaxBytes()
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat snapshot: %w", err)
	}

	if size := uint64(info.Size()); size > maxBytes { //nolint:gosec // file sizes are non-negative
		return fmt.Errorf("%w: %s > %s", ErrSnapshotTooLarge, humanize.Bytes(size), humanize.Bytes(maxBytes))
	}

	codec, err := codecForPath(path)
	if err != nil {
		return err
	}

	// max_size also bounds what a compressed snapshot expands to.
	if compressed, ok := codec.(*persist.LZ4Codec); ok {
		compressed.Limit = maxBytes
	}

	var snap pieces.Snapshot

	err = persist.LoadFile(path, codec, &snap)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	set := pieces.NewSet(0, pieces.WithLogger(state.logger()))
	set.Import(snap)

	state.logger().InfoContext(ctx, "inspected snapshot",
		"path", path,
		"size", set.Size(),
		"ranges", set.Len(),
	)

	fmt.Fprintf(out, "%s (%s)\n", path, humanize.Bytes(uint64(info.Size()))) //nolint:gosec // file sizes are non-negative
	render.Summary(out, "snapshot", set.Size(), set.Missing())
	render.Ranges(out, "present", slices.Collect(set.All()), opts.rows)

	if opts.missing && set.Missing() > 0 {
		render.Ranges(out, "missing", slices.Collect(set.Empty()), opts.rows)
	}

	return nil
}
