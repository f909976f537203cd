package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pieces/internal/render"
	"github.com/Sumatoshi-tech/pieces/pkg/config"
	"github.com/Sumatoshi-tech/pieces/pkg/observability"
	"github.com/Sumatoshi-tech/pieces/pkg/persist"
	"github.com/Sumatoshi-tech/pieces/pkg/pieces"
)

const (
	defaultSeed    = 1
	defaultWaiters = 8
	defaultRows    = 20
	chartFilePerm  = 0o644
)

// Simulation errors.
var (
	ErrInvalidDrop = errors.New("drop fraction must be within [0, 1]")
	ErrNotADir     = errors.New("not a directory")
)

type simulateOptions struct {
	size        int
	seed        uint64
	drop        float64
	waiters     int
	codec       string
	out         string
	chart       string
	metricsAddr string
	rows        int
}

// simulation is the outcome of one run.
type simulation struct {
	samples  []int
	resolved int64
	pending  int64
}

func newSimulateCommand(state *app) *cobra.Command {
	var opts simulateOptions

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Deliver pieces in random order and save a snapshot",
		Long: `Deliver the pieces of a table in a seeded random order, optionally
dropping a fraction of them, while waiters block on selected pieces. The
resulting presence is printed and saved as a snapshot.

Examples:
  pieces simulate --size 4096 --seed 7
  pieces simulate --drop 0.1 --codec json --out /tmp
  pieces simulate --chart missing.html --metrics-addr 127.0.0.1:9464`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := state.setup(observability.ModeSimulate, opts.metricsAddr)
			if err != nil {
				return err
			}

			defer state.shutdown()

			applySimulateDefaults(cmd, state, &opts)

			return state.traced(cmd.Context(), "simulate", func(ctx context.Context) error {
				return runSimulate(ctx, state, opts, cmd.OutOrStdout())
			})
		},
	}

	cmd.Flags().IntVar(&opts.size, "size", 0, "number of pieces (default from config)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", defaultSeed, "random seed for the arrival order")
	cmd.Flags().Float64Var(&opts.drop, "drop", 0, "fraction of pieces that never arrive")
	cmd.Flags().IntVar(&opts.waiters, "waiters", defaultWaiters, "number of pieces with a pending wait")
	cmd.Flags().StringVar(&opts.codec, "codec", "", "snapshot codec (default from config)")
	cmd.Flags().StringVar(&opts.out, "out", "", "snapshot directory (default from config)")
	cmd.Flags().StringVar(&opts.chart, "chart", "", "write an HTML chart of missing pieces to this file")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve /metrics, /healthz and /readyz on this address")
	cmd.Flags().IntVar(&opts.rows, "rows", defaultRows, "maximum table rows to print (0 for all)")

	return cmd
}

func applySimulateDefaults(cmd *cobra.Command, state *app, opts *simulateOptions) {
	if !cmd.Flags().Changed("size") {
		opts.size = state.config.Table.Size
	}

	if opts.codec == "" {
		opts.codec = state.config.Snapshot.Codec
	}

	if opts.out == "" {
		opts.out = state.config.Snapshot.Directory
	}
}

func runSimulate(ctx context.Context, state *app, opts simulateOptions, out io.Writer) error {
	if opts.size <= 0 {
		return fmt.Errorf("%w: %d", config.ErrInvalidSize, opts.size)
	}

	if opts.drop < 0 || opts.drop > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidDrop, opts.drop)
	}

	codec, err := codecByName(opts.codec)
	if err != nil {
		return err
	}

	logger := state.logger()

	metrics, err := observability.NewPieceMetrics(state.providers.Meter)
	if err != nil {
		return err
	}

	table := pieces.NewTable[[]byte](opts.size,
		pieces.WithLogger(logger),
		pieces.WithRecorder(metrics),
	)

	unregister, err := metrics.TrackMissing(table.Missing())
	if err != nil {
		return err
	}

	defer func() {
		if unregErr := unregister(); unregErr != nil {
			logger.Warn("unregister missing gauge", "error", unregErr)
		}
	}()

	if opts.metricsAddr != "" {
		srv, srvErr := observability.NewDiagnosticsServer(opts.metricsAddr, state.providers.MetricsHandler,
			observability.ReadyCheck{Name: "snapshot_dir", Probe: dirProbe(opts.out)},
		)
		if srvErr != nil {
			return srvErr
		}

		defer func() {
			if closeErr := srv.Close(context.Background()); closeErr != nil {
				logger.Warn("diagnostics shutdown failed", "error", closeErr)
			}
		}()

		logger.InfoContext(ctx, "serving diagnostics", "addr", srv.Addr())
	}

	result := simulate(ctx, table, opts)

	logger.InfoContext(ctx, "simulation finished",
		"size", opts.size,
		"missing", table.Missing(),
		"resolved_waits", result.resolved,
		"unresolved_waits", result.pending,
	)

	render.Summary(out, "table", table.Size(), table.Missing())
	fmt.Fprintf(out, "waits resolved: %d, unresolved: %d\n", result.resolved, result.pending)

	snap := table.Export()
	render.Ranges(out, "present", snap.Ranges, opts.rows)

	if table.Missing() > 0 {
		render.Ranges(out, "missing", slices.Collect(table.Empty()), opts.rows)
	}

	persister := persist.NewPersister[pieces.Snapshot](state.config.Snapshot.Basename, codec)

	err = persister.Save(opts.out, snap)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	path := persister.Path(opts.out)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat snapshot: %w", err)
	}

	fmt.Fprintf(out, "snapshot written to %s (%s)\n", path, humanize.Bytes(uint64(info.Size()))) //nolint:gosec // file sizes are non-negative

	if opts.chart != "" {
		err = writeChart(opts.chart, result.samples)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "chart written to %s\n", opts.chart)
	}

	return nil
}

// simulate delivers pieces in a seeded random order. Waits are registered on
// the last pieces of the order, which are the dropped ones when drop > 0.
func simulate(ctx context.Context, table *pieces.Table[[]byte], opts simulateOptions) simulation {
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed)) //nolint:gosec // reproducible order, not security sensitive
	order := rng.Perm(opts.size)
	deliver := opts.size - int(opts.drop*float64(opts.size))

	waitCtx, cancel := context.WithCancel(ctx)

	var (
		wg       sync.WaitGroup
		resolved atomic.Int64
		pending  atomic.Int64
	)

	for i := range min(opts.waiters, opts.size) {
		future := table.Acquire(order[opts.size-1-i])

		wg.Add(1)

		go func() {
			defer wg.Done()

			if future.Wait(waitCtx) != nil {
				pending.Add(1)

				return
			}

			resolved.Add(1)
		}()
	}

	samples := make([]int, 0, deliver+1)
	samples = append(samples, table.Missing())

	for _, index := range order[:deliver] {
		table.Set(index, []byte(strconv.Itoa(index)))
		samples = append(samples, table.Missing())
	}

	cancel()
	wg.Wait()

	return simulation{
		samples:  samples,
		resolved: resolved.Load(),
		pending:  pending.Load(),
	}
}

func writeChart(path string, samples []int) (err error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, chartFilePerm)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}

	defer func() {
		err = errors.Join(err, file.Close())
	}()

	return render.MissingChart(file, "missing pieces", samples)
}

// dirProbe reports whether dir exists and is a directory.
func dirProbe(dir string) func(context.Context) error {
	return func(context.Context) error {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("stat snapshot directory: %w", err)
		}

		if !info.IsDir() {
			return fmt.Errorf("%w: %s", ErrNotADir, dir)
		}

		return nil
	}
}
