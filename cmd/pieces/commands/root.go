// Package commands implements the pieces CLI commands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/pieces/pkg/config"
	"github.com/Sumatoshi-tech/pieces/pkg/observability"
	"github.com/Sumatoshi-tech/pieces/pkg/version"
)

// ObservabilityInitFunc builds observability providers. Tests replace it with
// a no-op variant.
type ObservabilityInitFunc func(observability.Config) (observability.Providers, error)

// app is the state shared by every subcommand of one invocation.
type app struct {
	configPath string
	initObs    ObservabilityInitFunc

	config    *config.Config
	providers observability.Providers
	commands  *observability.CommandMetrics
}

// NewRootCommand creates the pieces root command with every subcommand
// attached.
func NewRootCommand() *cobra.Command {
	return newRootCommand(observability.Init)
}

func newRootCommand(initObs ObservabilityInitFunc) *cobra.Command {
	state := &app{initObs: initObs}

	rootCmd := &cobra.Command{
		Use:   "pieces",
		Short: "Piece presence tracking tools",
		Long: `pieces tracks which pieces of a fixed-size domain are present.

Commands:
  simulate  Deliver pieces in random order into a table and save a snapshot
  inspect   Print the ranges stored in a snapshot file
  validate  Check a JSON snapshot against the snapshot schema`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&state.configPath, "config", "", "config file (default ./pieces.yaml)")

	rootCmd.AddCommand(newSimulateCommand(state))
	rootCmd.AddCommand(newInspectCommand(state))
	rootCmd.AddCommand(newValidateCommand(state))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

// setup loads configuration and starts observability. Providers must be
// released with shutdown.
func (a *app) setup(mode observability.AppMode, metricsAddr string) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}

	obsCfg, err := observabilityConfig(cfg, mode)
	if err != nil {
		return err
	}

	obsCfg.Prometheus = metricsAddr != ""

	providers, err := a.initObs(obsCfg)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	commands, err := observability.NewCommandMetrics(providers.Meter)
	if err != nil {
		return errors.Join(err, providers.Shutdown(context.Background()))
	}

	a.config = cfg
	a.providers = providers
	a.commands = commands

	return nil
}

func (a *app) logger() *slog.Logger {
	if a.providers.Logger == nil {
		return slog.Default()
	}

	return a.providers.Logger
}

func (a *app) shutdown() {
	if a.providers.Shutdown == nil {
		return
	}

	err := a.providers.Shutdown(context.Background())
	if err != nil {
		a.logger().Warn("observability shutdown failed", "error", err)
	}
}

// traced runs fn inside a span named after the command and records its
// duration and outcome.
func (a *app) traced(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := a.providers.Tracer.Start(ctx, "pieces."+name,
		trace.WithAttributes(attribute.String("pieces.command", name)),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	status := observability.StatusOK
	if err != nil {
		status = observability.StatusError

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	a.commands.RecordCommand(ctx, name, status, time.Since(start))

	return err
}

func observabilityConfig(cfg *config.Config, mode observability.AppMode) (observability.Config, error) {
	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return observability.Config{}, err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceName = cfg.Observability.ServiceName
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Observability.Environment
	obsCfg.Mode = mode
	obsCfg.OTLPEndpoint = cfg.Observability.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Observability.OTLPHeaders)
	obsCfg.OTLPInsecure = cfg.Observability.OTLPInsecure
	obsCfg.SampleRatio = cfg.Observability.SampleRatio
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Logging.JSON()
	obsCfg.ShutdownTimeout = cfg.Observability.ShutdownTimeout

	return obsCfg, nil
}
