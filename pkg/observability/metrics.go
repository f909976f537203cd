package observability

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricAddedTotal      = "pieces.added.total"
	metricRemovedTotal    = "pieces.removed.total"
	metricResolvedTotal   = "pieces.waits.resolved.total"
	metricMissing         = "pieces.missing"
	metricCommandsTotal   = "pieces.commands.total"
	metricCommandDuration = "pieces.command.duration.seconds"

	attrCommand = "command"
	attrStatus  = "status"

	// StatusOK marks a command that completed without error.
	StatusOK = "ok"
	// StatusError marks a command that returned an error.
	StatusError = "error"
)

// durationBucketBoundaries covers 1ms to 60s, from a snapshot inspection to
// a large simulation.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60}

// ErrNegativeMissing is returned when the missing gauge is seeded below zero.
var ErrNegativeMissing = errors.New("missing count must not be negative")

// PieceMetrics records presence transitions as OTel counters. It satisfies
// the pieces.Recorder interface.
//
// The missing gauge is read by the collector's goroutine, so it never calls
// into the observed structure. It reports a counter kept here instead, moved
// by Added and Removed.
type PieceMetrics struct {
	added        metric.Int64Counter
	removed      metric.Int64Counter
	resolved     metric.Int64Counter
	missingGauge metric.Int64ObservableGauge
	meter        metric.Meter

	missing atomic.Int64
}

// NewPieceMetrics creates the presence instruments from the given meter.
func NewPieceMetrics(mt metric.Meter) (*PieceMetrics, error) {
	added, err := mt.Int64Counter(metricAddedTotal,
		metric.WithDescription("Pieces that became present"),
		metric.WithUnit("{piece}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricAddedTotal, err)
	}

	removed, err := mt.Int64Counter(metricRemovedTotal,
		metric.WithDescription("Pieces that became absent"),
		metric.WithUnit("{piece}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRemovedTotal, err)
	}

	resolved, err := mt.Int64Counter(metricResolvedTotal,
		metric.WithDescription("Pending piece waits that were resolved"),
		metric.WithUnit("{wait}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricResolvedTotal, err)
	}

	missing, err := mt.Int64ObservableGauge(metricMissing,
		metric.WithDescription("Pieces currently absent"),
		metric.WithUnit("{piece}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricMissing, err)
	}

	return &PieceMetrics{
		added:        added,
		removed:      removed,
		resolved:     resolved,
		missingGauge: missing,
		meter:        mt,
	}, nil
}

// Added counts a piece becoming present.
func (pm *PieceMetrics) Added(int) {
	pm.missing.Add(-1)
	pm.added.Add(context.Background(), 1)
}

// Removed counts a piece becoming absent.
func (pm *PieceMetrics) Removed(int) {
	pm.missing.Add(1)
	pm.removed.Add(context.Background(), 1)
}

// Resolved counts a resolved wait.
func (pm *PieceMetrics) Resolved(int) {
	pm.resolved.Add(context.Background(), 1)
}

// SetMissing overwrites the missing count. Owners call it after bulk changes
// that are not reported piece by piece, such as Clear, SetSize or Import.
func (pm *PieceMetrics) SetMissing(n int) {
	pm.missing.Store(int64(n))
}

// Missing returns the count the gauge reports.
func (pm *PieceMetrics) Missing() int64 {
	return pm.missing.Load()
}

// TrackMissing seeds the missing count with initial and reports it as the
// missing gauge on every collection. The returned function unregisters the
// callback.
func (pm *PieceMetrics) TrackMissing(initial int) (func() error, error) {
	if initial < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeMissing, initial)
	}

	pm.missing.Store(int64(initial))

	reg, err := pm.meter.RegisterCallback(func(_ context.Context, obs metric.Observer) error {
		obs.ObserveInt64(pm.missingGauge, pm.missing.Load())

		return nil
	}, pm.missingGauge)
	if err != nil {
		return nil, fmt.Errorf("register %s callback: %w", metricMissing, err)
	}

	return reg.Unregister, nil
}

// CommandMetrics holds the rate and duration instruments for CLI commands.
type CommandMetrics struct {
	commandsTotal   metric.Int64Counter
	commandDuration metric.Float64Histogram
}

// NewCommandMetrics creates command instruments from the given meter.
func NewCommandMetrics(mt metric.Meter) (*CommandMetrics, error) {
	total, err := mt.Int64Counter(metricCommandsTotal,
		metric.WithDescription("Total number of executed commands"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCommandsTotal, err)
	}

	duration, err := mt.Float64Histogram(metricCommandDuration,
		metric.WithDescription("Command duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCommandDuration, err)
	}

	return &CommandMetrics{commandsTotal: total, commandDuration: duration}, nil
}

// RecordCommand records a completed command with its status and duration.
func (cm *CommandMetrics) RecordCommand(ctx context.Context, command, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrCommand, command),
		attribute.String(attrStatus, status),
	)

	cm.commandsTotal.Add(ctx, 1, attrs)
	cm.commandDuration.Record(ctx, duration.Seconds(), attrs)
}
