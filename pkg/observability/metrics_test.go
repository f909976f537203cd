package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/pieces/pkg/observability"
	"github.com/Sumatoshi-tech/pieces/pkg/pieces"
)

func newManualMeter(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	t.Cleanup(func() { require.NoError(t, mp.Shutdown(context.Background())) })

	return reader, mp
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	result := map[string]metricdata.Aggregation{}

	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			result[m.Name] = m.Data
		}
	}

	return result
}

func sumValue(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()

	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", data)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

func TestPieceMetrics_CountsTransitions(t *testing.T) {
	t.Parallel()

	reader, mp := newManualMeter(t)

	pm, err := observability.NewPieceMetrics(mp.Meter("test"))
	require.NoError(t, err)

	pm.Added(0)
	pm.Added(1)
	pm.Added(2)
	pm.Removed(1)
	pm.Resolved(2)

	got := collect(t, reader)

	assert.Equal(t, int64(3), sumValue(t, got["pieces.added.total"]))
	assert.Equal(t, int64(1), sumValue(t, got["pieces.removed.total"]))
	assert.Equal(t, int64(1), sumValue(t, got["pieces.waits.resolved.total"]))
}

func missingValue(t *testing.T, reader *sdkmetric.ManualReader) int64 {
	t.Helper()

	gauge, ok := collect(t, reader)["pieces.missing"].(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)

	return gauge.DataPoints[0].Value
}

func TestPieceMetrics_MissingGauge(t *testing.T) {
	t.Parallel()

	reader, mp := newManualMeter(t)

	pm, err := observability.NewPieceMetrics(mp.Meter("test"))
	require.NoError(t, err)

	unregister, err := pm.TrackMissing(7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), missingValue(t, reader))

	pm.Added(0)
	pm.Added(1)
	pm.Removed(0)
	assert.Equal(t, int64(6), missingValue(t, reader))

	pm.SetMissing(2)
	assert.Equal(t, int64(2), missingValue(t, reader))
	assert.Equal(t, int64(2), pm.Missing())

	require.NoError(t, unregister())

	if data, present := collect(t, reader)["pieces.missing"]; present {
		gauge, ok := data.(metricdata.Gauge[int64])
		require.True(t, ok)
		assert.Empty(t, gauge.DataPoints)
	}
}

func TestPieceMetrics_NegativeMissing(t *testing.T) {
	t.Parallel()

	_, mp := newManualMeter(t)

	pm, err := observability.NewPieceMetrics(mp.Meter("test"))
	require.NoError(t, err)

	_, err = pm.TrackMissing(-1)
	require.ErrorIs(t, err, observability.ErrNegativeMissing)
}

// The gauge is collected on another goroutine while the owner mutates the
// table; run with -race.
func TestPieceMetrics_CollectWhileMutating(t *testing.T) {
	t.Parallel()

	const size = 5000

	reader, mp := newManualMeter(t)

	pm, err := observability.NewPieceMetrics(mp.Meter("test"))
	require.NoError(t, err)

	table := pieces.NewTable[int](size, pieces.WithRecorder(pm))

	unregister, err := pm.TrackMissing(table.Missing())
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, unregister()) })

	done := make(chan struct{})
	collected := make(chan error, 1)

	go func() {
		var rm metricdata.ResourceMetrics

		for {
			select {
			case <-done:
				collected <- nil

				return
			default:
			}

			if collectErr := reader.Collect(context.Background(), &rm); collectErr != nil {
				collected <- collectErr

				return
			}
		}
	}()

	for i := range size {
		table.Set(i, i)
	}

	table.Delete(10)

	close(done)
	require.NoError(t, <-collected)

	assert.Equal(t, int64(1), pm.Missing())
	assert.Equal(t, int64(table.Missing()), missingValue(t, reader))
}

func TestCommandMetrics_RecordCommand(t *testing.T) {
	t.Parallel()

	reader, mp := newManualMeter(t)

	cm, err := observability.NewCommandMetrics(mp.Meter("test"))
	require.NoError(t, err)

	cm.RecordCommand(context.Background(), "simulate", observability.StatusOK, 20*time.Millisecond)
	cm.RecordCommand(context.Background(), "inspect", observability.StatusError, time.Millisecond)

	got := collect(t, reader)

	assert.Equal(t, int64(2), sumValue(t, got["pieces.commands.total"]))

	hist, ok := got["pieces.command.duration.seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)

	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}

	assert.Equal(t, uint64(2), count)
}
