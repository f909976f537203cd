package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/pieces/pkg/observability"
)

const (
	testTraceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	testSpanID  = "00f067aa0ba902b7"
)

func jsonLogger(buf *bytes.Buffer, env string, mode observability.AppMode) *slog.Logger {
	inner := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})

	return slog.New(observability.NewTracingHandler(inner, "pieces", env, mode))
}

func decodeRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var record map[string]any

	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	return record
}

func spanContext(t *testing.T) context.Context {
	t.Helper()

	traceID, err := trace.TraceIDFromHex(testTraceID)
	require.NoError(t, err)

	spanID, err := trace.SpanIDFromHex(testSpanID)
	require.NoError(t, err)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})

	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestTracingHandler_Records(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		env      string
		traced   bool
		log      func(context.Context, *slog.Logger)
		expected map[string]any
		absent   []string
	}{
		{
			name:   "span_ids_injected",
			env:    "dev",
			traced: true,
			log:    func(ctx context.Context, l *slog.Logger) { l.InfoContext(ctx, "merged ranges") },
			expected: map[string]any{
				"trace_id": testTraceID, "span_id": testSpanID,
				"service": "pieces", "env": "dev", "mode": "simulate",
			},
		},
		{
			name:     "no_span_no_env",
			log:      func(ctx context.Context, l *slog.Logger) { l.InfoContext(ctx, "split range") },
			expected: map[string]any{"service": "pieces", "mode": "simulate"},
			absent:   []string{"trace_id", "span_id", "env"},
		},
		{
			name: "with_attrs",
			log: func(ctx context.Context, l *slog.Logger) {
				l.With(slog.String("command", "inspect")).InfoContext(ctx, "loaded")
			},
			expected: map[string]any{"command": "inspect", "service": "pieces"},
		},
		{
			name: "service_attrs_stay_top_level_in_group",
			log: func(ctx context.Context, l *slog.Logger) {
				l.WithGroup("table").InfoContext(ctx, "resized", slog.Int("size", 64))
			},
			expected: map[string]any{
				"service": "pieces",
				"table":   map[string]any{"size": float64(64)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			ctx := context.Background()
			if tt.traced {
				ctx = spanContext(t)
			}

			tt.log(ctx, jsonLogger(&buf, tt.env, observability.ModeSimulate))

			record := decodeRecord(t, &buf)

			for key, want := range tt.expected {
				assert.Equal(t, want, record[key], key)
			}

			for _, key := range tt.absent {
				assert.NotContains(t, record, key)
			}
		})
	}
}

func TestNewLogger_TextAndLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogLevel = slog.LevelWarn

	logger := observability.NewLogger(&buf, cfg)

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown", slog.Int("missing", 3))
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "missing=3")
	assert.Contains(t, buf.String(), "service=pieces")
}

func TestNewLogger_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogJSON = true

	observability.NewLogger(&buf, cfg).Info("json record")

	record := decodeRecord(t, &buf)
	assert.Equal(t, "json record", record["msg"])
	assert.Equal(t, "cli", record["mode"])
}
