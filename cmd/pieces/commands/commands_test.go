package commands

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/pieces/pkg/alg/interval"
	"github.com/Sumatoshi-tech/pieces/pkg/observability"
	"github.com/Sumatoshi-tech/pieces/pkg/persist"
	"github.com/Sumatoshi-tech/pieces/pkg/pieces"
	"github.com/Sumatoshi-tech/pieces/pkg/snapshot"
)

const testConfig = `snapshot:
  basename: run
  max_size: 1MB
logging:
  level: warn
`

type harness struct {
	dir      string
	config   string
	recorder *tracetest.SpanRecorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "pieces.yaml")

	require.NoError(t, os.WriteFile(configPath, []byte(testConfig), 0o600))

	return &harness{dir: dir, config: configPath, recorder: tracetest.NewSpanRecorder()}
}

func (h *harness) observabilityInit(_ observability.Config) (observability.Providers, error) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(h.recorder))

	return observability.Providers{
		Tracer: tp.Tracer("test"),
		Meter:  noopmetric.NewMeterProvider().Meter("test"),
		Logger: slog.New(slog.DiscardHandler),
		Shutdown: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	}, nil
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	root := newRootCommand(h.observabilityInit)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--config", h.config))

	err := root.ExecuteContext(context.Background())

	return out.String(), err
}

func (h *harness) spanNames() []string {
	var names []string

	for _, span := range h.recorder.Ended() {
		names = append(names, span.Name())
	}

	return names
}

func TestSimulate_FullCoverage(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	chart := filepath.Join(h.dir, "missing.html")

	out, err := h.run(t, "simulate", "--size", "64", "--seed", "3", "--out", h.dir, "--chart", chart)
	require.NoError(t, err)

	assert.Contains(t, out, "64/64 pieces present")
	assert.Contains(t, out, "waits resolved: 8, unresolved: 0")
	assert.Contains(t, out, "snapshot written to")
	assert.Contains(t, out, "chart written to")

	var snap pieces.Snapshot

	require.NoError(t, persist.LoadFile(filepath.Join(h.dir, "run"+snapshot.Extension), snapshot.NewCodec(), &snap))
	assert.Equal(t, pieces.Snapshot{Size: 64, Ranges: []interval.Interval{{Start: 0, End: 63}}}, snap)

	html, err := os.ReadFile(chart)
	require.NoError(t, err)
	assert.Contains(t, string(html), "missing pieces")

	assert.Contains(t, h.spanNames(), "pieces.simulate")
}

func TestSimulate_DropThenInspectAndValidate(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	out, err := h.run(t, "simulate", "--size", "100", "--drop", "0.1", "--waiters", "5", "--codec", "json", "--out", h.dir)
	require.NoError(t, err)

	assert.Contains(t, out, "90/100 pieces present")
	assert.Contains(t, out, "waits resolved: 0, unresolved: 5")
	assert.Contains(t, out, "10 missing")

	path := filepath.Join(h.dir, "run.json")

	out, err = h.run(t, "inspect", "--missing", path)
	require.NoError(t, err)
	assert.Contains(t, out, "90/100 pieces present")
	assert.Contains(t, out, "10 missing")

	out, err = h.run(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "snapshot is valid")

	assert.Subset(t, h.spanNames(), []string{"pieces.simulate", "pieces.inspect", "pieces.validate"})
}

func TestSimulate_LZ4RoundTrip(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	_, err := h.run(t, "simulate", "--size", "32", "--drop", "0.5", "--codec", persist.CodecGobLZ4, "--out", h.dir, "--metrics-addr", "127.0.0.1:0")
	require.NoError(t, err)

	out, err := h.run(t, "inspect", filepath.Join(h.dir, "run.gob.lz4"))
	require.NoError(t, err)
	assert.Contains(t, out, "16/32 pieces present")
}

func TestSimulate_InvalidDrop(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	_, err := h.run(t, "simulate", "--drop", "1.5", "--out", h.dir)
	require.ErrorIs(t, err, ErrInvalidDrop)
}

func TestSimulate_UnknownCodec(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	_, err := h.run(t, "simulate", "--codec", "xml", "--out", h.dir)
	require.ErrorIs(t, err, persist.ErrUnknownCodec)
}

func TestInspect_TooLarge(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	snap := pieces.Snapshot{Size: 100_000}
	for i := 0; i < snap.Size; i += 2 {
		snap.Ranges = append(snap.Ranges, interval.Point(i))
	}

	require.NoError(t, persist.SaveState(h.dir, "big", persist.NewJSONCodec(), &snap))

	_, err := h.run(t, "inspect", filepath.Join(h.dir, "big.json"))
	require.ErrorIs(t, err, ErrSnapshotTooLarge)
}

func TestInspect_DecompressedTooLarge(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	snap := pieces.Snapshot{Size: 60_000}
	for i := 0; i < snap.Size; i += 2 {
		snap.Ranges = append(snap.Ranges, interval.Point(i))
	}

	codec := persist.NewLZ4Codec(persist.NewJSONCodec())
	require.NoError(t, persist.SaveState(h.dir, "big", codec, &snap))

	path := filepath.Join(h.dir, "big.json.lz4")

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Less(t, info.Size(), int64(1_000_000), "compressed file must pass the on-disk check")

	_, err = h.run(t, "inspect", path)
	require.ErrorIs(t, err, persist.ErrDecodedTooLarge)
}

func TestValidate_ReportsViolations(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	path := filepath.Join(h.dir, "broken.json")

	require.NoError(t, os.WriteFile(path, []byte(`{"size": -1, "ranges": [{"start": 0}]}`), 0o600))

	out, err := h.run(t, "validate", path)
	require.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, out, "snapshot validation failed")
	assert.Contains(t, out, "size")
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	out, err := h.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pieces ")
}

func TestCodecForPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		ext  string
	}{
		{"a.pcs", snapshot.Extension},
		{"a.json", ".json"},
		{"a.yaml", ".yaml"},
		{"a.json.lz4", ".json.lz4"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			codec, err := codecForPath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.ext, codec.Extension())
		})
	}

	_, err := codecForPath("a.txt")
	require.ErrorIs(t, err, persist.ErrUnknownCodec)
}

func TestDirProbe(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "file")

	require.NoError(t, os.WriteFile(file, nil, 0o600))

	require.NoError(t, dirProbe(dir)(context.Background()))
	require.ErrorIs(t, dirProbe(file)(context.Background()), ErrNotADir)
	require.ErrorIs(t, dirProbe(filepath.Join(dir, "absent"))(context.Background()), os.ErrNotExist)
}
