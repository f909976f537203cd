package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pieces/pkg/config"
)

const (
	testTableSize   = 4096
	testMaxBytes    = 2 * 1000 * 1000
	testSampleRatio = 0.25
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pieces.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_EmptyFile_UsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultTableSize, cfg.Table.Size)
	assert.Equal(t, config.DefaultSnapshotDirectory, cfg.Snapshot.Directory)
	assert.Equal(t, config.DefaultSnapshotBasename, cfg.Snapshot.Basename)
	assert.Equal(t, config.CodecBinary, cfg.Snapshot.Codec)
	assert.Equal(t, config.DefaultLogLevel, cfg.Logging.Level)
	assert.False(t, cfg.Logging.JSON())
	assert.Equal(t, config.DefaultServiceName, cfg.Observability.ServiceName)
	assert.Equal(t, 5*time.Second, cfg.Observability.ShutdownTimeout)
	assert.Empty(t, cfg.Observability.OTLPEndpoint)
}

func TestLoadConfig_ValidFile_Unmarshals(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, `
table:
  size: 4096
snapshot:
  directory: /var/lib/pieces
  codec: json.lz4
  max_size: 2MB
logging:
  level: debug
  format: json
observability:
  otlp_endpoint: localhost:4317
  otlp_insecure: true
  sample_ratio: 0.25
  metrics_addr: ":9464"
`))
	require.NoError(t, err)

	assert.Equal(t, testTableSize, cfg.Table.Size)
	assert.Equal(t, "/var/lib/pieces", cfg.Snapshot.Directory)
	assert.Equal(t, "json.lz4", cfg.Snapshot.Codec)
	assert.True(t, cfg.Logging.JSON())
	assert.Equal(t, "localhost:4317", cfg.Observability.OTLPEndpoint)
	assert.True(t, cfg.Observability.OTLPInsecure)
	assert.InDelta(t, testSampleRatio, cfg.Observability.SampleRatio, 0.001)
	assert.Equal(t, ":9464", cfg.Observability.MetricsAddr)

	maxBytes, err := cfg.Snapshot.MaxBytes()
	require.NoError(t, err)
	assert.Equal(t, uint64(testMaxBytes), maxBytes)

	level, err := cfg.Logging.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadConfig_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{name: "zero size", content: "table:\n  size: 0\n", want: config.ErrInvalidSize},
		{name: "unknown codec", content: "snapshot:\n  codec: xml\n", want: config.ErrInvalidCodec},
		{name: "bad max size", content: "snapshot:\n  max_size: lots\n", want: config.ErrInvalidMaxSize},
		{name: "bad level", content: "logging:\n  level: loud\n", want: config.ErrInvalidLogLevel},
		{name: "bad format", content: "logging:\n  format: xml\n", want: config.ErrInvalidLogFormat},
		{name: "bad ratio", content: "observability:\n  sample_ratio: 2\n", want: config.ErrInvalidRatio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "table: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("PIECES_TABLE_SIZE", "77")
	t.Setenv("PIECES_LOGGING_LEVEL", "warn")

	cfg, err := config.LoadConfig(writeConfig(t, "table:\n  size: 10\n"))
	require.NoError(t, err)

	assert.Equal(t, 77, cfg.Table.Size)
	assert.Equal(t, "warn", cfg.Logging.Level)
}
