// Package config provides configuration loading and validation for the
// pieces tooling.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/pieces/pkg/persist"
)

// CodecBinary names the compact binary snapshot codec.
const CodecBinary = "binary"

// envPrefix prefixes every environment override, e.g. PIECES_TABLE_SIZE.
const envPrefix = "PIECES"

// Sentinel validation errors.
var (
	ErrInvalidSize      = errors.New("table size must be positive")
	ErrInvalidCodec     = errors.New("unknown snapshot codec")
	ErrInvalidMaxSize   = errors.New("invalid snapshot max size")
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidLogFormat = errors.New("invalid log format")
	ErrInvalidRatio     = errors.New("sample ratio must be within [0, 1]")
)

// Codecs lists the accepted snapshot codec names.
var Codecs = []string{
	CodecBinary,
	persist.CodecJSON,
	persist.CodecGob,
	persist.CodecYAML,
	persist.CodecJSONLZ4,
	persist.CodecGobLZ4,
}

var logFormats = []string{"text", "json"}

// Config holds all configuration for the pieces tooling.
type Config struct {
	Table         TableConfig         `mapstructure:"table"`
	Snapshot      SnapshotConfig      `mapstructure:"snapshot"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// TableConfig holds piece table settings.
type TableConfig struct {
	Size int `mapstructure:"size"`
}

// SnapshotConfig holds snapshot persistence settings.
type SnapshotConfig struct {
	Directory string `mapstructure:"directory"`
	Basename  string `mapstructure:"basename"`
	Codec     string `mapstructure:"codec"`
	MaxSize   string `mapstructure:"max_size"`
}

// MaxBytes parses MaxSize, e.g. "64MB" or "1 GiB".
func (s SnapshotConfig) MaxBytes() (uint64, error) {
	n, err := humanize.ParseBytes(s.MaxSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidMaxSize, s.MaxSize, err)
	}

	return n, nil
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SlogLevel converts Level to an slog level.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(l.Level))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, l.Level)
	}

	return level, nil
}

// JSON reports whether logs are written as JSON.
func (l LoggingConfig) JSON() bool {
	return strings.EqualFold(l.Format, "json")
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	ServiceName     string        `mapstructure:"service_name"`
	Environment     string        `mapstructure:"environment"`
	OTLPEndpoint    string        `mapstructure:"otlp_endpoint"`
	OTLPHeaders     string        `mapstructure:"otlp_headers"`
	OTLPInsecure    bool          `mapstructure:"otlp_insecure"`
	SampleRatio     float64       `mapstructure:"sample_ratio"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("pieces")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/pieces")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("table.size", DefaultTableSize)

	viperCfg.SetDefault("snapshot.directory", DefaultSnapshotDirectory)
	viperCfg.SetDefault("snapshot.basename", DefaultSnapshotBasename)
	viperCfg.SetDefault("snapshot.codec", DefaultSnapshotCodec)
	viperCfg.SetDefault("snapshot.max_size", DefaultSnapshotMaxSize)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("observability.service_name", DefaultServiceName)
	viperCfg.SetDefault("observability.environment", "")
	viperCfg.SetDefault("observability.otlp_endpoint", "")
	viperCfg.SetDefault("observability.otlp_headers", "")
	viperCfg.SetDefault("observability.otlp_insecure", false)
	viperCfg.SetDefault("observability.sample_ratio", 0)
	viperCfg.SetDefault("observability.metrics_addr", "")
	viperCfg.SetDefault("observability.shutdown_timeout", DefaultShutdownTimeout)
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	if config.Table.Size <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, config.Table.Size)
	}

	if !slices.Contains(Codecs, strings.ToLower(config.Snapshot.Codec)) {
		return fmt.Errorf("%w: %q", ErrInvalidCodec, config.Snapshot.Codec)
	}

	_, err := config.Snapshot.MaxBytes()
	if err != nil {
		return err
	}

	_, err = config.Logging.SlogLevel()
	if err != nil {
		return err
	}

	if !slices.Contains(logFormats, strings.ToLower(config.Logging.Format)) {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	if ratio := config.Observability.SampleRatio; ratio < 0 || ratio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidRatio, ratio)
	}

	return nil
}
