// Package observability provides OpenTelemetry tracing and metrics, the
// Prometheus scrape endpoint, and structured logging for the pieces tooling.
package observability

import (
	"log/slog"
	"time"
)

// AppMode identifies how the binary was launched.
type AppMode string

const (
	// ModeCLI is one-shot command execution.
	ModeCLI AppMode = "cli"
	// ModeSimulate is a long-running simulation that may serve metrics.
	ModeSimulate AppMode = "simulate"
)

const (
	// defaultServiceName is the default OTel service name.
	defaultServiceName = "pieces"

	// defaultShutdownTimeout bounds the flush on shutdown.
	defaultShutdownTimeout = 5 * time.Second
)

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the semantic version of the running binary.
	ServiceVersion string

	// Environment is the deployment environment (e.g. "production", "dev").
	Environment string

	// Mode identifies how the binary was launched.
	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables OTLP export.
	OTLPEndpoint string

	// OTLPHeaders are additional gRPC metadata headers for the OTLP exporter.
	OTLPHeaders map[string]string

	// OTLPInsecure disables TLS for the OTLP gRPC connection.
	OTLPInsecure bool

	// SampleRatio is the trace sampling ratio. Zero samples every root span.
	SampleRatio float64

	// Prometheus attaches a Prometheus exporter to the meter provider and
	// exposes it as Providers.MetricsHandler.
	Prometheus bool

	// LogLevel controls the minimum slog severity.
	LogLevel slog.Level

	// LogJSON enables JSON-formatted log output.
	LogJSON bool

	// ShutdownTimeout is the maximum time to wait for flush on shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config for zero-config startup: text logs at Info
// and no telemetry export.
func DefaultConfig() Config {
	return Config{
		ServiceName:     defaultServiceName,
		Mode:            ModeCLI,
		LogLevel:        slog.LevelInfo,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}
