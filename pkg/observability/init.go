package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

// instrumentationName names the tracer and the meter.
const instrumentationName = "github.com/Sumatoshi-tech/pieces"

// Standard OTel environment variables for sampler selection.
const (
	envTracesSampler    = "OTEL_TRACES_SAMPLER"
	envTracesSamplerArg = "OTEL_TRACES_SAMPLER_ARG"
)

// envSamplers maps OTEL_TRACES_SAMPLER values to samplers. The argument is
// the parsed OTEL_TRACES_SAMPLER_ARG ratio.
var envSamplers = map[string]func(ratio float64) sdktrace.Sampler{
	"always_on":  func(float64) sdktrace.Sampler { return sdktrace.AlwaysSample() },
	"always_off": func(float64) sdktrace.Sampler { return sdktrace.NeverSample() },
	"traceidratio": func(ratio float64) sdktrace.Sampler {
		return sdktrace.TraceIDRatioBased(ratio)
	},
	"parentbased_always_on": func(float64) sdktrace.Sampler {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	},
	"parentbased_always_off": func(float64) sdktrace.Sampler {
		return sdktrace.ParentBased(sdktrace.NeverSample())
	},
	"parentbased_traceidratio": func(ratio float64) sdktrace.Sampler {
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	},
}

// Providers holds the initialized observability providers.
type Providers struct {
	Tracer trace.Tracer
	Meter  metric.Meter
	Logger *slog.Logger

	// MetricsHandler serves the Prometheus scrape endpoint for Meter. It is
	// nil unless Config.Prometheus is set.
	MetricsHandler http.Handler

	// Shutdown flushes pending telemetry. Call it before the process exits.
	Shutdown func(ctx context.Context) error
}

type shutdownFunc func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

// Init wires tracing, metrics and logging from cfg and installs the tracer
// and meter providers as OTel globals. Without an OTLP endpoint tracing is a
// no-op; without an endpoint and without Prometheus so is metrics.
func Init(cfg Config) (Providers, error) {
	ctx := context.Background()

	res, err := buildResource(cfg)
	if err != nil {
		return Providers{}, err
	}

	tp, stopTraces, err := buildTracerProvider(ctx, cfg, res)
	if err != nil {
		return Providers{}, fmt.Errorf("build tracer provider: %w", err)
	}

	mp, handler, stopMetrics, err := buildMeterProvider(ctx, cfg, res)
	if err != nil {
		return Providers{}, errors.Join(fmt.Errorf("build meter provider: %w", err), stopTraces(ctx))
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	return Providers{
		Tracer:         tp.Tracer(instrumentationName),
		Meter:          mp.Meter(instrumentationName),
		Logger:         NewLogger(os.Stderr, cfg),
		MetricsHandler: handler,
		Shutdown: func(shutdownCtx context.Context) error {
			deadlineCtx, cancel := context.WithTimeout(shutdownCtx, timeout)
			defer cancel()

			return errors.Join(stopTraces(deadlineCtx), stopMetrics(deadlineCtx))
		},
	}, nil
}

func buildResource(cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(cfg.ServiceName)}

	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.ServiceVersion))
	}

	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(cfg.Environment))
	}

	if cfg.Mode != "" {
		attrs = append(attrs, attribute.String("app.mode", string(cfg.Mode)))
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	return res, nil
}

func buildTracerProvider(
	ctx context.Context, cfg Config, res *resource.Resource,
) (trace.TracerProvider, shutdownFunc, error) {
	if cfg.OTLPEndpoint == "" {
		return nooptrace.NewTracerProvider(), noopShutdown, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}

	if cfg.OTLPInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	if len(cfg.OTLPHeaders) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(cfg.OTLPHeaders))
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(selectSampler(cfg)),
	)

	return tp, tp.Shutdown, nil
}

// selectSampler prefers OTEL_TRACES_SAMPLER, then cfg.SampleRatio, then
// parent-based always-on. Unknown env values fall back to the default.
func selectSampler(cfg Config) sdktrace.Sampler {
	if name := os.Getenv(envTracesSampler); name != "" {
		if build, ok := envSamplers[strings.ToLower(name)]; ok {
			return build(parseRatio(os.Getenv(envTracesSamplerArg)))
		}
	}

	if cfg.SampleRatio > 0 {
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	}

	return sdktrace.ParentBased(sdktrace.AlwaysSample())
}

// buildMeterProvider attaches a Prometheus reader on a private registry when
// cfg.Prometheus is set, and a periodic OTLP reader when an endpoint is set.
func buildMeterProvider(
	ctx context.Context, cfg Config, res *resource.Resource,
) (metric.MeterProvider, http.Handler, shutdownFunc, error) {
	if cfg.OTLPEndpoint == "" && !cfg.Prometheus {
		return noopmetric.NewMeterProvider(), nil, noopShutdown, nil
	}

	readers := make([]sdkmetric.Option, 0, 2)

	var handler http.Handler

	if cfg.Prometheus {
		registry := prometheus.NewRegistry()

		exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
		}

		readers = append(readers, sdkmetric.WithReader(exporter))
		handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}

	if cfg.OTLPEndpoint != "" {
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}

		if cfg.OTLPInsecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}

		if len(cfg.OTLPHeaders) > 0 {
			opts = append(opts, otlpmetricgrpc.WithHeaders(cfg.OTLPHeaders))
		}

		exporter, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create metric exporter: %w", err)
		}

		readers = append(readers, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)))
	}

	mp := sdkmetric.NewMeterProvider(append(readers, sdkmetric.WithResource(res))...)

	return mp, handler, mp.Shutdown, nil
}

// ParseOTLPHeaders parses "key=value,key=value" as used by
// OTEL_EXPORTER_OTLP_HEADERS. Pairs without "=" are skipped; nil is returned
// when nothing remains.
func ParseOTLPHeaders(raw string) map[string]string {
	var result map[string]string

	for pair := range strings.SplitSeq(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}

		if result == nil {
			result = map[string]string{}
		}

		result[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	return result
}

// parseRatio reads a sampler ratio, defaulting to 1 when s is empty or
// malformed.
func parseRatio(s string) float64 {
	ratio, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 1
	}

	return ratio
}
