package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/signalsfoundry/rso-tracker/internal/logging"
)

// TracerName is the instrumentation scope used by tracker spans.
const TracerName = "github.com/signalsfoundry/rso-tracker"

// Tracer returns the tracker's tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// Span exporters.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

const (
	DefaultServiceName  = "rsotrack"
	DefaultOTLPEndpoint = "localhost:4317"

	shutdownTimeout = 5 * time.Second
)

// ErrTracingConfig is wrapped by every TracingConfig.Validate failure.
var ErrTracingConfig = errors.New("invalid tracing configuration")

// TracingConfig selects how the spans of one tracker run are exported.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Exporter    string // ExporterStdout or ExporterOTLP
	Endpoint    string // OTLP collector address
	SampleRatio float64
	Output      io.Writer // stdout exporter destination, os.Stderr if nil
}

// Validate checks the exporter name and sample ratio. A disabled config is
// always valid.
func (c TracingConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch strings.ToLower(c.Exporter) {
	case "", ExporterStdout, ExporterOTLP:
	default:
		return fmt.Errorf("%w: unsupported exporter %q", ErrTracingConfig, c.Exporter)
	}
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return fmt.Errorf("%w: sample ratio %v outside [0, 1]", ErrTracingConfig, c.SampleRatio)
	}
	return nil
}

// InitTracing installs the global tracer provider for this run. Disabled
// tracing installs a noop provider. The returned function flushes buffered
// spans and must be called before exit.
//
// The session id carried by ctx, if any, becomes a resource attribute so
// every span of a run can be grouped.
func InitTracing(ctx context.Context, cfg TracingConfig, log logging.Logger) (func(context.Context) error, error) {
	if log == nil {
		log = logging.Noop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return func(context.Context) error { return nil }, nil
	}

	exp, err := newSpanExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	res, err := runResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(runSampler(cfg.SampleRatio)),
		// A run is short; the batcher flushes on shutdown.
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	log.Debug(ctx, "tracing enabled",
		logging.String("exporter", exporterName(cfg.Exporter)),
		logging.String("service_name", serviceName(cfg.ServiceName)),
		logging.Float64("sample_ratio", cfg.SampleRatio),
	)
	return tp.Shutdown, nil
}

func runSampler(ratio float64) sdktrace.Sampler {
	if ratio >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

func runResource(ctx context.Context, cfg TracingConfig) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		attribute.String("service.name", serviceName(cfg.ServiceName)),
		attribute.String("service.namespace", "rso-tracker"),
	}
	if id := logging.SessionIDFromContext(ctx); id != "" {
		attrs = append(attrs, attribute.String("rsotrack.session_id", id))
	}
	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("create trace resource: %w", err)
	}
	return res, nil
}

func newSpanExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	if exporterName(cfg.Exporter) == ExporterOTLP {
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = DefaultOTLPEndpoint
		}
		client := otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
		exp, err := otlptrace.New(ctx, client)
		if err != nil {
			return nil, fmt.Errorf("otlp exporter %s: %w", endpoint, err)
		}
		return exp, nil
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	return stdouttrace.New(
		stdouttrace.WithWriter(out),
		stdouttrace.WithPrettyPrint(),
		stdouttrace.WithoutTimestamps(),
	)
}

func exporterName(name string) string {
	if name == "" {
		return ExporterStdout
	}
	return strings.ToLower(name)
}

func serviceName(name string) string {
	if name == "" {
		return DefaultServiceName
	}
	return name
}

// ShutdownWithTimeout flushes spans through shutdown, giving up after a few
// seconds. Failures are logged, not returned.
func ShutdownWithTimeout(ctx context.Context, shutdown func(context.Context) error, log logging.Logger) {
	if shutdown == nil {
		return
	}
	if log == nil {
		log = logging.Noop()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn(ctx, "tracing shutdown failed", logging.Err(err))
	}
}
