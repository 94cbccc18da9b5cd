package observability

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/signalsfoundry/trajectory-plotter/internal/logging"
)

// TracerName identifies spans emitted by this module.
const TracerName = "github.com/signalsfoundry/trajectory-plotter"

// Span names for trajectory work below the request span.
const (
	SpanCompute = "trajectory.compute"
	SpanRender  = "trajectory.render"
)

// Environment variables read by TracingConfigFromEnv.
const (
	EnvTracingEnabled     = "TRAJECTORY_TRACING_ENABLED"
	EnvTracingExporter    = "TRAJECTORY_TRACING_EXPORTER"
	EnvTracingServiceName = "TRAJECTORY_TRACING_SERVICE_NAME"
	EnvTracingSampleRatio = "TRAJECTORY_TRACING_SAMPLE_RATIO"
	EnvOTLPEndpoint       = "TRAJECTORY_OTLP_ENDPOINT"
)

const defaultOTLPEndpoint = "localhost:4317"

// TracingConfig governs how tracing is initialised.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Exporter    string // stdout | otlp
	Endpoint    string // used when Exporter == otlp
	SampleRatio float64

	// Writer receives stdout-exporter output; defaults to os.Stdout.
	Writer io.Writer
}

// DefaultTracingConfig is the configuration used for unset variables:
// disabled, stdout exporter, every trace sampled.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "trajectory-server",
		Exporter:    "stdout",
		SampleRatio: 1,
	}
}

// TracingConfigFromEnv overlays the TRAJECTORY_* environment variables on
// DefaultTracingConfig. Malformed or out-of-range sample ratios are ignored.
func TracingConfigFromEnv() TracingConfig {
	cfg := DefaultTracingConfig()
	cfg.Enabled = strings.EqualFold(os.Getenv(EnvTracingEnabled), "true")
	cfg.Endpoint = os.Getenv(EnvOTLPEndpoint)
	if v := os.Getenv(EnvTracingExporter); v != "" {
		cfg.Exporter = strings.ToLower(v)
	}
	if v := os.Getenv(EnvTracingServiceName); v != "" {
		cfg.ServiceName = v
	}
	if v := os.Getenv(EnvTracingSampleRatio); v != "" {
		if ratio, err := strconv.ParseFloat(v, 64); err == nil && ratio >= 0 && ratio <= 1 {
			cfg.SampleRatio = ratio
		}
	}
	return cfg
}

// InitTracing installs the global tracer provider and propagators for cfg
// and returns a function that flushes pending spans. When tracing is
// disabled a noop provider is installed and trace context is still
// propagated.
func InitTracing(ctx context.Context, cfg TracingConfig, log logging.Logger) (func(context.Context) error, error) {
	if log == nil {
		log = logging.Noop()
	}

	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		otel.SetTextMapPropagator(propagation.TraceContext{})
		log.Debug(ctx, "tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	tp, err := newTracerProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info(ctx, "tracing enabled",
		logging.String("exporter", cfg.Exporter),
		logging.String("service_name", cfg.ServiceName),
		logging.Float("sample_ratio", cfg.SampleRatio),
	)
	return tp.Shutdown, nil
}

func newTracerProvider(ctx context.Context, cfg TracingConfig) (*sdktrace.TracerProvider, error) {
	exp, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.namespace", "trajectory"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	), nil
}

func newExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(cfg.Exporter) {
	case "stdout", "":
		w := cfg.Writer
		if w == nil {
			w = os.Stdout
		}
		return stdouttrace.New(
			stdouttrace.WithWriter(w),
			stdouttrace.WithPrettyPrint(),
			stdouttrace.WithoutTimestamps(),
		)
	case "otlp", "otlpgrpc":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = defaultOTLPEndpoint
		}
		return otlptrace.New(ctx, otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		))
	default:
		return nil, fmt.Errorf("unsupported tracing exporter: %s", cfg.Exporter)
	}
}

func tracer() trace.Tracer { return otel.Tracer(TracerName) }

// StartSpan starts an internal span on the global tracer provider.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartRequestSpan continues any trace propagated in header and starts a
// server span named "METHOD route".
func StartRequestSpan(ctx context.Context, method, route string, header http.Header) (context.Context, trace.Span) {
	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(header))
	return tracer().Start(ctx, method+" "+route,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("http.route", route),
		),
	)
}

// EndRequestSpan records the response status on span and ends it. Server
// errors mark the span as failed.
func EndRequestSpan(span trace.Span, status int) {
	span.SetAttributes(attribute.Int("http.response.status_code", status))
	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(status))
	}
	span.End()
}

// StartComputeSpan starts the span around sampling one flight. Angle is in
// degrees as supplied by the caller.
func StartComputeSpan(ctx context.Context, speed, height, angle float64) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanCompute,
		attribute.Float64("trajectory.speed", speed),
		attribute.Float64("trajectory.height", height),
		attribute.Float64("trajectory.angle", angle),
	)
}

// AnnotateFlight attaches the computed range and sample count to span.
func AnnotateFlight(span trace.Span, rangeMeters float64, samples int) {
	span.SetAttributes(
		attribute.Float64("trajectory.range", rangeMeters),
		attribute.Int("trajectory.samples", samples),
	)
}

// StartRenderSpan starts the span around rendering one artifact of kind
// table, plot or chart.
func StartRenderSpan(ctx context.Context, kind string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanRender, attribute.String("render.kind", kind))
}

// EndSpan ends span, first recording err and its outcome label when non-nil.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("trajectory.outcome", Outcome(err)))
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// ShutdownWithTimeout invokes shutdown with a bounded timeout, logging
// rather than returning any failure.
func ShutdownWithTimeout(ctx context.Context, shutdown func(context.Context) error, log logging.Logger) {
	if shutdown == nil {
		return
	}
	if log == nil {
		log = logging.Noop()
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn(ctx, "tracing shutdown failed", logging.Err(err))
	}
}
