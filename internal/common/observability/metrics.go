package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
}

type options struct {
	exporter    sdktrace.SpanExporter
	sampleRatio float64
}

type Option func(*options)

// WithSpanExporter batches finished spans to exp. Without one spans are
// sampled but never leave the process.
func WithSpanExporter(exp sdktrace.SpanExporter) Option {
	return func(o *options) { o.exporter = exp }
}

func WithSampleRatio(ratio float64) Option {
	return func(o *options) { o.sampleRatio = ratio }
}

// NewOTLPExporter sends spans to an OTLP/HTTP collector such as Jaeger or
// Tempo. endpoint is host:port.
func NewOTLPExporter(ctx context.Context, endpoint string, insecure bool) (sdktrace.SpanExporter, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithCompression(otlptracehttp.GzipCompression),
	}
	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}

func New(serviceName string, opts ...Option) *Observability {
	o := options{sampleRatio: 0.1}
	for _, opt := range opts {
		opt(&o)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(o.sampleRatio))),
	}
	if o.exporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(o.exporter))
	}
	tp := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tp)

	obs := &Observability{
		tracerProvider: tp,
		tracer:         tp.Tracer(serviceName),
	}

	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return obs
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	jobCounter, _ := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)

	jobDuration, _ := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)

	obs.meterProvider = provider
	obs.meter = meter
	obs.jobCounter = jobCounter
	obs.jobDuration = jobDuration
	return obs
}

// StartSpan opens a span on the service tracer, or on the global tracer when
// the receiver was not built with New.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer("mintslip-workers")
	if o != nil && o.tracer != nil {
		tracer = o.tracer
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o == nil || o.jobCounter == nil {
		return
	}
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o == nil || o.jobDuration == nil {
		return
	}
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
