package observability

import (
	"context"
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config selects exporters. Registerer defaults to the global prometheus
// registry; JaegerEndpoint empty disables span export.
type Config struct {
	ServiceName    string
	JaegerEndpoint string
	SampleRatio    float64
	Registerer     promclient.Registerer
}

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	crmDuration    otelmetric.Float64Histogram
	uploadBytes    otelmetric.Int64Counter
}

func New(cfg Config) (*Observability, error) {
	opts := []prometheus.Option{}
	if cfg.Registerer != nil {
		opts = append(opts, prometheus.WithRegisterer(cfg.Registerer))
	}
	exporter, err := prometheus.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))

	mp := metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
	otel.SetMeterProvider(mp)
	meter := mp.Meter(cfg.ServiceName)

	crmDuration, err := meter.Float64Histogram(
		"crm.request.duration",
		otelmetric.WithDescription("Salesforce request latency"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create crm duration histogram: %w", err)
	}

	uploadBytes, err := meter.Int64Counter(
		"crm.upload.bytes",
		otelmetric.WithDescription("Bytes of attachments uploaded to Salesforce"),
		otelmetric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("create upload counter: %w", err)
	}

	o := &Observability{
		meterProvider: mp,
		crmDuration:   crmDuration,
		uploadBytes:   uploadBytes,
	}

	if cfg.JaegerEndpoint == "" {
		o.tracer = noop.NewTracerProvider().Tracer(cfg.ServiceName)
		return o, nil
	}

	spanExporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerEndpoint)))
	if err != nil {
		return nil, fmt.Errorf("create jaeger exporter: %w", err)
	}
	ratio := cfg.SampleRatio
	if ratio <= 0 {
		ratio = 1
	}
	o.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	otel.SetTracerProvider(o.tracerProvider)
	o.tracer = o.tracerProvider.Tracer(cfg.ServiceName)
	return o, nil
}

// NewNoop returns an instance that records nothing, for tests and tools.
func NewNoop() *Observability {
	return &Observability{tracer: noop.NewTracerProvider().Tracer("noop")}
}

// StartSpan opens a span named after a pipeline stage.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (o *Observability) RecordCRMRequest(ctx context.Context, operation string, duration time.Duration, err error) {
	if o.crmDuration == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	o.crmDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordUpload(ctx context.Context, formType string, size int64) {
	if o.uploadBytes == nil {
		return
	}
	o.uploadBytes.Add(ctx, size, otelmetric.WithAttributes(attribute.String("form_type", formType)))
}

func (o *Observability) Shutdown(ctx context.Context) error {
	var firstErr error
	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
