package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// newMeterProvider exports instruments over OTLP/HTTP every cfg.Interval and
// installs the provider globally.
func newMeterProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.Interval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the pipeline's instruments. A nil *Metrics records nothing.
type Metrics struct {
	runTotal          metric.Int64Counter
	runDuration       metric.Float64Histogram
	runActive         metric.Int64UpDownCounter
	chunkTotal        metric.Int64Counter
	chunkDuration     metric.Float64Histogram
	uploadBytes       metric.Int64Counter
	operationTotal    metric.Int64Counter
	operationDuration metric.Float64Histogram
	errorTotal        metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.runTotal, err = meter.Int64Counter("audioscribe.run.total",
		metric.WithDescription("Pipeline runs by final phase"),
	); err != nil {
		return nil, fmt.Errorf("creating run.total counter: %w", err)
	}
	if m.runDuration, err = meter.Float64Histogram("audioscribe.run.duration",
		metric.WithDescription("Duration of pipeline runs in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating run.duration histogram: %w", err)
	}
	if m.runActive, err = meter.Int64UpDownCounter("audioscribe.run.active",
		metric.WithDescription("Pipeline runs in progress"),
	); err != nil {
		return nil, fmt.Errorf("creating run.active counter: %w", err)
	}
	if m.chunkTotal, err = meter.Int64Counter("audioscribe.chunk.total",
		metric.WithDescription("Transcription requests by outcome"),
	); err != nil {
		return nil, fmt.Errorf("creating chunk.total counter: %w", err)
	}
	if m.chunkDuration, err = meter.Float64Histogram("audioscribe.chunk.duration",
		metric.WithDescription("Duration of a chunk transcription request in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating chunk.duration histogram: %w", err)
	}
	if m.uploadBytes, err = meter.Int64Counter("audioscribe.upload.bytes",
		metric.WithDescription("Audio bytes sent for transcription"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, fmt.Errorf("creating upload.bytes counter: %w", err)
	}
	if m.operationTotal, err = meter.Int64Counter("audioscribe.operation.total",
		metric.WithDescription("Provider calls by status"),
	); err != nil {
		return nil, fmt.Errorf("creating operation.total counter: %w", err)
	}
	if m.operationDuration, err = meter.Float64Histogram("audioscribe.operation.duration",
		metric.WithDescription("Duration of provider calls in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating operation.duration histogram: %w", err)
	}
	if m.errorTotal, err = meter.Int64Counter("audioscribe.error.total",
		metric.WithDescription("Errors by code and component"),
	); err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}
	return &m, nil
}

// RecordRunStart increments the active run count.
func (m *Metrics) RecordRunStart(ctx context.Context) {
	if m == nil {
		return
	}
	m.runActive.Add(ctx, 1)
}

// RecordRunEnd decrements active runs and records the final phase.
func (m *Metrics) RecordRunEnd(ctx context.Context, phase string, chunks int, duration time.Duration) {
	if m == nil {
		return
	}
	m.runActive.Add(ctx, -1)
	m.runTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("phase", phase)))
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("phase", phase),
		attribute.Int("chunks", chunks),
	))
}

// RecordChunk records one transcription request.
func (m *Metrics) RecordChunk(ctx context.Context, status string, sizeBytes int64, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.chunkTotal.Add(ctx, 1, attrs)
	m.chunkDuration.Record(ctx, duration.Seconds(), attrs)
	m.uploadBytes.Add(ctx, sizeBytes)
}

// RecordOperation records a provider call.
func (m *Metrics) RecordOperation(ctx context.Context, provider, operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.operationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
	m.operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
	))
}

// RecordError records an error by code and component.
func (m *Metrics) RecordError(ctx context.Context, code, component string) {
	if m == nil {
		return
	}
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
		attribute.String("component", component),
	))
}
