package observability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("unexpected endpoint %q", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 || cfg.Interval != 15*time.Second {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestSetup_DisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestSetup_Enabled(t *testing.T) {
	prevTP, prevMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	})

	shutdown, err := Setup(context.Background(), Config{
		Enabled:     true,
		ServiceName: "audioscribe",
		Endpoint:    "127.0.0.1:1",
		Insecure:    true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = shutdown(ctx)
}

func TestMetrics_Record(t *testing.T) {
	m, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}
	ctx := context.Background()
	m.RecordRunStart(ctx)
	m.RecordChunk(ctx, "ok", 24<<20, 2*time.Second)
	m.RecordOperation(ctx, "openai", "transcribe", "ok", time.Second)
	m.RecordError(ctx, "SERVICE_ERROR", "ingest")
	m.RecordRunEnd(ctx, "complete", 3, 10*time.Second)
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordRunStart(ctx)
	m.RecordChunk(ctx, "error", 1, time.Millisecond)
	m.RecordOperation(ctx, "p", "op", "ok", time.Millisecond)
	m.RecordError(ctx, "X", "y")
	m.RecordRunEnd(ctx, "failed", 0, time.Millisecond)
}

func TestStartSpan_Attributes(t *testing.T) {
	exporter := withRecorder(t)

	ctx, span := StartSpan(context.Background(), SpanTranscribe)
	SetSpanAttribute(ctx, AttrChunkIndex, 1)
	SetSpanAttribute(ctx, AttrSizeBytes, int64(1024))
	SetSpanAttribute(ctx, AttrJobID, "job-1")
	SetSpanAttribute(ctx, "ratio", 0.5)
	SetSpanAttribute(ctx, "ok", true)
	SetSpanAttribute(ctx, "tags", []string{"a"})
	SetSpanAttribute(ctx, "ignored", struct{}{})
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != SpanTranscribe {
		t.Errorf("unexpected span name %q", spans[0].Name)
	}
	if len(spans[0].Attributes) != 6 {
		t.Errorf("expected 6 attributes, got %d", len(spans[0].Attributes))
	}
}

func TestSetSpanError_MarksStatus(t *testing.T) {
	exporter := withRecorder(t)

	ctx, span := StartSpan(context.Background(), SpanRun)
	SetSpanError(ctx, fmt.Errorf("upstream 502"))
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[0].Status)
	}
	if len(spans[0].Events) != 1 {
		t.Errorf("expected recorded error event, got %d", len(spans[0].Events))
	}
}

func TestSpanHelpers_NoSpan(t *testing.T) {
	ctx := context.Background()
	SetSpanAttribute(ctx, "key", "value")
	SetSpanError(ctx, fmt.Errorf("no span"))
	SetSpanError(ctx, nil)
}

func TestSampler(t *testing.T) {
	if got := sampler(1).Description(); got != "AlwaysOnSampler" {
		t.Errorf("rate 1: %s", got)
	}
	if got := sampler(0).Description(); got != "AlwaysOffSampler" {
		t.Errorf("rate 0: %s", got)
	}
}

func TestKeyValue(t *testing.T) {
	if _, ok := keyValue("k", struct{}{}); ok {
		t.Error("unsupported type should be dropped")
	}
	kv, ok := keyValue("chunks", 3)
	if !ok || kv.Value.AsInt64() != 3 {
		t.Errorf("unexpected %v", kv)
	}
}

func TestCheck_Aggregates(t *testing.T) {
	up := HealthCheckFunc(func(context.Context) Health { return Health{Name: "ffmpeg", Status: HealthStatusUp} })
	degraded := HealthCheckFunc(func(context.Context) Health {
		return Health{Name: "credential", Status: HealthStatusDegraded, Message: "no key"}
	})
	down := HealthCheckFunc(func(context.Context) Health { return Health{Name: "storage", Status: HealthStatusDown} })

	sh := Check(context.Background(), "audioscribe", "dev", up)
	if sh.Status != HealthStatusUp || len(sh.Components) != 1 {
		t.Errorf("unexpected health %+v", sh)
	}
	sh = Check(context.Background(), "audioscribe", "dev", up, degraded)
	if sh.Status != HealthStatusDegraded {
		t.Errorf("expected degraded, got %s", sh.Status)
	}
	sh = Check(context.Background(), "audioscribe", "dev", down, degraded)
	if sh.Status != HealthStatusDown {
		t.Errorf("degraded must not override down, got %s", sh.Status)
	}
}
