// Package observability wires OpenTelemetry tracing and metrics for the
// transcription pipeline and reports dependency health.
//
// Export is opt-in:
//
//	shutdown, err := observability.Setup(ctx, cfg.Observability)
//	defer shutdown(ctx)
//
// Each pipeline run opens an ingest.run span with one child span per phase
// and per chunk request. Metrics records run outcomes, per-chunk latency and
// upload volume; a nil *Metrics is valid and records nothing.
package observability
