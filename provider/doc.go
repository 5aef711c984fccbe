// Package provider defines the generic shape of every swappable backend in
// audioscribe: speech-to-text, chat completion, media conversion.
//
// Backends implement RequestResponse[I, O]: one input, one output
// (transcription upload, chat completion). Adapt and Func bridge types and
// plain functions onto it.
//
// Cross-cutting behavior is layered with Middleware:
//
//	wrapped := provider.Chain(
//	    provider.WithLogging[In, Out](log),
//	    provider.WithMetrics[In, Out](metrics, "transcribe"),
//	    provider.WithTracing[In, Out]("audioscribe"),
//	    provider.WithResilience[In, Out](resilienceCfg),
//	)(raw)
//
// WithResilience adds rate limiting, a circuit breaker and retry. Registry
// maps backend names from configuration to factories.
package provider
