// Package errors provides the structured error type shared by every audioscribe
// component. Each failure carries a machine-readable code, an HTTP status for the
// API surface and a retryable flag, so the pipeline orchestrator can tell a
// missing credential from a rejected one and a transient failure from bad media.
package errors
