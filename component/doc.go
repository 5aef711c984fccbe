// Package component manages the lifecycle of long-running service parts:
// the SSE hub, the HTTP server and the telemetry exporters.
//
// Components are started in registration order and stopped in reverse.
// Their Health results feed the service /health endpoint.
package component
