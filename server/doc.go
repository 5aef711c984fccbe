// Package server provides the audioscribe HTTP server: Gin routes served
// over HTTP/1.1 and h2c behind a handler-level middleware stack.
//
// # Middleware
//
// server/middleware provides Recovery, RequestID, RequestLogger, CORS,
// Token, RateLimit and BodySizeLimit. ApplyMiddleware installs them in
// that order. Errors they produce use the AppError JSON envelope.
//
// # Endpoints
//
// server/endpoint provides /health (component aggregation), /alive and
// /info. The transcription API itself lives in package api.
package server
