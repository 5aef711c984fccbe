// Package logger provides structured logging for audioscribe using zerolog.
//
// It supports JSON and console output, level configuration and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.Get("ingest")
//	log.Info("chunk transcribed", logger.Fields("chunk", 2, "of", 3))
package logger
