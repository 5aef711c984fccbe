package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/audioscribe/logger"
)

// quietPaths are probed frequently and are not logged.
var quietPaths = map[string]bool{
	"/health": true,
	"/alive":  true,
	"/info":   true,
}

// RequestLogger returns middleware that logs every request with method,
// path, status code, and duration. Health-check paths are skipped.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if quietPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)
			duration := time.Since(start)

			fields := logger.Fields(
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.Status(),
				"bytes", sw.bytes,
				logger.FieldDuration, duration.Milliseconds(),
			)
			if strings.HasSuffix(r.URL.Path, "/events") {
				fields["stream"] = true
			}
			logByStatus(log.WithContext(r.Context()), fields, sw.Status())
		})
	}
}

func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("request completed", fields)
	case status >= 400:
		log.Warn("request completed", fields)
	default:
		log.Debug("request completed", fields)
	}
}
