package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/resilience"
)

// RateLimitConfig configures the per-client rate limiting middleware.
type RateLimitConfig struct {
	// RequestsPerMinute is the sustained rate allowed per key.
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	// Burst is the bucket size. Defaults to RequestsPerMinute.
	Burst int `yaml:"burst" mapstructure:"burst"`
	// KeyFunc extracts the rate limit key from a request. Defaults to the remote IP.
	KeyFunc func(*http.Request) string `yaml:"-" mapstructure:"-"`
}

// RateLimit returns middleware with one token bucket per key. Requests over
// the limit receive 429 with a Retry-After header.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.RequestsPerMinute
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = RemoteIP
	}

	var (
		mu      sync.Mutex
		buckets = make(map[string]*resilience.RateLimiter)
	)
	bucket := func(key string) *resilience.RateLimiter {
		mu.Lock()
		defer mu.Unlock()
		rl, ok := buckets[key]
		if !ok {
			rl = resilience.NewRateLimiter(resilience.RateLimiterConfig{
				Rate:  float64(cfg.RequestsPerMinute) / 60,
				Burst: cfg.Burst,
			})
			buckets[key] = rl
		}
		return rl
	}
	retryAfter := strconv.Itoa(int((time.Minute / time.Duration(cfg.RequestsPerMinute)).Seconds()) + 1)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !bucket(cfg.KeyFunc(r)).Allow() {
				w.Header().Set("Retry-After", retryAfter)
				writeError(w, errors.New(errors.ErrCodeRateLimited, "Rate limit exceeded", http.StatusTooManyRequests))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RemoteIP keys requests by the client address without port.
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
