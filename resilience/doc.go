// Package resilience provides the fault-tolerance primitives used around remote
// speech and chat calls.
//
//   - Retry: bounded retries with exponential backoff, retrying only errors
//     marked retryable (SERVICE_ERROR) unless told otherwise
//   - CircuitBreaker: fails fast after consecutive remote failures
//   - RateLimiter: token bucket pacing of outgoing requests
//
//	seg, err := resilience.Retry(ctx, cfg.Retry, func(attempt int) (Segment, error) {
//	    return client.Transcribe(ctx, chunk)
//	})
package resilience
