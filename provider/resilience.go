package provider

import (
	"context"
	stderrors "errors"

	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/resilience"
)

// ResilienceConfig bundles optional resilience policies for a provider.
// Nil fields are skipped.
type ResilienceConfig struct {
	CircuitBreaker *resilience.CircuitBreakerConfig
	Retry          *resilience.RetryConfig
	RateLimiter    *resilience.RateLimiterConfig
}

// IsEmpty returns true if no resilience policies are configured.
func (c ResilienceConfig) IsEmpty() bool {
	return c.CircuitBreaker == nil && c.Retry == nil && c.RateLimiter == nil
}

// resilienceState holds the primitives built from a ResilienceConfig.
type resilienceState struct {
	cb       *resilience.CircuitBreaker
	rl       *resilience.RateLimiter
	retryCfg *resilience.RetryConfig
}

func buildResilience(cfg ResilienceConfig) *resilienceState {
	s := &resilienceState{retryCfg: cfg.Retry}
	if cfg.CircuitBreaker != nil {
		s.cb = resilience.NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	if cfg.RateLimiter != nil {
		s.rl = resilience.NewRateLimiter(*cfg.RateLimiter)
	}
	return s
}

// WithResilience returns a Middleware applying RateLimiter → CircuitBreaker
// → Retry. The breaker and limiter are shared by every call through the
// wrapped provider. An empty config leaves the provider unchanged.
func WithResilience[I, O any](cfg ResilienceConfig) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		if cfg.IsEmpty() {
			return inner
		}
		return &resilientRR[I, O]{inner: inner, state: buildResilience(cfg)}
	}
}

type resilientRR[I, O any] struct {
	inner RequestResponse[I, O]
	state *resilienceState
}

func (r *resilientRR[I, O]) Name() string                         { return r.inner.Name() }
func (r *resilientRR[I, O]) IsAvailable(ctx context.Context) bool { return r.inner.IsAvailable(ctx) }

func (r *resilientRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return executeWithResilience(ctx, r.state, func() (O, error) {
		return r.inner.Execute(ctx, input)
	})
}

// executeWithResilience runs fn through RateLimiter.Wait → CircuitBreaker →
// Retry → fn. Resilience sentinel errors come back as AppErrors.
func executeWithResilience[T any](ctx context.Context, s *resilienceState, fn func() (T, error)) (T, error) {
	if s.rl != nil {
		if err := s.rl.Wait(ctx); err != nil {
			var zero T
			return zero, wrapResilienceError(err)
		}
	}

	call := fn
	if s.retryCfg != nil {
		retryCfg := *s.retryCfg
		call = func() (T, error) {
			return resilience.Retry(ctx, retryCfg, func(int) (T, error) { return fn() })
		}
	}

	if s.cb == nil {
		return call()
	}
	var result T
	var resultErr error
	cbErr := s.cb.Execute(func() error {
		result, resultErr = call()
		return resultErr
	})
	if cbErr != nil && resultErr == nil {
		return result, wrapResilienceError(cbErr)
	}
	return result, resultErr
}

func wrapResilienceError(err error) error {
	if err == nil || errors.IsAppError(err) {
		return err
	}
	switch {
	case stderrors.Is(err, resilience.ErrCircuitOpen):
		return errors.ServiceError("provider", err).WithDetail("reason", "circuit open")
	case stderrors.Is(err, context.Canceled):
		return errors.Cancelled("provider call").WithCause(err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.Timeout("provider call").WithCause(err)
	default:
		return err
	}
}
