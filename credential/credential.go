package credential

import (
	"context"
	"strings"
	"unicode"

	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/httpclient"
	"github.com/kbukum/audioscribe/observability"
)

// DefaultEnvVar is the environment variable Env reads when none is given.
const DefaultEnvVar = "OPENAI_API_KEY"

// Provider returns the current API key. It returns a CREDENTIAL_MISSING
// AppError when no key is configured.
type Provider interface {
	Get(ctx context.Context) (string, error)
}

// Store is a Provider whose key can be replaced or removed by the user.
type Store interface {
	Provider
	Set(ctx context.Context, key string) error
	Remove(ctx context.Context) error
}

// Validate checks that key is non-empty and contains no whitespace.
func Validate(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.InvalidInput("api_key", "API key must not be empty")
	}
	if strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return errors.InvalidInput("api_key", "API key must not contain whitespace")
	}
	return nil
}

// IsMissing reports whether err means no credential is configured.
func IsMissing(err error) bool {
	return errors.HasCode(err, errors.ErrCodeCredentialMissing)
}

// TokenSource adapts p to the bearer token source of httpclient, so the key
// is read on every request.
func TokenSource(p Provider) httpclient.TokenSource {
	return func(ctx context.Context) (string, error) {
		return p.Get(ctx)
	}
}

// HealthCheck reports degraded while no key is configured.
func HealthCheck(p Provider) observability.HealthChecker {
	return observability.HealthCheckFunc(func(ctx context.Context) observability.Health {
		h := observability.Health{Name: "credential", Status: observability.HealthStatusUp}
		if _, err := p.Get(ctx); err != nil {
			h.Status = observability.HealthStatusDegraded
			h.Message = errors.From(err).Message
		}
		return h
	})
}
