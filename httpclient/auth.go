package httpclient

import (
	"context"
	"net/http"
)

// AuthType identifies the authentication method.
type AuthType int

const (
	// AuthNone disables authentication.
	AuthNone AuthType = iota
	// AuthBearer uses Bearer token authentication.
	AuthBearer
	// AuthAPIKey sends a key in a named header.
	AuthAPIKey
)

// TokenSource returns the current credential. It is called once per request so
// a key stored or removed while the process runs takes effect immediately.
type TokenSource func(ctx context.Context) (string, error)

// AuthConfig configures request authentication.
type AuthConfig struct {
	// Type is the authentication method.
	Type AuthType
	// Token is a fixed bearer token or API key.
	Token string
	// TokenSource supplies the token per request; it takes precedence over Token.
	TokenSource TokenSource
	// Header is the header name for AuthAPIKey. Defaults to "X-API-Key".
	Header string
}

// BearerAuth creates a fixed bearer token auth config.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// BearerTokenAuth creates a bearer auth config that asks src for the token on every request.
func BearerTokenAuth(src TokenSource) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, TokenSource: src}
}

// APIKeyAuthHeader creates an API key auth config with a custom header name.
func APIKeyAuthHeader(key, headerName string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Token: key, Header: headerName}
}

// apply resolves the token and sets it on req. Token source errors are
// returned unchanged so callers can recognise a missing credential.
func (a *AuthConfig) apply(ctx context.Context, req *http.Request) error {
	if a == nil || a.Type == AuthNone {
		return nil
	}
	token := a.Token
	if a.TokenSource != nil {
		t, err := a.TokenSource(ctx)
		if err != nil {
			return err
		}
		token = t
	}
	switch a.Type {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+token)
	case AuthAPIKey:
		name := a.Header
		if name == "" {
			name = "X-API-Key"
		}
		req.Header.Set(name, token)
	}
	return nil
}
