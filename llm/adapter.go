package llm

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/httpclient"
	"github.com/kbukum/audioscribe/provider"
)

// ErrNoDialect is returned by NewWithDialect for a nil dialect.
var ErrNoDialect = stderrors.New("llm: dialect is required")

const serviceName = "chat"

var _ provider.RequestResponse[CompletionRequest, CompletionResponse] = (*Adapter)(nil)

// Adapter is a config-driven chat client that works with any provider via
// the Dialect pattern. It composes the httpclient.Client (auth, resilience,
// timeout) with a Dialect that handles provider-specific mapping.
type Adapter struct {
	name      string
	client    *httpclient.Client
	dialect   Dialect
	auth      *httpclient.AuthConfig
	model     string
	temp      float64
	maxTokens int
}

// New creates an adapter from config using the global dialect registry.
func New(cfg Config) (*Adapter, error) {
	cfg.applyDefaults()

	dialect, err := GetDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	return newAdapter(dialect, cfg)
}

// NewWithDialect creates an adapter with an explicit dialect instance.
func NewWithDialect(dialect Dialect, cfg Config) (*Adapter, error) {
	if dialect == nil {
		return nil, ErrNoDialect
	}
	cfg.applyDefaults()
	if cfg.Name == "" {
		cfg.Name = dialect.Name() + "-llm"
	}
	return newAdapter(dialect, cfg)
}

func newAdapter(dialect Dialect, cfg Config) (*Adapter, error) {
	client, err := httpclient.New(httpclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Auth:    cfg.Auth,
		Headers: cfg.Headers,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: create http client: %w", err)
	}

	return &Adapter{
		name:      cfg.Name,
		client:    client,
		dialect:   dialect,
		auth:      cfg.Auth,
		model:     cfg.Model,
		temp:      cfg.Temperature,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Name returns the adapter name.
func (a *Adapter) Name() string { return a.name }

// IsAvailable reports whether the adapter can authenticate. It resolves the
// token source without touching the network.
func (a *Adapter) IsAvailable(ctx context.Context) bool {
	if a.auth == nil || a.auth.TokenSource == nil {
		return true
	}
	_, err := a.auth.TokenSource(ctx)
	return err == nil
}

// Execute sends a completion request and returns the full response.
func (a *Adapter) Execute(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	a.applyDefaults(&req)

	body, err := a.dialect.BuildRequest(req)
	if err != nil {
		return CompletionResponse{}, errors.Internal(fmt.Errorf("llm: build request: %w", err))
	}

	raw, err := httpclient.PostJSON[json.RawMessage](ctx, a.client, a.dialect.ChatPath(), body)
	if err != nil {
		return CompletionResponse{}, httpclient.ToAppError(err, serviceName)
	}

	result, err := a.dialect.ParseResponse(raw)
	if err != nil {
		return CompletionResponse{}, errors.ServiceError(serviceName, fmt.Errorf("llm: parse response: %w", err))
	}
	return *result, nil
}

// Dialect returns the dialect used by this adapter.
func (a *Adapter) Dialect() Dialect { return a.dialect }

func (a *Adapter) applyDefaults(req *CompletionRequest) {
	if req.Model == "" {
		req.Model = a.model
	}
	if req.Temperature == 0 {
		req.Temperature = a.temp
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = a.maxTokens
	}
}
