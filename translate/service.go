package translate

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/kbukum/audioscribe/credential"
	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/httpclient"
	"github.com/kbukum/audioscribe/llm"
	"github.com/kbukum/audioscribe/llm/openai"
	"github.com/kbukum/audioscribe/logger"
	"github.com/kbukum/audioscribe/observability"
	"github.com/kbukum/audioscribe/provider"
	"github.com/kbukum/audioscribe/resilience"
)

// Chat parameters used when Config leaves them unset.
const (
	DefaultModel       = "gpt-4-turbo"
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 4000
)

// Languages lists the accepted target languages.
var Languages = []string{
	"russian", "spanish", "french", "german", "catalan", "english",
	"portuguese", "italian", "chinese", "japanese", "korean",
}

// Supported reports whether lang is an accepted target language.
func Supported(lang string) bool {
	return slices.Contains(Languages, strings.ToLower(strings.TrimSpace(lang)))
}

// Completer is the chat backend the service calls.
type Completer = llm.Chat

// Config configures the chat backend.
type Config struct {
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	Model       string        `yaml:"model" mapstructure:"model"`
	Temperature float64       `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Retry applies to SERVICE_ERROR failures. The zero value makes one attempt.
	Retry          resilience.RetryConfig          `yaml:"retry" mapstructure:"retry"`
	CircuitBreaker resilience.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	// RateLimit is off while Rate is zero.
	RateLimit resilience.RateLimiterConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.CircuitBreaker.MaxFailures == 0 {
		c.CircuitBreaker = resilience.DefaultCircuitBreakerConfig("translate")
	}
}

func (c Config) resilience() provider.ResilienceConfig {
	rc := provider.ResilienceConfig{CircuitBreaker: &c.CircuitBreaker}
	if c.Retry.Enabled() {
		rc.Retry = &c.Retry
	}
	if c.RateLimit.Rate > 0 {
		rc.RateLimiter = &c.RateLimit
	}
	return rc
}

// Service translates and summarizes text.
type Service struct {
	text provider.RequestResponse[llm.Prompt, string]
	log  *logger.Logger
}

// NewService wraps an existing chat backend.
func NewService(chat Completer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Get("translate")
	}
	return &Service{text: llm.TextProvider(chat, "translate"), log: log.WithComponent("translate")}
}

// NewOpenAI builds a Service on the openai dialect with the key read from
// creds on every call. metrics may be nil.
func NewOpenAI(cfg Config, creds credential.Provider, metrics *observability.Metrics, log *logger.Logger) (*Service, error) {
	cfg.ApplyDefaults()
	adapter, err := llm.NewWithDialect(&openai.Dialect{}, llm.Config{
		Name:        "translate-llm",
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
		Auth:        httpclient.BearerTokenAuth(credential.TokenSource(creds)),
	})
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Get("translate")
	}
	chat := provider.Chain(
		provider.WithTracing[llm.CompletionRequest, llm.CompletionResponse]("translate"),
		provider.WithLogging[llm.CompletionRequest, llm.CompletionResponse](log),
		provider.WithMetrics[llm.CompletionRequest, llm.CompletionResponse](metrics, "chat"),
		provider.WithResilience[llm.CompletionRequest, llm.CompletionResponse](cfg.resilience()),
	)(adapter)
	return NewService(chat, log), nil
}

// Translate returns text translated into targetLanguage.
func (s *Service) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	lang := strings.ToLower(strings.TrimSpace(targetLanguage))
	if !Supported(lang) {
		return "", errors.InvalidInput("target_language", "unsupported language "+targetLanguage)
	}
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	out, err := s.text.Execute(ctx, llm.Prompt{System: translatorPrompt(lang), User: text})
	if err != nil {
		s.log.WithContext(ctx).Warn("translation failed", logger.ErrorFields("translate", err))
		return "", err
	}
	return out, nil
}

// Summarize returns a structured negotiation summary of text in the
// transcript's own language.
func (s *Service) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	out, err := s.text.Execute(ctx, llm.Prompt{User: summarizePrompt(text)})
	if err != nil {
		s.log.WithContext(ctx).Warn("summarization failed", logger.ErrorFields("summarize", err))
		return "", err
	}
	return out, nil
}
