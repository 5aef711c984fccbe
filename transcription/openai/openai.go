// Package openai implements transcription.Provider against the OpenAI
// /audio/transcriptions endpoint and compatible servers.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/audioscribe/credential"
	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/httpclient"
	"github.com/kbukum/audioscribe/logger"
	"github.com/kbukum/audioscribe/provider"
	"github.com/kbukum/audioscribe/transcription"
)

const (
	// ProviderName is the registered name for the OpenAI provider.
	ProviderName = "openai"

	// DefaultBaseURL is the OpenAI API root; compatible servers override it.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel is the speech-to-text model sent with every upload.
	DefaultModel = "whisper-1"

	serviceName = "transcription"
	endpoint    = "/audio/transcriptions"
)

// Config holds configuration for the OpenAI transcription provider.
type Config struct {
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	Model       string        `yaml:"model" mapstructure:"model"`
	Format      string        `yaml:"format" mapstructure:"format"`
	Temperature float64       `yaml:"temperature" mapstructure:"temperature"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults fills in zero-value fields and clamps the timeout.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Format == "" {
		c.Format = transcription.FormatJSON
	}
	c.Timeout = transcription.ClampTimeout(c.Timeout)
}

// Provider implements transcription.Provider over HTTP.
type Provider struct {
	cfg    Config
	creds  credential.Provider
	client *httpclient.Client
	log    *logger.Logger
}

// NewProvider creates a provider that reads the API key from creds on
// every call.
func NewProvider(cfg Config, creds credential.Provider, log *logger.Logger) (*Provider, error) {
	cfg.ApplyDefaults()
	if creds == nil {
		return nil, fmt.Errorf("openai: credential provider is required")
	}
	client, err := httpclient.New(httpclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Auth:    httpclient.BearerTokenAuth(credential.TokenSource(creds)),
	})
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Get("transcription")
	}
	return &Provider{cfg: cfg, creds: creds, client: client, log: log.WithComponent("transcription.openai")}, nil
}

// Factory returns a provider.Factory creating Provider instances from a
// generic config map.
func Factory(creds credential.Provider, log *logger.Logger) provider.Factory[transcription.Provider] {
	return func(m map[string]any) (transcription.Provider, error) {
		cfg := Config{}
		if v, ok := m["base_url"].(string); ok {
			cfg.BaseURL = v
		}
		if v, ok := m["model"].(string); ok {
			cfg.Model = v
		}
		if v, ok := m["format"].(string); ok {
			cfg.Format = v
		}
		if v, ok := m["temperature"].(float64); ok {
			cfg.Temperature = v
		}
		if v, ok := m["timeout"].(time.Duration); ok {
			cfg.Timeout = v
		}
		return NewProvider(cfg, creds, log)
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether an API key is configured. It makes no
// network call.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	_, err := p.creds.Get(ctx)
	return err == nil
}

// Config returns the effective configuration.
func (p *Provider) Config() Config { return p.cfg }

// Transcribe uploads req.AudioPath as multipart form data.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	f, err := os.Open(req.AudioPath)
	if err != nil {
		return nil, errors.SourceUnavailable(req.AudioPath, err)
	}
	defer f.Close() //nolint:errcheck // read-only

	format := coalesce(req.Format, p.cfg.Format)
	temperature := p.cfg.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	fields := map[string]string{
		"model":           coalesce(req.Model, p.cfg.Model),
		"response_format": format,
		"temperature":     strconv.FormatFloat(temperature, 'f', -1, 64),
	}
	if req.Language != "" {
		fields["language"] = req.Language
	}
	if req.Prompt != "" {
		fields["prompt"] = req.Prompt
	}

	start := time.Now()
	resp, err := p.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   endpoint,
		Body: &httpclient.MultipartBody{
			Fields: fields,
			Files: []httpclient.FileField{{
				FieldName:   "file",
				FileName:    filepath.Base(req.AudioPath),
				ContentType: contentType(req.AudioPath),
				Reader:      f,
			}},
		},
	})
	if err != nil {
		mapped := mapError(err)
		p.log.WithContext(ctx).Warn("transcription request failed", logger.Fields(
			logger.FieldPath, req.AudioPath,
			logger.FieldError, mapped.Error(),
		))
		return nil, mapped
	}

	out, err := decode(format, resp.Body)
	if err != nil {
		return nil, errors.ServiceError(serviceName, err).WithDetail("body", truncate(string(resp.Body), 512))
	}
	p.log.WithContext(ctx).Debug("chunk transcribed", logger.DurationFields("transcribe", time.Since(start)))
	return out, nil
}

type verboseResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func decode(format string, body []byte) (*transcription.Response, error) {
	switch format {
	case transcription.FormatText, "srt", "vtt":
		return &transcription.Response{Text: strings.TrimSpace(string(body))}, nil
	}
	var v verboseResponse
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("decode transcription response: %w", err)
	}
	out := &transcription.Response{Text: v.Text, Language: v.Language, Duration: v.Duration}
	for _, s := range v.Segments {
		out.Timings = append(out.Timings, transcription.Timing{Start: s.Start, End: s.End, Text: s.Text})
	}
	return out, nil
}

func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3", ".mpga", ".mpeg":
		return "audio/mpeg"
	case ".m4a", ".mp4":
		return "audio/mp4"
	case ".wav":
		return "audio/wav"
	case ".webm":
		return "audio/webm"
	case ".ogg", ".oga":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	}
	return "application/octet-stream"
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ transcription.Provider = (*Provider)(nil)
