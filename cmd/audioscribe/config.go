package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kbukum/audioscribe/chunk"
	"github.com/kbukum/audioscribe/config"
	"github.com/kbukum/audioscribe/credential"
	"github.com/kbukum/audioscribe/diarization"
	"github.com/kbukum/audioscribe/media"
	"github.com/kbukum/audioscribe/observability"
	"github.com/kbukum/audioscribe/recorder"
	"github.com/kbukum/audioscribe/resilience"
	"github.com/kbukum/audioscribe/server"
	"github.com/kbukum/audioscribe/storage"
	"github.com/kbukum/audioscribe/transcription"
	"github.com/kbukum/audioscribe/transcription/openai"
	"github.com/kbukum/audioscribe/util"
	"github.com/kbukum/audioscribe/validation"
)

const serviceName = "audioscribe"

// AppConfig is the configuration of every audioscribe command.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	OpenAI     OpenAIConfig         `yaml:"openai" mapstructure:"openai"`
	Pipeline   PipelineConfig       `yaml:"pipeline" mapstructure:"pipeline"`
	FFmpeg     media.FFmpegConfig   `yaml:"ffmpeg" mapstructure:"ffmpeg"`
	Credential CredentialConfig     `yaml:"credential" mapstructure:"credential"`
	Storage    storage.Config       `yaml:"storage" mapstructure:"storage"`
	Server     server.Config        `yaml:"server" mapstructure:"server"`
	Tracing    observability.Config `yaml:"tracing" mapstructure:"tracing"`
	Recorder   recorder.Config      `yaml:"recorder" mapstructure:"recorder"`
}

// OpenAIConfig addresses the transcription and chat endpoints.
type OpenAIConfig struct {
	BaseURL            string        `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`
	TranscriptionModel string        `yaml:"transcription_model" mapstructure:"transcription_model"`
	ChatModel          string        `yaml:"chat_model" mapstructure:"chat_model"`
	Timeout            time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// CircuitBreaker and RateLimit guard both endpoints, each with its own
	// breaker and bucket. Transcription calls are retried by the pipeline;
	// ChatRetry applies to translate and summarize only.
	CircuitBreaker resilience.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	RateLimit      resilience.RateLimiterConfig    `yaml:"rate_limit" mapstructure:"rate_limit"`
	ChatRetry      resilience.RetryConfig          `yaml:"chat_retry" mapstructure:"chat_retry"`
}

// PipelineConfig tunes the file transcription pipeline.
type PipelineConfig struct {
	CacheDir       string                 `yaml:"cache_dir" mapstructure:"cache_dir"`
	UploadDir      string                 `yaml:"upload_dir" mapstructure:"upload_dir"`
	RecordingDir   string                 `yaml:"recording_dir" mapstructure:"recording_dir"`
	MaxChunkSizeMB int                    `yaml:"max_chunk_size_mb" mapstructure:"max_chunk_size_mb" validate:"gte=1,lte=25"`
	Language       string                 `yaml:"language" mapstructure:"language" validate:"lang"`
	Prompt         string                 `yaml:"prompt" mapstructure:"prompt"`
	CallTimeout    time.Duration          `yaml:"call_timeout" mapstructure:"call_timeout"`
	Speakers       int                    `yaml:"speakers" mapstructure:"speakers" validate:"gte=0,lte=10"`
	Backend        string                 `yaml:"backend" mapstructure:"backend"`
	Labeler        string                 `yaml:"labeler" mapstructure:"labeler"`
	Retry          resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// CredentialConfig locates the API key.
type CredentialConfig struct {
	EnvVar  string `yaml:"env_var" mapstructure:"env_var"`
	KeyFile string `yaml:"key_file" mapstructure:"key_file"`
	Secret  string `yaml:"secret" mapstructure:"secret"`
}

// ApplyDefaults fills every section.
func (c *AppConfig) ApplyDefaults() {
	c.Name = util.Coalesce(c.Name, serviceName)
	c.Environment = util.Coalesce(c.Environment, "production")
	c.ServiceConfig.ApplyDefaults()

	if c.OpenAI.Timeout == 0 {
		c.OpenAI.Timeout = transcription.DefaultCallTimeout
	}
	if c.OpenAI.CircuitBreaker.MaxFailures == 0 {
		c.OpenAI.CircuitBreaker = resilience.DefaultCircuitBreakerConfig("openai")
	}

	base := appDir(os.UserCacheDir)
	c.Pipeline.CacheDir = util.Coalesce(c.Pipeline.CacheDir, filepath.Join(base, "transcriber"))
	c.Pipeline.UploadDir = util.Coalesce(c.Pipeline.UploadDir, filepath.Join(base, "uploads"))
	c.Pipeline.RecordingDir = util.Coalesce(c.Pipeline.RecordingDir, filepath.Join(base, "recordings"))
	c.Pipeline.Backend = util.Coalesce(c.Pipeline.Backend, openai.ProviderName)
	c.Pipeline.Labeler = util.Coalesce(c.Pipeline.Labeler, diarization.RoundRobinName)
	if c.Pipeline.MaxChunkSizeMB == 0 {
		c.Pipeline.MaxChunkSizeMB = int(chunk.DefaultMaxChunkSize >> 20)
	}
	if c.Pipeline.CallTimeout == 0 {
		c.Pipeline.CallTimeout = c.OpenAI.Timeout
	}
	c.Pipeline.CallTimeout = transcription.ClampTimeout(c.Pipeline.CallTimeout)

	c.FFmpeg.ApplyDefaults()
	c.Recorder.ApplyDefaults()

	c.Credential.EnvVar = util.Coalesce(c.Credential.EnvVar, credential.DefaultEnvVar)
	c.Credential.KeyFile = util.Coalesce(c.Credential.KeyFile, filepath.Join(appDir(os.UserConfigDir), "api-key"))
	if c.Credential.Secret == "" {
		host, _ := os.Hostname()
		c.Credential.Secret = serviceName + ":" + host
	}

	if c.Storage.Provider == "" || c.Storage.Provider == storage.ProviderLocal {
		if c.Storage.BasePath == "" {
			c.Storage.BasePath = filepath.Join(appDir(os.UserConfigDir), "transcripts")
		}
	}
	c.Storage.ApplyDefaults()
	c.Server.ApplyDefaults()

	c.Tracing.ServiceName = c.Name
	c.Tracing.ServiceVersion = c.Version
	c.Tracing.Environment = c.Environment
	c.Tracing.ApplyDefaults()
}

// Validate checks every section.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	return nil
}

// MaxChunkBytes returns the chunk size limit in bytes.
func (c *AppConfig) MaxChunkBytes() int64 {
	return int64(c.Pipeline.MaxChunkSizeMB) << 20
}

// loadConfig reads config.yml, .env and the environment. path overrides
// the config file search.
func loadConfig(path string) (*AppConfig, error) {
	var opts []config.LoaderOption
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		opts = append(opts, config.WithConfigFile(path))
	}
	cfg := &AppConfig{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func appDir(base func() (string, error)) string {
	dir, err := base()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, serviceName)
}
