package main

import (
	"context"
	"fmt"

	"github.com/kbukum/audioscribe/chunk"
	"github.com/kbukum/audioscribe/credential"
	"github.com/kbukum/audioscribe/diarization"
	"github.com/kbukum/audioscribe/export"
	"github.com/kbukum/audioscribe/ingest"
	"github.com/kbukum/audioscribe/logger"
	"github.com/kbukum/audioscribe/media"
	"github.com/kbukum/audioscribe/observability"
	"github.com/kbukum/audioscribe/provider"
	"github.com/kbukum/audioscribe/storage"
	"github.com/kbukum/audioscribe/transcription"
	"github.com/kbukum/audioscribe/transcription/openai"
	"github.com/kbukum/audioscribe/translate"

	// Storage backends register themselves with storage.New.
	_ "github.com/kbukum/audioscribe/storage/local"
	_ "github.com/kbukum/audioscribe/storage/s3"
)

// services holds the wired components shared by the commands.
type services struct {
	cfg         *AppConfig
	log         *logger.Logger
	keys        *credential.FileStore
	creds       credential.Provider
	normalizer  *media.FFmpegNormalizer
	transcriber transcription.Provider
	labeler     diarization.Labeler
	translator  *translate.Service
	downloader  *media.Downloader
	metrics     *observability.Metrics
}

// wire builds the services every command needs. The key is read from the
// environment first, then from the encrypted key file.
func wire(cfg *AppConfig, log *logger.Logger) (*services, error) {
	keys, err := credential.NewFileStore(cfg.Credential.KeyFile, cfg.Credential.Secret, log)
	if err != nil {
		return nil, err
	}
	creds := credential.Chain(credential.Env(cfg.Credential.EnvVar), keys)

	metrics, err := observability.NewMetrics(observability.Meter(serviceName))
	if err != nil {
		log.Warn("metrics disabled", logger.ErrorFields("metrics", err))
		metrics = nil
	}

	backends := transcription.NewRegistry()
	backends.RegisterFactory(openai.ProviderName, openai.Factory(creds, log))
	transcriber, err := backends.Open(cfg.Pipeline.Backend, map[string]any{
		"base_url": cfg.OpenAI.BaseURL,
		"model":    cfg.OpenAI.TranscriptionModel,
		"timeout":  cfg.Pipeline.CallTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("transcription backend %q: %w", cfg.Pipeline.Backend, err)
	}
	transcriber = transcription.Wrap(transcriber,
		provider.WithTracing[transcription.Request, *transcription.Response]("transcription"),
		provider.WithLogging[transcription.Request, *transcription.Response](log),
		provider.WithMetrics[transcription.Request, *transcription.Response](metrics, "transcribe"),
		provider.WithResilience[transcription.Request, *transcription.Response](transcriptionResilience(cfg.OpenAI)),
	)

	labelerCfg := map[string]any{}
	if cfg.Pipeline.Speakers > 0 {
		labelerCfg["speakers"] = cfg.Pipeline.Speakers
	}
	labeler, err := diarization.NewRegistry().Create(cfg.Pipeline.Labeler, labelerCfg)
	if err != nil {
		return nil, fmt.Errorf("labeler %q: %w", cfg.Pipeline.Labeler, err)
	}

	chatBreaker := cfg.OpenAI.CircuitBreaker
	chatBreaker.Name = "translate"
	translator, err := translate.NewOpenAI(translate.Config{
		BaseURL:        cfg.OpenAI.BaseURL,
		Model:          cfg.OpenAI.ChatModel,
		Timeout:        cfg.OpenAI.Timeout,
		Retry:          cfg.OpenAI.ChatRetry,
		CircuitBreaker: chatBreaker,
		RateLimit:      cfg.OpenAI.RateLimit,
	}, creds, metrics, log)
	if err != nil {
		return nil, fmt.Errorf("translation client: %w", err)
	}

	downloader, err := media.NewDownloader(nil, cfg.Pipeline.UploadDir, log)
	if err != nil {
		return nil, fmt.Errorf("downloader: %w", err)
	}

	return &services{
		cfg:         cfg,
		log:         log,
		keys:        keys,
		creds:       creds,
		normalizer:  media.NewFFmpegNormalizer(cfg.FFmpeg, cfg.Pipeline.CacheDir, nil, log),
		transcriber: transcriber,
		labeler:     labeler,
		translator:  translator,
		downloader:  downloader,
		metrics:     metrics,
	}, nil
}

// transcriptionResilience guards the transcription endpoint with a breaker
// and an optional rate limit. It never retries.
func transcriptionResilience(cfg OpenAIConfig) provider.ResilienceConfig {
	breaker := cfg.CircuitBreaker
	breaker.Name = "transcription"
	rc := provider.ResilienceConfig{CircuitBreaker: &breaker}
	if cfg.RateLimit.Rate > 0 {
		limit := cfg.RateLimit
		limit.Name = "transcription"
		rc.RateLimiter = &limit
	}
	return rc
}

// pipeline returns the ingest options for the configured stages.
func (s *services) pipeline(observer ingest.Observer) ingest.Options {
	return ingest.Options{
		Credentials:  s.creds,
		Normalizer:   s.normalizer,
		Splitter:     chunk.NewFrameSplitter(s.cfg.Pipeline.CacheDir, s.log),
		Transcriber:  s.transcriber,
		Labeler:      s.labeler,
		CacheDir:     s.cfg.Pipeline.CacheDir,
		MaxChunkSize: s.cfg.MaxChunkBytes(),
		Language:     s.cfg.Pipeline.Language,
		Prompt:       s.cfg.Pipeline.Prompt,
		Model:        s.cfg.OpenAI.TranscriptionModel,
		CallTimeout:  s.cfg.Pipeline.CallTimeout,
		Retry:        s.cfg.Pipeline.Retry,
		Logger:       s.log,
		Metrics:      s.metrics,
		Observer:     observer,
	}
}

// exporter opens the configured transcript storage.
func (s *services) exporter(ctx context.Context) (*export.Exporter, error) {
	store, err := storage.New(ctx, s.cfg.Storage, s.log)
	if err != nil {
		return nil, err
	}
	return export.New(store, s.log), nil
}

// keyStore reads the key like the pipeline does (environment, then file)
// and writes to the key file.
type keyStore struct {
	credential.Provider
	file *credential.FileStore
}

func (k keyStore) Set(ctx context.Context, key string) error { return k.file.Set(ctx, key) }
func (k keyStore) Remove(ctx context.Context) error          { return k.file.Remove(ctx) }

func (s *services) keyStore() credential.Store {
	return keyStore{Provider: s.creds, file: s.keys}
}
