package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/audioscribe/chunk"
	"github.com/kbukum/audioscribe/credential"
	"github.com/kbukum/audioscribe/diarization"
	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/logger"
	"github.com/kbukum/audioscribe/media"
	"github.com/kbukum/audioscribe/observability"
	"github.com/kbukum/audioscribe/resilience"
	"github.com/kbukum/audioscribe/transcription"
)

// ErrBusy is returned by Run while another run of the same Session is active.
var ErrBusy = errors.Conflict("a transcription is already in progress")

// Options wires a Session.
type Options struct {
	Credentials credential.Provider
	Normalizer  media.Normalizer
	Splitter    chunk.Splitter
	Transcriber transcription.Provider
	// Labeler defaults to diarization.RoundRobin.
	Labeler diarization.Labeler

	// CacheDir is owned by the session and cleared at the start of every run.
	CacheDir     string
	MaxChunkSize int64
	Language     string
	Prompt       string
	Model        string
	Format       string

	// CallTimeout bounds each transcription request. Zero means
	// transcription.DefaultCallTimeout.
	CallTimeout time.Duration
	// Retry applies to SERVICE_ERROR failures of a single chunk only.
	// The zero value makes one attempt.
	Retry resilience.RetryConfig

	Logger   *logger.Logger
	Metrics  *observability.Metrics
	Observer Observer
}

func (o Options) validate() error {
	switch {
	case o.Credentials == nil:
		return errors.Internal(fmt.Errorf("ingest: no credential provider configured"))
	case o.Normalizer == nil:
		return errors.Internal(fmt.Errorf("ingest: no normalizer configured"))
	case o.Splitter == nil:
		return errors.Internal(fmt.Errorf("ingest: no splitter configured"))
	case o.Transcriber == nil:
		return errors.Internal(fmt.Errorf("ingest: no transcriber configured"))
	}
	return nil
}

// Session runs the ingestion pipeline. It allows one run at a time.
type Session struct {
	opts  Options
	retry resilience.RetryConfig
	log   *logger.Logger

	running atomic.Bool

	mu    sync.RWMutex
	state State
}

// NewSession creates a Session from opts.
func NewSession(opts Options) *Session {
	if opts.Labeler == nil {
		opts.Labeler = diarization.RoundRobin{}
	}
	if opts.MaxChunkSize <= 0 {
		opts.MaxChunkSize = chunk.DefaultMaxChunkSize
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = transcription.DefaultCallTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Get("ingest")
	}

	retry := opts.Retry
	retry.RetryIf = func(err error) bool {
		return errors.HasCode(err, errors.ErrCodeServiceError)
	}

	s := &Session{
		opts:  opts,
		retry: retry,
		log:   opts.Logger.WithComponent("ingest"),
		state: State{Phase: PhaseIdle},
	}
	return s
}

// State returns a snapshot of the current or last run.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Active reports whether a run is in progress.
func (s *Session) Active() bool {
	return s.running.Load()
}

// Run transcribes input. It returns ErrBusy if a run is already active.
// Errors are returned unmodified; a cancelled ctx ends the run with CANCELLED.
func (s *Session) Run(ctx context.Context, input media.Handle) (*Transcript, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.running.Store(false)

	ctx, span := observability.StartSpan(ctx, observability.SpanRun)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrStatus, "started")

	start := time.Now()
	s.opts.Metrics.RecordRunStart(ctx)
	s.emit(State{Phase: PhaseIdle})

	t, chunks, err := s.run(ctx, input)

	final := s.State()
	s.opts.Metrics.RecordRunEnd(ctx, final.Phase.String(), chunks, time.Since(start))
	observability.SetSpanAttribute(ctx, observability.AttrStatus, final.Phase.String())
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return t, err
}

func (s *Session) run(ctx context.Context, input media.Handle) (*Transcript, int, error) {
	log := s.log.WithContext(ctx)

	if err := s.opts.validate(); err != nil {
		return nil, 0, s.fail(ctx, 0, err)
	}
	if _, err := s.opts.Credentials.Get(ctx); err != nil {
		if credential.IsMissing(err) {
			log.Warn("credential required", logger.ErrorFields("credential", err))
			s.emit(State{Phase: PhaseCredentialRequired, Status: errors.From(err).Message, Err: err})
			return nil, 0, err
		}
		return nil, 0, s.fail(ctx, 0, err)
	}

	if err := s.clearCache(input); err != nil {
		return nil, 0, s.fail(ctx, 0, err)
	}

	var (
		normalized media.Normalized
		chunks     []chunk.Chunk
	)
	defer func() { s.discard(ctx, input, normalized, chunks) }()

	// Converting
	s.emit(State{Phase: PhaseConverting, Progress: progressConverting, Status: "Processing file..."})
	s.emit(State{Phase: PhaseConverting, Progress: progressNormalizing, Status: "Processing file..."})
	err := s.phase(ctx, observability.SpanNormalize, func(ctx context.Context) error {
		var err error
		normalized, err = s.opts.Normalizer.Normalize(ctx, input)
		return err
	})
	if err != nil {
		return nil, 0, s.fail(ctx, progressNormalizing, err)
	}

	// Chunking
	err = s.phase(ctx, observability.SpanSplit, func(ctx context.Context) error {
		var err error
		chunks, err = s.opts.Splitter.Split(ctx, normalized, s.opts.MaxChunkSize)
		observability.SetSpanAttribute(ctx, observability.AttrSizeBytes, normalized.SizeBytes)
		observability.SetSpanAttribute(ctx, observability.AttrChunkCount, len(chunks))
		return err
	})
	if err != nil {
		return nil, 0, s.fail(ctx, progressChunking, err)
	}
	n := len(chunks)
	if n == 0 {
		return nil, 0, s.fail(ctx, progressChunking, errors.ChunkingFailed("no chunks produced", nil))
	}
	status := "Transcribing audio..."
	if n > 1 {
		status = fmt.Sprintf("File will be processed in %d chunks", n)
	}
	s.emit(State{Phase: PhaseChunking, Progress: progressChunking, Chunks: n, Status: status})
	log.Info("media split", logger.Fields(logger.FieldChunks, n, logger.FieldSize, normalized.SizeBytes))

	// Transcribing
	segments := make([]transcription.Segment, 0, n)
	for i, c := range chunks {
		progress := chunkProgress(i, n)
		if err := ctx.Err(); err != nil {
			return nil, n, s.fail(ctx, progress, errors.Cancelled("transcription").WithCause(err))
		}
		current := i
		s.emit(State{
			Phase:        PhaseTranscribing,
			Progress:     progress,
			CurrentChunk: &current,
			Chunks:       n,
			Status:       fmt.Sprintf("Transcribing chunk %d/%d...", i+1, n),
		})

		seg, err := s.transcribeChunk(ctx, c, n)
		if err != nil {
			return nil, n, s.fail(ctx, progress, err)
		}
		segments = append(segments, seg)
	}

	text, lang := Merge(segments)
	if lang == "" {
		lang = s.opts.Language
	}

	// Diarizing
	s.emit(State{Phase: PhaseDiarizing, Progress: progressDiarizing, Chunks: n, Status: "Adding speaker diarization..."})
	var diarized diarization.DiarizedTranscript
	err = s.phase(ctx, observability.SpanDiarize, func(ctx context.Context) error {
		var err error
		diarized, err = s.opts.Labeler.Label(ctx, text)
		if err != nil && !errors.HasCode(err, errors.ErrCodeCancelled) && !errors.HasCode(err, errors.ErrCodeDiarizationFailed) {
			err = errors.DiarizationFailed(err)
		}
		return err
	})
	if err != nil {
		return nil, n, s.fail(ctx, progressDiarizing, err)
	}

	t := &Transcript{
		Text:             text,
		DetectedLanguage: lang,
		Segments:         segments,
		Diarized:         diarized,
	}
	s.emit(State{Phase: PhaseComplete, Progress: progressComplete, Chunks: n, Status: "Transcription complete", Result: t})
	log.Info("transcription complete", logger.Fields(logger.FieldChunks, n, "speakers", diarized.Speakers()))
	return t, n, nil
}

// chunkProgress returns 30 + (i/n)*40 for 0-based chunk i of n.
func chunkProgress(i, n int) float64 {
	return progressChunking + float64(i)/float64(n)*progressTranscribeSpan
}

// transcribeChunk makes one bounded call per attempt. The parent ctx is
// consulted after every call so a result arriving after cancellation is
// discarded.
func (s *Session) transcribeChunk(ctx context.Context, c chunk.Chunk, n int) (transcription.Segment, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanTranscribe)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrChunkIndex, c.Index)
	observability.SetSpanAttribute(ctx, observability.AttrSizeBytes, c.SizeBytes)

	opts := transcription.Options{
		Language: s.opts.Language,
		Prompt:   s.opts.Prompt,
		Model:    s.opts.Model,
		Format:   s.opts.Format,
	}
	log := s.log.WithContext(ctx).WithFields(map[string]interface{}{
		logger.FieldChunk:  c.Index + 1,
		logger.FieldChunks: n,
	})

	retry := s.retry
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		log.Warn("retrying chunk", logger.Fields("attempt", attempt, "backoff", backoff.String(), logger.FieldError, err.Error()))
	}

	seg, err := resilience.Retry(ctx, retry, func(int) (transcription.Segment, error) {
		if err := ctx.Err(); err != nil {
			return transcription.Segment{}, errors.Cancelled("transcription").WithCause(err)
		}
		start := time.Now()
		callCtx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
		defer cancel()

		seg, err := transcription.Transcribe(callCtx, s.opts.Transcriber, c, opts)
		switch {
		case ctx.Err() != nil:
			err = errors.Cancelled("transcription").WithCause(ctx.Err())
		case err != nil && callCtx.Err() == context.DeadlineExceeded && !errors.IsAppError(err):
			err = errors.Timeout("transcription").WithCause(err)
		}

		status := "success"
		if err != nil {
			status = string(errors.CodeOf(err))
		}
		s.opts.Metrics.RecordChunk(ctx, status, c.SizeBytes, time.Since(start))
		return seg, err
	})
	if err == nil && ctx.Err() != nil {
		err = errors.Cancelled("transcription").WithCause(ctx.Err())
	}
	if err != nil {
		observability.SetSpanError(ctx, err)
		log.Warn("chunk failed", logger.ErrorFields("transcribe", err))
		return transcription.Segment{}, err
	}
	log.Debug("chunk transcribed", logger.Fields("chars", len(seg.Text)))
	return seg, nil
}

// phase runs fn in its own span and records it as an operation.
func (s *Session) phase(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := observability.StartSpan(ctx, name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	status := "success"
	if err != nil {
		status = "error"
		observability.SetSpanError(ctx, err)
	}
	s.opts.Metrics.RecordOperation(ctx, "ingest", name, status, time.Since(start))
	return err
}

// fail moves the run to PhaseFailed. A failure caused by cancellation of
// ctx is reported as CANCELLED; anything else is kept as is.
func (s *Session) fail(ctx context.Context, progress float64, err error) error {
	if ctx.Err() != nil && !errors.HasCode(err, errors.ErrCodeCancelled) {
		err = errors.Cancelled("transcription").WithCause(err)
	}
	msg := err.Error()
	if appErr, ok := errors.AsAppError(err); ok {
		msg = appErr.Message
	}

	prev := s.State()
	s.emit(State{
		Phase:    PhaseFailed,
		Progress: progress,
		Chunks:   prev.Chunks,
		Status:   "Error processing audio: " + msg,
		Err:      err,
	})
	s.opts.Metrics.RecordError(ctx, string(errors.CodeOf(err)), "ingest")
	s.log.WithContext(ctx).Error("transcription failed", logger.Fields(
		logger.FieldPhase, prev.Phase.String(),
		logger.FieldError, err.Error(),
	))
	return err
}

// clearCache empties the cache dir, keeping input if it lives there.
func (s *Session) clearCache(input media.Handle) error {
	if s.opts.CacheDir == "" {
		return nil
	}
	keep, _ := filepath.Abs(string(input))

	entries, err := os.ReadDir(s.opts.CacheDir)
	if err != nil && !os.IsNotExist(err) {
		return errors.Internal(fmt.Errorf("reading cache dir: %w", err))
	}
	for _, e := range entries {
		p := filepath.Join(s.opts.CacheDir, e.Name())
		if abs, _ := filepath.Abs(p); abs == keep || strings.HasPrefix(keep, abs+string(filepath.Separator)) {
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			return errors.Internal(fmt.Errorf("clearing cache: %w", err))
		}
	}
	if err := os.MkdirAll(s.opts.CacheDir, 0o755); err != nil {
		return errors.Internal(fmt.Errorf("creating cache dir: %w", err))
	}
	return nil
}

// discard removes the normalized file and chunk files of a finished run.
// The caller's input is never removed.
func (s *Session) discard(ctx context.Context, input media.Handle, normalized media.Normalized, chunks []chunk.Chunk) {
	keep, _ := filepath.Abs(string(input))
	seen := map[string]bool{keep: true}

	paths := make([]media.Handle, 0, len(chunks)+1)
	for _, c := range chunks {
		paths = append(paths, c.Handle)
	}
	paths = append(paths, normalized.Handle)

	log := s.log.WithContext(ctx)
	for _, h := range paths {
		if h == "" {
			continue
		}
		abs, _ := filepath.Abs(string(h))
		if seen[abs] {
			continue
		}
		seen[abs] = true
		if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
			log.Warn("cannot remove pipeline file", logger.Fields(logger.FieldPath, abs, logger.FieldError, err.Error()))
		}
	}
}

func (s *Session) emit(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	if s.opts.Observer != nil {
		s.opts.Observer(st)
	}
}
