package live

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/logger"
	"github.com/kbukum/audioscribe/media"
	"github.com/kbukum/audioscribe/pipeline"
	"github.com/kbukum/audioscribe/transcription"
)

// DefaultPrefetch is the number of recorded segments queued ahead of
// transcription.
const DefaultPrefetch = 4

// Source yields recorded segment files in capture order.
type Source = pipeline.Iterator[media.Handle]

// Translator translates text into a target language.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// Options wires a Session.
type Options struct {
	Transcriber transcription.Provider
	Translator  Translator
	Model       string
	Prefetch    int
	Logger      *logger.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Session accumulates the entries of one live transcription.
type Session struct {
	opts Options
	log  *logger.Logger

	mu      sync.RWMutex
	entries []Entry
}

// NewSession creates a Session.
func NewSession(opts Options) *Session {
	if opts.Prefetch <= 0 {
		opts.Prefetch = DefaultPrefetch
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Get("live")
	}
	return &Session{opts: opts, log: opts.Logger.WithComponent("live")}
}

// Run processes src until it is exhausted or ctx is cancelled, calling
// onEntry for every non-empty entry. A failing segment is logged and
// skipped; only a credential problem stops the run. Cancellation is a
// normal stop and returns nil.
func (s *Session) Run(ctx context.Context, src Source, onEntry func(Entry)) error {
	segments := pipeline.Buffer(pipeline.From(src), s.opts.Prefetch)
	entries := pipeline.Map(segments, s.process)
	entries = pipeline.Filter(entries, Entry.Valid)

	err := pipeline.ForEach(ctx, entries, func(_ context.Context, e Entry) error {
		s.mu.Lock()
		s.entries = append(s.entries, e)
		s.mu.Unlock()
		if onEntry != nil {
			onEntry(e)
		}
		return nil
	})
	if err != nil && (stderrors.Is(err, context.Canceled) || errors.HasCode(err, errors.ErrCodeCancelled)) {
		return nil
	}
	return err
}

// process turns one segment into an entry. Per-segment failures yield an
// empty entry so the stream continues.
func (s *Session) process(ctx context.Context, h media.Handle) (Entry, error) {
	log := s.log.WithFields(map[string]interface{}{logger.FieldPath: h.String()})

	resp, err := s.opts.Transcriber.Transcribe(ctx, transcription.Request{
		AudioPath: h.String(),
		Model:     s.opts.Model,
		Format:    transcription.FormatVerboseJSON,
	})
	if err != nil {
		return Entry{}, s.segmentError(ctx, log, "transcribe", err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return Entry{}, nil
	}

	e := Entry{Time: s.opts.Now()}
	target := Russian
	if IsRussian(resp.Language) {
		e.Source, e.Russian = Russian, text
		target = Spanish
	} else {
		e.Source, e.Spanish = Spanish, text
	}

	translated, err := s.opts.Translator.Translate(ctx, text, target)
	if err != nil {
		if fatal := s.segmentError(ctx, log, "translate", err); fatal != nil {
			return Entry{}, fatal
		}
	}
	if target == Spanish {
		e.Spanish = translated
	} else {
		e.Russian = translated
	}
	return e, nil
}

// segmentError returns err when it should stop the run and nil otherwise.
func (s *Session) segmentError(ctx context.Context, log *logger.Logger, op string, err error) error {
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.HasCode(err, errors.ErrCodeCredentialMissing), errors.HasCode(err, errors.ErrCodeUnauthorized):
		return err
	}
	log.Warn("segment skipped", logger.ErrorFields(op, err))
	return nil
}

// Entries returns a copy of the entries so far.
func (s *Session) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.entries...)
}

// Export renders all entries as "RU: ...\nES: ..." blocks.
func (s *Session) Export() string {
	return Render(s.Entries())
}

// Reset drops the collected entries.
func (s *Session) Reset() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
}
