package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/audioscribe/chunk"
	"github.com/kbukum/audioscribe/credential"
	"github.com/kbukum/audioscribe/diarization"
	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/logger"
	"github.com/kbukum/audioscribe/media"
	"github.com/kbukum/audioscribe/resilience"
	"github.com/kbukum/audioscribe/sse"
	"github.com/kbukum/audioscribe/transcription"
	"github.com/kbukum/audioscribe/transcription/openai"
)

const mib = 1024 * 1024

// fakeNormalizer reports a fixed size without touching the filesystem.
type fakeNormalizer struct {
	size  int64
	err   error
	calls atomic.Int32
}

func (f *fakeNormalizer) Normalize(_ context.Context, in media.Handle) (media.Normalized, error) {
	f.calls.Add(1)
	if f.err != nil {
		return media.Normalized{}, f.err
	}
	return media.Normalized{Handle: in, SizeBytes: f.size}, nil
}

// byteSplitter cuts by byte count and writes a tiny file per chunk.
type byteSplitter struct {
	dir string
}

func (s byteSplitter) Split(_ context.Context, in media.Normalized, maxBytes int64) ([]chunk.Chunk, error) {
	n := chunk.Count(in.SizeBytes, maxBytes)
	out := make([]chunk.Chunk, n)
	remaining := in.SizeBytes
	for i := range out {
		size := min(remaining, maxBytes)
		remaining -= size
		p := filepath.Join(s.dir, fmt.Sprintf("chunk-%d.mp3", i))
		if err := os.WriteFile(p, []byte("\xff\xfb"), 0o644); err != nil {
			return nil, err
		}
		out[i] = chunk.Chunk{Index: i, Handle: media.Handle(p), SizeBytes: size}
	}
	return out, nil
}

// fakeTranscriber answers from a per-chunk function and records the order
// of calls.
type fakeTranscriber struct {
	mu    sync.Mutex
	paths []string
	fn    func(ctx context.Context, call int, req transcription.Request) (*transcription.Response, error)
}

func (f *fakeTranscriber) Name() string                     { return "fake" }
func (f *fakeTranscriber) IsAvailable(context.Context) bool { return true }

func (f *fakeTranscriber) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	f.mu.Lock()
	f.paths = append(f.paths, filepath.Base(req.AudioPath))
	call := len(f.paths)
	f.mu.Unlock()
	if f.fn == nil {
		return &transcription.Response{Text: "text " + filepath.Base(req.AudioPath)}, nil
	}
	return f.fn(ctx, call, req)
}

func (f *fakeTranscriber) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) observe(st State) {
	r.mu.Lock()
	r.states = append(r.states, st)
	r.mu.Unlock()
}

func (r *recorder) progress() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, len(r.states))
	for i, st := range r.states {
		out[i] = st.Progress
	}
	return out
}

func (r *recorder) last() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[len(r.states)-1]
}

func newTestSession(t *testing.T, size int64, tr transcription.Provider, rec *recorder) *Session {
	t.Helper()
	return NewSession(Options{
		Credentials:  credential.Static("sk-test"),
		Normalizer:   &fakeNormalizer{size: size},
		Splitter:     byteSplitter{dir: t.TempDir()},
		Transcriber:  tr,
		CacheDir:     filepath.Join(t.TempDir(), "cache"),
		MaxChunkSize: 24 * mib,
		Logger:       logger.Nop(),
		Observer:     rec.observe,
	})
}

func TestRun_FiftyMiBInThreeChunks(t *testing.T) {
	tr := &fakeTranscriber{}
	rec := &recorder{}
	var callsAtComplete int
	s := newTestSession(t, 50*mib, tr, rec)
	s.opts.Observer = func(st State) {
		rec.observe(st)
		if st.Phase == PhaseComplete {
			callsAtComplete = len(tr.calls())
		}
	}

	got, err := s.Run(context.Background(), "meeting.m4a")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls := tr.calls(); len(calls) != 3 || calls[0] != "chunk-0.mp3" || calls[2] != "chunk-2.mp3" {
		t.Fatalf("expected 3 ordered calls, got %v", calls)
	}
	if callsAtComplete != 3 {
		t.Errorf("complete emitted after %d calls, want 3", callsAtComplete)
	}

	want := []float64{0, 10, 20, 30, 30, 30 + 40.0/3, 30 + 80.0/3, 80, 100}
	prog := rec.progress()
	if len(prog) != len(want) {
		t.Fatalf("progress = %v, want %v", prog, want)
	}
	for i := range want {
		if diff := prog[i] - want[i]; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("progress[%d] = %v, want %v", i, prog[i], want[i])
		}
	}

	final := rec.last()
	if final.Phase != PhaseComplete || final.Status != "Transcription complete" || final.Result != got {
		t.Errorf("unexpected final state %+v", final)
	}
	if got.Text != "text chunk-0.mp3 text chunk-1.mp3 text chunk-2.mp3" {
		t.Errorf("unexpected text %q", got.Text)
	}
	if len(got.Diarized.Paragraphs) != 1 || got.Diarized.Paragraphs[0].Speaker != 1 {
		t.Errorf("unexpected diarization %+v", got.Diarized)
	}
	if s.Active() {
		t.Error("session should be idle after the run")
	}
}

func TestRun_StatusMessages(t *testing.T) {
	rec := &recorder{}
	s := newTestSession(t, 50*mib, &fakeTranscriber{}, rec)
	if _, err := s.Run(context.Background(), "a.wav"); err != nil {
		t.Fatal(err)
	}
	var statuses []string
	for _, st := range rec.states {
		statuses = append(statuses, st.Status)
	}
	joined := strings.Join(statuses, "|")
	for _, want := range []string{
		"Processing file...",
		"File will be processed in 3 chunks",
		"Transcribing chunk 1/3...",
		"Transcribing chunk 3/3...",
		"Adding speaker diarization...",
		"Transcription complete",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing status %q in %v", want, statuses)
		}
	}
	for _, st := range rec.states {
		if st.Phase == PhaseTranscribing && (st.CurrentChunk == nil || st.Chunks != 3) {
			t.Errorf("transcribing state without chunk info: %+v", st)
		}
	}
}

func TestRun_SingleChunkStatus(t *testing.T) {
	rec := &recorder{}
	s := newTestSession(t, 2*mib, &fakeTranscriber{}, rec)
	if _, err := s.Run(context.Background(), "a.wav"); err != nil {
		t.Fatal(err)
	}
	for _, st := range rec.states {
		if st.Phase == PhaseChunking && st.Status != "Transcribing audio..." {
			t.Errorf("unexpected chunking status %q", st.Status)
		}
	}
}

func TestRun_UnauthorizedOnSecondChunk(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 2 {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"hola"}`))
	}))
	defer srv.Close()

	whisper, err := openai.NewProvider(openai.Config{BaseURL: srv.URL}, credential.Static("sk-test"), logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	s := newTestSession(t, 50*mib, whisper, rec)

	got, err := s.Run(context.Background(), "meeting.m4a")
	if got != nil {
		t.Errorf("expected no transcript, got %+v", got)
	}
	if !errors.HasCode(err, errors.ErrCodeUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
	if n := requests.Load(); n != 2 {
		t.Errorf("expected chunk 3 never requested, got %d requests", n)
	}
	final := rec.last()
	if final.Phase != PhaseFailed || final.ErrorCode() != errors.ErrCodeUnauthorized {
		t.Errorf("unexpected final state %+v", final)
	}
	if !strings.HasPrefix(final.Status, "Error processing audio: ") {
		t.Errorf("unexpected status %q", final.Status)
	}
	if final.Progress == progressComplete {
		t.Error("progress must not reach 100 on failure")
	}
}

func TestRun_MissingCredentialMakesNoCalls(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		requests.Add(1)
	}))
	defer srv.Close()

	creds := credential.Static("")
	whisper, err := openai.NewProvider(openai.Config{BaseURL: srv.URL}, creds, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	norm := &fakeNormalizer{size: mib}
	rec := &recorder{}
	s := NewSession(Options{
		Credentials: creds,
		Normalizer:  norm,
		Splitter:    byteSplitter{dir: t.TempDir()},
		Transcriber: whisper,
		Logger:      logger.Nop(),
		Observer:    rec.observe,
	})

	_, err = s.Run(context.Background(), "a.wav")
	if !errors.HasCode(err, errors.ErrCodeCredentialMissing) {
		t.Fatalf("expected CREDENTIAL_MISSING, got %v", err)
	}
	if requests.Load() != 0 || norm.calls.Load() != 0 {
		t.Errorf("expected no work, got %d requests and %d normalizations", requests.Load(), norm.calls.Load())
	}
	if st := s.State(); st.Phase != PhaseCredentialRequired {
		t.Errorf("expected credential_required, got %s", st.Phase)
	}
}

func TestMerge_OrdersByChunkIndex(t *testing.T) {
	segs := []transcription.Segment{
		{ChunkIndex: 2, Text: " third "},
		{ChunkIndex: 0, Text: "first", Language: "es"},
		{ChunkIndex: 1, Text: "  "},
		{ChunkIndex: 3, Text: "fourth"},
	}
	text, lang := Merge(segs)
	if text != "first third fourth" || lang != "es" {
		t.Errorf("Merge = %q, %q", text, lang)
	}
	if segs[0].ChunkIndex != 2 {
		t.Error("Merge must not reorder its input")
	}
}

func TestRun_Busy(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	tr := &fakeTranscriber{fn: func(context.Context, int, transcription.Request) (*transcription.Response, error) {
		close(started)
		<-release
		return &transcription.Response{Text: "x"}, nil
	}}
	s := newTestSession(t, mib, tr, &recorder{})

	done := make(chan error, 1)
	go func() {
		_, err := s.Run(context.Background(), "a.wav")
		done <- err
	}()
	<-started
	if !s.Active() {
		t.Error("expected active session")
	}
	if _, err := s.Run(context.Background(), "b.wav"); !errors.HasCode(err, errors.ErrCodeConflict) {
		t.Errorf("expected busy conflict, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}
}

func TestRun_CancelStopsFurtherCalls(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tr := &fakeTranscriber{}
	tr.fn = func(context.Context, int, transcription.Request) (*transcription.Response, error) {
		cancel()
		return &transcription.Response{Text: "late result"}, nil
	}
	rec := &recorder{}
	s := newTestSession(t, 50*mib, tr, rec)

	got, err := s.Run(ctx, "a.wav")
	if got != nil {
		t.Error("in-flight result must be discarded")
	}
	if !errors.HasCode(err, errors.ErrCodeCancelled) {
		t.Fatalf("expected CANCELLED, got %v", err)
	}
	if n := len(tr.calls()); n != 1 {
		t.Errorf("expected one call, got %d", n)
	}
	if rec.last().Phase != PhaseFailed {
		t.Errorf("expected failed, got %s", rec.last().Phase)
	}
}

func TestRun_CallTimeoutIsServiceErrorAndRetried(t *testing.T) {
	tr := &fakeTranscriber{fn: func(ctx context.Context, _ int, _ transcription.Request) (*transcription.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	s := newTestSession(t, mib, tr, &recorder{})
	s.opts.CallTimeout = 20 * time.Millisecond
	s.retry.MaxAttempts = 2
	s.retry.InitialBackoff = time.Millisecond

	_, err := s.Run(context.Background(), "a.wav")
	if !errors.HasCode(err, errors.ErrCodeServiceError) {
		t.Fatalf("expected SERVICE_ERROR, got %v", err)
	}
	if n := len(tr.calls()); n != 2 {
		t.Errorf("expected 2 attempts, got %d", n)
	}
}

func TestRun_RetryOnlyServiceErrors(t *testing.T) {
	tr := &fakeTranscriber{fn: func(_ context.Context, call int, _ transcription.Request) (*transcription.Response, error) {
		if call == 1 {
			return nil, errors.ServiceError("transcription", nil)
		}
		return nil, errors.UnsupportedMedia("invalid file format")
	}}
	s := NewSession(Options{
		Credentials: credential.Static("sk"),
		Normalizer:  &fakeNormalizer{size: mib},
		Splitter:    byteSplitter{dir: t.TempDir()},
		Transcriber: tr,
		Retry:       resilience.RetryConfig{MaxAttempts: 5, InitialBackoff: time.Millisecond},
		Logger:      logger.Nop(),
	})

	_, err := s.Run(context.Background(), "a.wav")
	if !errors.HasCode(err, errors.ErrCodeUnsupportedMedia) {
		t.Fatalf("expected UNSUPPORTED_MEDIA, got %v", err)
	}
	if n := len(tr.calls()); n != 2 {
		t.Errorf("expected retry to stop at the non-transient error, got %d calls", n)
	}
}

func TestRun_NormalizerErrorUnmodified(t *testing.T) {
	want := errors.SourceUnavailable("a.wav", os.ErrNotExist)
	s := NewSession(Options{
		Credentials: credential.Static("sk"),
		Normalizer:  &fakeNormalizer{err: want},
		Splitter:    byteSplitter{dir: t.TempDir()},
		Transcriber: &fakeTranscriber{},
		Logger:      logger.Nop(),
	})
	_, err := s.Run(context.Background(), "a.wav")
	if err != want {
		t.Fatalf("expected the normalizer error itself, got %v", err)
	}
	if st := s.State(); st.Phase != PhaseFailed || st.Progress != progressNormalizing {
		t.Errorf("unexpected state %+v", st)
	}
}

// fileNormalizer writes a converted file into dir.
type fileNormalizer struct {
	dir  string
	size int64
}

func (f fileNormalizer) Normalize(_ context.Context, in media.Handle) (media.Normalized, error) {
	p := filepath.Join(f.dir, "converted-"+filepath.Base(string(in)))
	if err := os.WriteFile(p, []byte("\xff\xfb"), 0o644); err != nil {
		return media.Normalized{}, err
	}
	return media.Normalized{Handle: media.Handle(p), SizeBytes: f.size}, nil
}

type failingSplitter struct{ err error }

func (f failingSplitter) Split(context.Context, media.Normalized, int64) ([]chunk.Chunk, error) {
	return nil, f.err
}

type failingLabeler struct{}

func (failingLabeler) Name() string                     { return "failing" }
func (failingLabeler) IsAvailable(context.Context) bool { return true }
func (failingLabeler) Label(context.Context, string) (diarization.DiarizedTranscript, error) {
	return diarization.DiarizedTranscript{}, fmt.Errorf("labeler crashed")
}

func cacheEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRun_RemovesPipelineFiles(t *testing.T) {
	input := filepath.Join(t.TempDir(), "meeting.m4a")
	if err := os.WriteFile(input, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("complete", func(t *testing.T) {
		cache := t.TempDir()
		s := NewSession(Options{
			Credentials:  credential.Static("sk"),
			Normalizer:   fileNormalizer{dir: cache, size: 50 * mib},
			Splitter:     byteSplitter{dir: cache},
			Transcriber:  &fakeTranscriber{},
			CacheDir:     cache,
			MaxChunkSize: 24 * mib,
			Logger:       logger.Nop(),
		})
		if _, err := s.Run(context.Background(), media.Handle(input)); err != nil {
			t.Fatal(err)
		}
		if left := cacheEntries(t, cache); len(left) != 0 {
			t.Errorf("expected an empty cache after the run, found %v", left)
		}
	})

	t.Run("failed", func(t *testing.T) {
		cache := t.TempDir()
		tr := &fakeTranscriber{fn: func(_ context.Context, call int, _ transcription.Request) (*transcription.Response, error) {
			if call == 2 {
				return nil, errors.Unauthorized("bad key")
			}
			return &transcription.Response{Text: "x"}, nil
		}}
		s := NewSession(Options{
			Credentials:  credential.Static("sk"),
			Normalizer:   fileNormalizer{dir: cache, size: 50 * mib},
			Splitter:     byteSplitter{dir: cache},
			Transcriber:  tr,
			CacheDir:     cache,
			MaxChunkSize: 24 * mib,
			Logger:       logger.Nop(),
		})
		if _, err := s.Run(context.Background(), media.Handle(input)); err == nil {
			t.Fatal("expected failure")
		}
		if left := cacheEntries(t, cache); len(left) != 0 {
			t.Errorf("expected an empty cache after the failed run, found %v", left)
		}
	})

	if _, err := os.Stat(input); err != nil {
		t.Errorf("input must survive: %v", err)
	}
}

func TestRun_SplitterErrorUnmodified(t *testing.T) {
	want := errors.ChunkingFailed("a single frame exceeds the chunk size limit", nil)
	rec := &recorder{}
	tr := &fakeTranscriber{}
	s := NewSession(Options{
		Credentials: credential.Static("sk"),
		Normalizer:  &fakeNormalizer{size: mib},
		Splitter:    failingSplitter{err: want},
		Transcriber: tr,
		Logger:      logger.Nop(),
		Observer:    rec.observe,
	})
	_, err := s.Run(context.Background(), "a.wav")
	if err != want {
		t.Fatalf("expected the splitter error itself, got %v", err)
	}
	final := rec.last()
	if final.Phase != PhaseFailed || final.Progress != progressChunking || final.ErrorCode() != errors.ErrCodeChunkingFailed {
		t.Errorf("unexpected final state %+v", final)
	}
	if len(tr.calls()) != 0 {
		t.Error("no chunk may be transcribed after a chunking failure")
	}
}

func TestRun_LabelerErrorIsDiarizationFailed(t *testing.T) {
	rec := &recorder{}
	s := newTestSession(t, mib, &fakeTranscriber{}, rec)
	s.opts.Labeler = failingLabeler{}

	got, err := s.Run(context.Background(), "a.wav")
	if got != nil {
		t.Errorf("expected no transcript, got %+v", got)
	}
	if !errors.HasCode(err, errors.ErrCodeDiarizationFailed) {
		t.Fatalf("expected DIARIZATION_FAILED, got %v", err)
	}
	final := rec.last()
	if final.Phase != PhaseFailed || final.Progress != progressDiarizing {
		t.Errorf("unexpected final state %+v", final)
	}
	for _, st := range rec.states {
		if st.Phase == PhaseComplete {
			t.Fatal("complete must not be emitted after a labeling failure")
		}
	}
}

func TestRun_ClearsCacheKeepingInput(t *testing.T) {
	cache := t.TempDir()
	stale := filepath.Join(cache, "chunk-old-0.mp3")
	input := filepath.Join(cache, "download-abc.mp3")
	for _, p := range []string{stale, input} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	s := newTestSession(t, mib, &fakeTranscriber{}, &recorder{})
	s.opts.CacheDir = cache
	if _, err := s.Run(context.Background(), media.Handle(input)); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale cache entry should be removed")
	}
	if _, err := os.Stat(input); err != nil {
		t.Errorf("input must survive cache clearing: %v", err)
	}
}

func TestRunSelection(t *testing.T) {
	tr := &fakeTranscriber{}
	s := newTestSession(t, mib, tr, &recorder{})

	got, err := s.RunSelection(context.Background(), "", fmt.Errorf("picker: %w", ErrSelectionCancelled))
	if got != nil || err != nil {
		t.Fatalf("cancelled selection = %v, %v", got, err)
	}
	if len(tr.calls()) != 0 || s.State().Phase != PhaseIdle {
		t.Error("cancelled selection must not start a run")
	}
	if _, err := s.RunSelection(context.Background(), "a.wav", nil); err != nil {
		t.Fatalf("RunSelection: %v", err)
	}
}

type captureBroadcaster struct {
	mu     sync.Mutex
	events []sse.Event
}

func (c *captureBroadcaster) Publish(pattern string, e sse.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pattern == sse.JobPattern("job-1") {
		c.events = append(c.events, e)
	}
}

func TestSSEObserver(t *testing.T) {
	b := &captureBroadcaster{}
	s := newTestSession(t, mib, &fakeTranscriber{}, &recorder{})
	s.opts.Observer = SSEObserver(b, "job-1")
	if _, err := s.Run(context.Background(), "a.wav"); err != nil {
		t.Fatal(err)
	}
	last := b.events[len(b.events)-1]
	if last.Type != sse.EventTypeComplete {
		t.Fatalf("expected complete event last, got %s", last.Type)
	}
	if p, ok := last.Data.(CompletePayload); !ok || p.Labeled != "Speaker 1: text chunk-0.mp3" {
		t.Errorf("unexpected payload %+v", last.Data)
	}

	b.events = nil
	s.opts.Credentials = credential.Static("")
	_, _ = s.Run(context.Background(), "a.wav")
	last = b.events[len(b.events)-1]
	p, ok := last.Data.(ErrorPayload)
	if last.Type != sse.EventTypeError || !ok || p.Error.Code != errors.ErrCodeCredentialMissing {
		t.Errorf("unexpected event %+v", last)
	}
	frame, err := last.Encode()
	if err != nil || !strings.Contains(string(frame), `"phase":"credential_required"`) {
		t.Errorf("unexpected frame %s (%v)", frame, err)
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseTranscribing.String() != "transcribing" || Phase(99).String() != "unknown" {
		t.Error("unexpected phase names")
	}
	if !PhaseCredentialRequired.Terminal() || PhaseDiarizing.Terminal() {
		t.Error("unexpected terminal phases")
	}
}
