package transcription

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/kbukum/audioscribe/chunk"
	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/provider"
	"github.com/kbukum/audioscribe/resilience"
)

type stubProvider struct {
	got   Request
	resp  *Response
	err   error
	calls int
}

func (s *stubProvider) Name() string                     { return "stub" }
func (s *stubProvider) IsAvailable(context.Context) bool { return true }
func (s *stubProvider) Transcribe(_ context.Context, req Request) (*Response, error) {
	s.got = req
	s.calls++
	return s.resp, s.err
}

func TestClampTimeout(t *testing.T) {
	tests := map[time.Duration]time.Duration{
		0:                 DefaultCallTimeout,
		-time.Second:      DefaultCallTimeout,
		5 * time.Second:   MinCallTimeout,
		90 * time.Second:  90 * time.Second,
		10 * time.Minute:  MaxCallTimeout,
		120 * time.Second: MaxCallTimeout,
	}
	for in, want := range tests {
		if got := ClampTimeout(in); got != want {
			t.Errorf("ClampTimeout(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestTranscribe_CarriesChunkIndex(t *testing.T) {
	p := &stubProvider{resp: &Response{Text: "hola", Language: "spanish"}}
	seg, err := Transcribe(context.Background(), p, chunk.Chunk{Index: 2, Handle: "/cache/chunk-a-2.mp3"}, Options{Language: "es", Prompt: "names"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seg.ChunkIndex != 2 || seg.Text != "hola" || seg.Language != "spanish" {
		t.Errorf("unexpected segment %+v", seg)
	}
	if p.got.AudioPath != "/cache/chunk-a-2.mp3" || p.got.Language != "es" || p.got.Prompt != "names" {
		t.Errorf("unexpected request %+v", p.got)
	}
}

func TestTranscribe_PassesErrorThrough(t *testing.T) {
	p := &stubProvider{err: errors.Unauthorized("Incorrect API key provided")}
	seg, err := Transcribe(context.Background(), p, chunk.Chunk{Index: 1}, Options{})
	if !errors.HasCode(err, errors.ErrCodeUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
	if seg.ChunkIndex != 1 || !seg.Empty() {
		t.Errorf("unexpected segment %+v", seg)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterFactory("stub", func(map[string]any) (Provider, error) { return &stubProvider{}, nil })
	p, err := reg.Create("stub", nil)
	if err != nil || p.Name() != "stub" {
		t.Fatalf("got %v, %v", p, err)
	}
}

func TestWrap_AppliesMiddlewareInOrder(t *testing.T) {
	p := &stubProvider{resp: &Response{Text: "hola"}}
	var order []string
	mark := func(name string) Middleware {
		return func(inner provider.RequestResponse[Request, *Response]) provider.RequestResponse[Request, *Response] {
			return provider.Func(inner.Name(), func(ctx context.Context, req Request) (*Response, error) {
				order = append(order, name)
				return inner.Execute(ctx, req)
			})
		}
	}

	w := Wrap(p, mark("outer"), mark("inner"))
	resp, err := w.Transcribe(context.Background(), Request{AudioPath: "a.mp3"})
	if err != nil || resp.Text != "hola" {
		t.Fatalf("Transcribe = %+v, %v", resp, err)
	}
	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("unexpected order %v", order)
	}
	if w.Name() != "stub" || p.got.AudioPath != "a.mp3" {
		t.Errorf("expected delegation, got name %q request %+v", w.Name(), p.got)
	}
	if Wrap(p) != Provider(p) {
		t.Error("no middleware should return the provider itself")
	}
}

func TestWrap_BreakerStopsCallsWithoutRetry(t *testing.T) {
	p := &stubProvider{err: errors.ServiceError("transcription", nil)}
	cb := resilience.CircuitBreakerConfig{Name: "transcription", MaxFailures: 1, Timeout: time.Hour}
	w := Wrap(p, provider.WithResilience[Request, *Response](provider.ResilienceConfig{CircuitBreaker: &cb}))

	_, _ = w.Transcribe(context.Background(), Request{})
	_, err := w.Transcribe(context.Background(), Request{})
	if !errors.HasCode(err, errors.ErrCodeServiceError) || !stderrors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if p.calls != 1 {
		t.Errorf("expected a single backend call, got %d", p.calls)
	}
}
