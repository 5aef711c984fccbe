package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/audioscribe/chunk"
	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/ingest"
	"github.com/kbukum/audioscribe/logger"
	"github.com/kbukum/audioscribe/media"
	"github.com/kbukum/audioscribe/sse"
	"github.com/kbukum/audioscribe/transcription"
)

type passNormalizer struct{}

func (passNormalizer) Normalize(_ context.Context, in media.Handle) (media.Normalized, error) {
	return media.Normalized{Handle: in, SizeBytes: 1024}, nil
}

type singleSplitter struct{}

func (singleSplitter) Split(_ context.Context, in media.Normalized, _ int64) ([]chunk.Chunk, error) {
	return []chunk.Chunk{{Index: 0, Handle: in.Handle, SizeBytes: in.SizeBytes}}, nil
}

// gateTranscriber blocks every call until release is closed.
type gateTranscriber struct {
	release chan struct{}
}

func (g *gateTranscriber) Name() string                     { return "gate" }
func (g *gateTranscriber) IsAvailable(context.Context) bool { return true }

func (g *gateTranscriber) Transcribe(ctx context.Context, _ transcription.Request) (*transcription.Response, error) {
	select {
	case <-g.release:
		return &transcription.Response{Text: "hola mundo", Language: "es"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type memStore struct {
	mu  sync.Mutex
	key string
}

func (m *memStore) Get(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.key == "" {
		return "", errors.CredentialMissing()
	}
	return m.key, nil
}

func (m *memStore) Set(_ context.Context, key string) error {
	m.mu.Lock()
	m.key = key
	m.mu.Unlock()
	return nil
}

func (m *memStore) Remove(context.Context) error {
	m.mu.Lock()
	m.key = ""
	m.mu.Unlock()
	return nil
}

type echoTranslator struct{}

func (echoTranslator) Translate(_ context.Context, text, target string) (string, error) {
	return target + ":" + text, nil
}

func (echoTranslator) Summarize(_ context.Context, text string) (string, error) {
	return "summary of " + text, nil
}

type testAPI struct {
	router *gin.Engine
	gate    *gateTranscriber
	creds   *memStore
	uploads string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := sse.NewHub(logger.Nop())
	go hub.Run()
	t.Cleanup(hub.Stop)

	gate := &gateTranscriber{release: make(chan struct{})}
	creds := &memStore{key: "sk-test"}
	uploads := t.TempDir()
	h := NewHandler(Deps{
		Pipeline: ingest.Options{
			Credentials: creds,
			Normalizer:  passNormalizer{},
			Splitter:    singleSplitter{},
			Transcriber: gate,
			CacheDir:    filepath.Join(t.TempDir(), "cache"),
			Logger:      logger.Nop(),
		},
		Hub:         hub,
		Credentials: creds,
		Translator:  echoTranslator{},
		UploadDir:   uploads,
		Logger:      logger.Nop(),
	})
	r := gin.New()
	h.Register(r)
	return &testAPI{router: r, gate: gate, creds: creds, uploads: uploads}
}

func (a *testAPI) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func (a *testAPI) upload(t *testing.T) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "interview.MP3")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = fw.Write([]byte("\xff\xfb audio"))
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcriptions", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.do(req)
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeData[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return env.Data
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) errors.ErrorCode {
	t.Helper()
	var resp errors.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error %q: %v", rr.Body.String(), err)
	}
	return resp.Error.Code
}

func (a *testAPI) waitPhase(t *testing.T, id string, want ingest.Phase) JobView {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		rr := a.do(httptest.NewRequest(http.MethodGet, "/api/v1/transcriptions/"+id, http.NoBody))
		if rr.Code != http.StatusOK {
			t.Fatalf("get job: %d %s", rr.Code, rr.Body.String())
		}
		v := decodeData[JobView](t, rr)
		if v.Phase == want {
			return v
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s stuck in %s, want %s", id, v.Phase, want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCreateTranscription_UploadRunsToCompletion(t *testing.T) {
	a := newTestAPI(t)

	rr := a.upload(t)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rr.Code, rr.Body.String())
	}
	id := decodeData[createdResponse](t, rr).ID
	if id == "" {
		t.Fatal("expected job id")
	}

	a.waitPhase(t, id, ingest.PhaseTranscribing)
	if rr := a.upload(t); rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 while busy, got %d", rr.Code)
	}

	close(a.gate.release)
	v := a.waitPhase(t, id, ingest.PhaseComplete)
	if v.Progress != 100 {
		t.Errorf("expected progress 100, got %v", v.Progress)
	}
	if v.Transcript == nil || v.Transcript.Text != "hola mundo" {
		t.Fatalf("unexpected transcript %+v", v.Transcript)
	}
	if !strings.HasPrefix(v.Labeled, "Speaker 1:") {
		t.Errorf("expected labeled transcript, got %q", v.Labeled)
	}
	if !strings.HasSuffix(v.Source, ".mp3") {
		t.Errorf("expected lower-cased extension in source, got %q", v.Source)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		entries, err := os.ReadDir(a.uploads)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("upload %s not removed after the job ended", entries[0].Name())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCreateTranscription_MissingFile(t *testing.T) {
	a := newTestAPI(t)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("other", "x")
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcriptions", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rr := a.do(req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if code := errorCode(t, rr); code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", code)
	}
}

func TestCreateTranscription_URLWithoutFetcher(t *testing.T) {
	a := newTestAPI(t)
	rr := a.do(jsonRequest(http.MethodPost, "/api/v1/transcriptions", `{"url":"https://example.com/a.mp3"}`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = a.do(jsonRequest(http.MethodPost, "/api/v1/transcriptions", `{"url":"ftp://example.com/a.mp3"}`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad scheme, got %d", rr.Code)
	}
}

func TestCancelTranscription(t *testing.T) {
	a := newTestAPI(t)
	id := decodeData[createdResponse](t, a.upload(t)).ID
	a.waitPhase(t, id, ingest.PhaseTranscribing)

	rr := a.do(httptest.NewRequest(http.MethodDelete, "/api/v1/transcriptions/"+id, http.NoBody))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	v := a.waitPhase(t, id, ingest.PhaseFailed)
	if v.Error == nil || v.Error.Code != errors.ErrCodeCancelled {
		t.Fatalf("expected CANCELLED, got %+v", v.Error)
	}

	// A new job can start once the cancelled one finished.
	if rr := a.upload(t); rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202 after cancel, got %d", rr.Code)
	}
}

func TestGetTranscription_NotFound(t *testing.T) {
	a := newTestAPI(t)
	rr := a.do(httptest.NewRequest(http.MethodGet, "/api/v1/transcriptions/nope", http.NoBody))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if code := errorCode(t, rr); code != errors.ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", code)
	}
}

func TestStreamTranscription_ReplaysTerminalState(t *testing.T) {
	a := newTestAPI(t)
	id := decodeData[createdResponse](t, a.upload(t)).ID
	close(a.gate.release)
	a.waitPhase(t, id, ingest.PhaseComplete)

	rr := a.do(httptest.NewRequest(http.MethodGet, "/api/v1/transcriptions/"+id+"/events", http.NoBody))
	body := rr.Body.String()
	if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("unexpected content type %q", ct)
	}
	for _, want := range []string{"event: " + sse.EventTypeConnected, "event: " + sse.EventTypeProgress, "event: " + sse.EventTypeComplete, "hola mundo"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in stream:\n%s", want, body)
		}
	}
}

func TestTranslateAndSummarize(t *testing.T) {
	a := newTestAPI(t)

	rr := a.do(jsonRequest(http.MethodPost, "/api/v1/translate", `{"text":"hola","target_language":"russian"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := decodeData[textResponse](t, rr).Text; got != "russian:hola" {
		t.Errorf("unexpected translation %q", got)
	}

	rr = a.do(jsonRequest(http.MethodPost, "/api/v1/translate", `{"target_language":"russian"}`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing text, got %d", rr.Code)
	}

	rr = a.do(jsonRequest(http.MethodPost, "/api/v1/summarize", `{"text":"long talk"}`))
	if got := decodeData[textResponse](t, rr).Text; got != "summary of long talk" {
		t.Errorf("unexpected summary %q", got)
	}
}

func TestCredentialEndpoints(t *testing.T) {
	a := newTestAPI(t)

	rr := a.do(httptest.NewRequest(http.MethodDelete, "/api/v1/credential", http.NoBody))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	rr = a.do(httptest.NewRequest(http.MethodGet, "/api/v1/credential", http.NoBody))
	if st := decodeData[credentialStatus](t, rr); st.Configured || st.Reason == "" {
		t.Errorf("expected unconfigured with reason, got %+v", st)
	}

	rr = a.do(jsonRequest(http.MethodPut, "/api/v1/credential", `{"api_key":"sk-new"}`))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}
	rr = a.do(httptest.NewRequest(http.MethodGet, "/api/v1/credential", http.NoBody))
	if st := decodeData[credentialStatus](t, rr); !st.Configured {
		t.Errorf("expected configured, got %+v", st)
	}
	if rr := a.do(jsonRequest(http.MethodPut, "/api/v1/credential", `{}`)); rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty key, got %d", rr.Code)
	}
}

func TestCreateTranscription_CredentialMissing(t *testing.T) {
	a := newTestAPI(t)
	_ = a.creds.Remove(context.Background())

	id := decodeData[createdResponse](t, a.upload(t)).ID
	v := a.waitPhase(t, id, ingest.PhaseCredentialRequired)
	if v.Error == nil || v.Error.Code != errors.ErrCodeCredentialMissing {
		t.Fatalf("expected CREDENTIAL_MISSING, got %+v", v.Error)
	}
}
