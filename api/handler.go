package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/audioscribe/credential"
	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/export"
	"github.com/kbukum/audioscribe/ingest"
	"github.com/kbukum/audioscribe/logger"
	"github.com/kbukum/audioscribe/media"
	"github.com/kbukum/audioscribe/server"
	"github.com/kbukum/audioscribe/sse"
)

// Translator translates and summarizes finished transcripts.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
	Summarize(ctx context.Context, text string) (string, error)
}

// Fetcher downloads a media URL to a local file.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (media.Handle, error)
}

// Deps wires a Handler. Pipeline.Observer, if set, still receives every
// state change.
type Deps struct {
	Pipeline    ingest.Options
	Hub         *sse.Hub
	Credentials credential.Store
	Translator  Translator
	Fetcher     Fetcher
	Exporter    *export.Exporter
	// UploadDir receives multipart uploads. It must not be the pipeline
	// cache dir, which is cleared on every run. Uploaded and fetched files
	// are deleted when their job ends.
	UploadDir string
	Logger    *logger.Logger
}

// Handler serves the transcription API.
type Handler struct {
	deps    Deps
	session *ingest.Session
	jobs    *jobStore
	log     *logger.Logger
}

// NewHandler builds the handler and its ingest session.
func NewHandler(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = logger.Get("api")
	}
	h := &Handler{
		deps: deps,
		jobs: newJobStore(),
		log:  deps.Logger.WithComponent("api"),
	}
	opts := deps.Pipeline
	opts.Observer = ingest.Observers(opts.Observer, h.observe)
	h.session = ingest.NewSession(opts)
	return h
}

// Session returns the ingest session owned by the handler.
func (h *Handler) Session() *ingest.Session { return h.session }

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRouter) {
	v1 := r.Group("/api/v1")

	t := v1.Group("/transcriptions")
	t.POST("", h.createTranscription)
	t.GET("/:id", h.getTranscription)
	t.GET("/:id/events", h.streamTranscription)
	t.DELETE("/:id", h.cancelTranscription)

	v1.POST("/translate", h.translate)
	v1.POST("/summarize", h.summarize)
	v1.POST("/exports", h.createExport)

	v1.GET("/credential", h.getCredential)
	v1.PUT("/credential", h.putCredential)
	v1.DELETE("/credential", h.deleteCredential)
}

// observe forwards session states to the active job and its SSE clients.
func (h *Handler) observe(st ingest.State) {
	j := h.jobs.current()
	if j == nil {
		return
	}
	j.observe(st)
	if h.deps.Hub != nil {
		ingest.SSEObserver(h.deps.Hub, j.ID)(st)
	}
}

type urlRequest struct {
	URL string `json:"url" validate:"required,mediaurl"`
}

type createdResponse struct {
	ID string `json:"id"`
}

func (h *Handler) createTranscription(c *gin.Context) {
	if h.session.Active() {
		server.RespondWithError(c, ingest.ErrBusy)
		return
	}

	id := uuid.NewString()
	var (
		source   string
		uploaded string
		input    func(ctx context.Context) (media.Handle, error)
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		path, err := h.saveUpload(c, id)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		source, uploaded = filepath.Base(path), path
		input = func(context.Context) (media.Handle, error) { return media.Handle(path), nil }
	} else {
		var req urlRequest
		if !server.BindJSON(c, &req) {
			return
		}
		if h.deps.Fetcher == nil {
			server.RespondWithError(c, errors.InvalidInput("url", "URL ingestion is not enabled"))
			return
		}
		source = req.URL
		input = func(ctx context.Context) (media.Handle, error) { return h.deps.Fetcher.Fetch(ctx, req.URL) }
	}

	ctx, cancel := context.WithCancel(logger.ContextWithJobID(context.Background(), id))
	job := newJob(id, source, cancel)
	if !h.jobs.begin(job) {
		cancel()
		if uploaded != "" {
			h.removeInput(media.Handle(uploaded))
		}
		server.RespondWithError(c, ingest.ErrBusy)
		return
	}

	go h.runJob(ctx, job, input)
	h.log.Info("transcription job accepted", logger.Fields(logger.FieldJobID, id, "source", source))
	server.RespondAccepted(c, createdResponse{ID: id})
}

func (h *Handler) runJob(ctx context.Context, j *Job, input func(context.Context) (media.Handle, error)) {
	defer j.cancel()

	handle, err := input(ctx)
	if err != nil {
		j.finish(nil, err)
		if h.deps.Hub != nil {
			ingest.SSEObserver(h.deps.Hub, j.ID)(j.State())
		}
		return
	}
	defer h.removeInput(handle)
	t, err := h.session.Run(ctx, handle)
	j.finish(t, err)
}

// removeInput deletes an uploaded or downloaded file once its job ends.
func (h *Handler) removeInput(handle media.Handle) {
	if err := os.Remove(string(handle)); err != nil && !os.IsNotExist(err) {
		h.log.Warn("cannot remove job input", logger.Fields(logger.FieldPath, string(handle), logger.FieldError, err.Error()))
	}
}

func (h *Handler) saveUpload(c *gin.Context, id string) (string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return "", errors.InvalidInput("file", "multipart field \"file\" is required")
	}
	if err := os.MkdirAll(h.deps.UploadDir, 0o755); err != nil {
		return "", errors.Internal(err)
	}
	name := "upload-" + id + strings.ToLower(filepath.Ext(fh.Filename))
	dst := filepath.Join(h.deps.UploadDir, name)
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return "", errors.Internal(fmt.Errorf("saving upload: %w", err))
	}
	return dst, nil
}

func (h *Handler) job(c *gin.Context) (*Job, bool) {
	j, ok := h.jobs.get(c.Param("id"))
	if !ok {
		server.RespondWithError(c, errors.NotFound("transcription", c.Param("id")))
	}
	return j, ok
}

func (h *Handler) getTranscription(c *gin.Context) {
	if j, ok := h.job(c); ok {
		server.RespondOK(c, j.View())
	}
}

func (h *Handler) cancelTranscription(c *gin.Context) {
	j, ok := h.job(c)
	if !ok {
		return
	}
	if j.Running() {
		j.cancel()
		h.log.Info("transcription job cancelled", logger.Fields(logger.FieldJobID, j.ID))
	}
	server.RespondNoContent(c)
}

// frameCollector captures the frames an observer would publish.
type frameCollector struct {
	frames [][]byte
}

func (f *frameCollector) Publish(_ string, e sse.Event) {
	if frame, err := e.Encode(); err == nil {
		f.frames = append(f.frames, frame)
	}
}

func (h *Handler) streamTranscription(c *gin.Context) {
	j, ok := h.job(c)
	if !ok {
		return
	}
	if h.deps.Hub == nil {
		server.RespondWithError(c, errors.NotFound("event stream", j.ID))
		return
	}

	var replay frameCollector
	ingest.SSEObserver(&replay, j.ID)(j.State())
	sse.ServeSSE(h.deps.Hub, c.Writer, c.Request,
		sse.JobClientID(j.ID, uuid.NewString()),
		sse.WithReplay(replay.frames...),
		sse.UntilTerminal(),
	)
}

type translateRequest struct {
	Text           string `json:"text" validate:"required"`
	TargetLanguage string `json:"target_language" validate:"required"`
}

type textResponse struct {
	Text string `json:"text"`
}

func (h *Handler) translate(c *gin.Context) {
	var req translateRequest
	if !server.BindJSON(c, &req) {
		return
	}
	out, err := h.deps.Translator.Translate(c.Request.Context(), req.Text, req.TargetLanguage)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, textResponse{Text: out})
}

type summarizeRequest struct {
	Text string `json:"text" validate:"required"`
}

func (h *Handler) summarize(c *gin.Context) {
	var req summarizeRequest
	if !server.BindJSON(c, &req) {
		return
	}
	out, err := h.deps.Translator.Summarize(c.Request.Context(), req.Text)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, textResponse{Text: out})
}

type exportRequest struct {
	Text string `json:"text" validate:"required"`
	Kind string `json:"kind" validate:"omitempty,oneof=transcription live-transcription summary"`
}

type exportResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (h *Handler) createExport(c *gin.Context) {
	if h.deps.Exporter == nil {
		server.RespondWithError(c, errors.NotFound("export backend", "default"))
		return
	}
	var req exportRequest
	if !server.BindJSON(c, &req) {
		return
	}
	if req.Kind == "" {
		req.Kind = export.PrefixTranscription
	}
	name := export.FileName(req.Kind, time.Now())
	url, err := h.deps.Exporter.Save(c.Request.Context(), name, req.Text)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, server.DataResponse{Data: exportResponse{Name: name, URL: url}})
}

type credentialStatus struct {
	Configured bool   `json:"configured"`
	Reason     string `json:"reason,omitempty"`
}

func (h *Handler) getCredential(c *gin.Context) {
	_, err := h.deps.Credentials.Get(c.Request.Context())
	switch {
	case err == nil:
		server.RespondOK(c, credentialStatus{Configured: true})
	case credential.IsMissing(err):
		server.RespondOK(c, credentialStatus{Reason: errors.From(err).Message})
	default:
		server.RespondWithError(c, err)
	}
}

type credentialRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}

func (h *Handler) putCredential(c *gin.Context) {
	var req credentialRequest
	if !server.BindJSON(c, &req) {
		return
	}
	if err := h.deps.Credentials.Set(c.Request.Context(), req.APIKey); err != nil {
		server.RespondWithError(c, err)
		return
	}
	h.log.Info("api key updated")
	server.RespondNoContent(c)
}

func (h *Handler) deleteCredential(c *gin.Context) {
	if err := h.deps.Credentials.Remove(c.Request.Context()); err != nil {
		server.RespondWithError(c, err)
		return
	}
	h.log.Info("api key removed")
	server.RespondNoContent(c)
}
