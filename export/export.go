// Package export persists finished transcripts as dated text files through
// a storage backend (local directory or S3).
package export

import (
	"context"
	"strings"
	"time"

	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/logger"
	"github.com/kbukum/audioscribe/storage"
)

// File name prefixes.
const (
	PrefixTranscription     = "transcription"
	PrefixLiveTranscription = "live-transcription"
	PrefixSummary           = "summary"
)

// FileName returns "<prefix>-YYYY-MM-DD.txt" for t.
func FileName(prefix string, t time.Time) string {
	return prefix + "-" + t.Format(time.DateOnly) + ".txt"
}

// Exporter writes transcripts to a Storage.
type Exporter struct {
	store storage.Storage
	log   *logger.Logger
}

// New creates an Exporter on store.
func New(store storage.Storage, log *logger.Logger) *Exporter {
	if log == nil {
		log = logger.Get("export")
	}
	return &Exporter{store: store, log: log.WithComponent("export")}
}

// Save stores text under name, replacing any existing object, and returns
// the object's URL.
func (e *Exporter) Save(ctx context.Context, name, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.InvalidInput("text", "nothing to export")
	}
	if err := e.store.Upload(ctx, name, strings.NewReader(text)); err != nil {
		return "", errors.Internal(err).WithDetail("path", name)
	}
	url, err := e.store.URL(ctx, name)
	if err != nil {
		return "", errors.Internal(err).WithDetail("path", name)
	}
	e.log.Info("transcript exported", logger.Fields(logger.FieldPath, name, logger.FieldSize, len(text)))
	return url, nil
}

// SaveDated stores text as FileName(prefix, now).
func (e *Exporter) SaveDated(ctx context.Context, prefix string, now time.Time, text string) (string, error) {
	return e.Save(ctx, FileName(prefix, now), text)
}

// List returns the exported transcripts whose name starts with prefix.
func (e *Exporter) List(ctx context.Context, prefix string) ([]storage.FileInfo, error) {
	files, err := e.store.List(ctx, prefix)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return files, nil
}
