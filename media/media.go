package media

import (
	"context"
	"os"

	"github.com/kbukum/audioscribe/errors"
)

// Handle references a media file on local storage.
type Handle string

// String returns the path.
func (h Handle) String() string { return string(h) }

// Normalized is a converted media file ready for chunking.
type Normalized struct {
	Handle    Handle
	SizeBytes int64
}

// Normalizer converts arbitrary input media to mono 16 kHz MP3.
type Normalizer interface {
	Normalize(ctx context.Context, input Handle) (Normalized, error)
}

// Stat returns the size of the file at h, or SOURCE_UNAVAILABLE.
func Stat(h Handle) (int64, error) {
	info, err := os.Stat(string(h))
	if err != nil {
		return 0, errors.SourceUnavailable(string(h), err)
	}
	if info.IsDir() {
		return 0, errors.SourceUnavailable(string(h), nil).WithDetail("reason", "is a directory")
	}
	return info.Size(), nil
}
