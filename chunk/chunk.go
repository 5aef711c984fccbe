package chunk

import (
	"context"

	"github.com/kbukum/audioscribe/media"
)

// DefaultMaxChunkSize is the upload limit applied when none is given.
const DefaultMaxChunkSize int64 = 24 * 1024 * 1024

// Chunk is one ordered, size-bounded slice of a normalized file.
type Chunk struct {
	Index     int
	Handle    media.Handle
	SizeBytes int64
}

// Splitter partitions normalized media into ordered chunks of at most
// maxBytes each. maxBytes <= 0 means DefaultMaxChunkSize.
type Splitter interface {
	Split(ctx context.Context, in media.Normalized, maxBytes int64) ([]Chunk, error)
}

// Count returns ceil(size/maxBytes), the number of chunks a file of size
// bytes is split into.
func Count(size, maxBytes int64) int {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxChunkSize
	}
	if size <= maxBytes {
		return 1
	}
	return int((size + maxBytes - 1) / maxBytes)
}
