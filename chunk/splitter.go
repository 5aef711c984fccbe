package chunk

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/logger"
	"github.com/kbukum/audioscribe/media"
	"github.com/kbukum/audioscribe/util"
)

// FrameSplitter cuts MP3 files on frame boundaries into cacheDir.
type FrameSplitter struct {
	cacheDir string
	log      *logger.Logger
}

// NewFrameSplitter creates a splitter writing chunk files into cacheDir.
func NewFrameSplitter(cacheDir string, log *logger.Logger) *FrameSplitter {
	if log == nil {
		log = logger.Get("chunk")
	}
	return &FrameSplitter{cacheDir: cacheDir, log: log.WithComponent("chunk")}
}

// ChunkPath returns where chunk i of src is written.
func (s *FrameSplitter) ChunkPath(src media.Handle, i int) media.Handle {
	return media.Handle(filepath.Join(s.cacheDir, fmt.Sprintf("chunk-%s-%d.mp3", util.FileBase(string(src)), i)))
}

// Split returns in unchanged as a single chunk when it fits, otherwise
// ceil(size/maxBytes) frame-aligned chunks. If frame sizes make that count
// impossible the count grows until every chunk fits.
func (s *FrameSplitter) Split(ctx context.Context, in media.Normalized, maxBytes int64) ([]Chunk, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxChunkSize
	}
	size, err := media.Stat(in.Handle)
	if err != nil {
		return nil, errors.ChunkingFailed("cannot stat normalized media", err)
	}
	if size == 0 {
		return nil, errors.ChunkingFailed("normalized media is empty", nil)
	}
	if size <= maxBytes {
		return []Chunk{{Index: 0, Handle: in.Handle, SizeBytes: size}}, nil
	}

	starts, err := scanFrames(ctx, string(in.Handle))
	if err != nil {
		return nil, err
	}

	n := Count(size, maxBytes)
	var cuts []int64
	for ; n <= len(starts)+1; n++ {
		var ok bool
		if cuts, ok = planCuts(starts, size, maxBytes, n); ok {
			break
		}
	}
	if cuts == nil {
		return nil, errors.ChunkingFailed("a single frame exceeds the chunk size limit", nil).
			WithDetail("max_bytes", maxBytes)
	}

	log := s.log.WithContext(ctx)
	log.Debug("splitting media", logger.Fields(logger.FieldPath, string(in.Handle), logger.FieldSize, size, logger.FieldChunks, n))

	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		return nil, errors.ChunkingFailed("cannot create cache directory", err)
	}
	src, err := os.Open(string(in.Handle))
	if err != nil {
		return nil, errors.ChunkingFailed("cannot open normalized media", err)
	}
	defer src.Close() //nolint:errcheck // read-only

	bounds := append(append([]int64{0}, cuts...), size)
	chunks := make([]Chunk, 0, n)
	for i := 0; i+1 < len(bounds); i++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Cancelled("Chunking").WithCause(err)
		}
		off, length := bounds[i], bounds[i+1]-bounds[i]
		dst := s.ChunkPath(in.Handle, i)
		if err := copyRange(src, off, length, string(dst)); err != nil {
			return nil, errors.ChunkingFailed(fmt.Sprintf("cannot write chunk %d", i), err)
		}
		chunks = append(chunks, Chunk{Index: i, Handle: dst, SizeBytes: length})
	}

	log.Info("media split", logger.Fields(logger.FieldChunks, len(chunks)))
	return chunks, nil
}

func copyRange(src io.ReaderAt, off, length int64, dst string) error {
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, io.NewSectionReader(src, off, length)); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

var _ Splitter = (*FrameSplitter)(nil)
