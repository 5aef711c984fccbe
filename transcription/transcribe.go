package transcription

import (
	"context"

	"github.com/kbukum/audioscribe/chunk"
)

// Options are the per-run settings applied to every chunk.
type Options struct {
	Language string
	Prompt   string
	Model    string
	Format   string
}

// Transcribe sends one chunk through p and returns its segment.
func Transcribe(ctx context.Context, p Provider, c chunk.Chunk, opts Options) (Segment, error) {
	resp, err := p.Transcribe(ctx, Request{
		AudioPath: string(c.Handle),
		Language:  opts.Language,
		Prompt:    opts.Prompt,
		Model:     opts.Model,
		Format:    opts.Format,
	})
	if err != nil {
		return Segment{ChunkIndex: c.Index}, err
	}
	return Segment{ChunkIndex: c.Index, Text: resp.Text, Language: resp.Language}, nil
}
