package chunk

import (
	"bufio"
	"context"
	stderrors "errors"
	"io"
	"os"
	"sort"

	"github.com/tcolgate/mp3"

	"github.com/kbukum/audioscribe/errors"
)

// scanFrames returns the byte offset of every MPEG audio frame in the file.
// Bytes before the first frame (ID3 tags) and a truncated trailing frame are
// not frames and are never cut inside.
func scanFrames(ctx context.Context, path string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.ChunkingFailed("cannot open normalized media", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	dec := mp3.NewDecoder(bufio.NewReaderSize(f, 256<<10))
	var (
		frame   mp3.Frame
		skipped int
		pos     int64
		starts  []int64
	)
	for i := 0; ; i++ {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errors.Cancelled("Chunking").WithCause(err)
			}
		}
		err := dec.Decode(&frame, &skipped)
		if err != nil {
			if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, errors.ChunkingFailed("cannot decode frame", err).WithDetail("offset", pos)
		}
		start := pos + int64(skipped)
		starts = append(starts, start)
		pos = start + int64(frame.Size())
	}
	if len(starts) == 0 {
		return nil, errors.ChunkingFailed("no MPEG audio frames found", nil)
	}
	return starts, nil
}

// planCuts picks n-1 cut offsets from starts so that every range between
// consecutive cuts, 0 and size is at most maxBytes. Each cut is the frame
// start nearest its even share k*size/n that still keeps the chunk within
// bounds. It reports false when no such plan exists for n.
func planCuts(starts []int64, size, maxBytes int64, n int) ([]int64, bool) {
	cuts := make([]int64, 0, n-1)
	prev := int64(0)
	for k := 1; k < n; k++ {
		target := int64(k) * size / int64(n)
		cut, ok := nearestStart(starts, target, prev, prev+maxBytes)
		if !ok {
			return nil, false
		}
		cuts = append(cuts, cut)
		prev = cut
	}
	if size-prev > maxBytes {
		return nil, false
	}
	return cuts, true
}

// nearestStart returns the frame start closest to target within (lo, hi].
func nearestStart(starts []int64, target, lo, hi int64) (int64, bool) {
	first := sort.Search(len(starts), func(i int) bool { return starts[i] > lo })
	last := sort.Search(len(starts), func(i int) bool { return starts[i] > hi }) - 1
	if first > last {
		return 0, false
	}
	i := sort.Search(len(starts), func(i int) bool { return starts[i] >= target })
	switch {
	case i <= first:
		return starts[first], true
	case i > last:
		return starts[last], true
	}
	if target-starts[i-1] <= starts[i]-target {
		return starts[i-1], true
	}
	return starts[i], true
}
