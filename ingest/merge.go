package ingest

import (
	"cmp"
	"slices"
	"strings"

	"github.com/kbukum/audioscribe/transcription"
)

// Merge joins segments in ascending chunk order with single spaces,
// dropping empty ones. The detected language is the first one reported.
func Merge(segments []transcription.Segment) (text, language string) {
	ordered := slices.Clone(segments)
	slices.SortStableFunc(ordered, func(a, b transcription.Segment) int {
		return cmp.Compare(a.ChunkIndex, b.ChunkIndex)
	})

	parts := make([]string, 0, len(ordered))
	for _, seg := range ordered {
		if language == "" && seg.Language != "" {
			language = seg.Language
		}
		if seg.Empty() {
			continue
		}
		parts = append(parts, strings.TrimSpace(seg.Text))
	}
	return strings.Join(parts, " "), language
}
