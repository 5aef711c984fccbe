package diarization

import (
	"strconv"
	"strings"
)

// Paragraph is one speaker turn.
type Paragraph struct {
	Speaker int    `json:"speaker"`
	Text    string `json:"text"`
}

// Label returns the display label, e.g. "Speaker 2".
func (p Paragraph) Label() string {
	return "Speaker " + strconv.Itoa(p.Speaker)
}

// DiarizedTranscript is a transcript split into speaker-attributed paragraphs.
type DiarizedTranscript struct {
	Paragraphs []Paragraph `json:"paragraphs"`
}

// Empty reports whether the transcript has no paragraphs.
func (d DiarizedTranscript) Empty() bool { return len(d.Paragraphs) == 0 }

// Speakers returns the number of distinct speakers.
func (d DiarizedTranscript) Speakers() int {
	seen := make(map[int]struct{}, 2)
	for _, p := range d.Paragraphs {
		seen[p.Speaker] = struct{}{}
	}
	return len(seen)
}

// String renders each paragraph as "Speaker N: text", separated by blank lines.
func (d DiarizedTranscript) String() string {
	var b strings.Builder
	for i, p := range d.Paragraphs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(p.Label())
		b.WriteString(": ")
		b.WriteString(p.Text)
	}
	return b.String()
}
