package diarization

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/provider"
)

// Labeler assigns speakers to transcript text.
type Labeler interface {
	provider.Provider
	Label(ctx context.Context, text string) (DiarizedTranscript, error)
}

// RoundRobinName is the registered name of the RoundRobin labeler.
const RoundRobinName = "round-robin"

// DefaultSpeakers is the number of speakers RoundRobin assumes.
const DefaultSpeakers = 2

// RoundRobin labels non-empty lines with speakers 1..Speakers in turn.
type RoundRobin struct {
	Speakers int
}

// Name returns the labeler name.
func (RoundRobin) Name() string { return RoundRobinName }

// IsAvailable always reports true; the policy needs no backend.
func (RoundRobin) IsAvailable(context.Context) bool { return true }

// Label splits text on newlines, trims each line, drops empty ones and
// labels the rest cyclically starting at speaker 1.
func (r RoundRobin) Label(ctx context.Context, text string) (DiarizedTranscript, error) {
	if err := ctx.Err(); err != nil {
		return DiarizedTranscript{}, errors.Cancelled("Diarization").WithCause(err)
	}
	if !utf8.ValidString(text) {
		return DiarizedTranscript{}, errors.DiarizationFailed(fmt.Errorf("transcript is not valid UTF-8"))
	}
	n := r.Speakers
	if n <= 0 {
		n = DefaultSpeakers
	}

	var out DiarizedTranscript
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out.Paragraphs = append(out.Paragraphs, Paragraph{
			Speaker: len(out.Paragraphs)%n + 1,
			Text:    line,
		})
	}
	return out, nil
}

// LabelSpeakers applies the default two-speaker RoundRobin policy.
func LabelSpeakers(text string) DiarizedTranscript {
	d, _ := RoundRobin{}.Label(context.Background(), strings.ToValidUTF8(text, "\uFFFD"))
	return d
}

// NewRegistry creates a labeler registry with RoundRobin registered.
// The "speakers" config key sets the speaker count.
func NewRegistry() *provider.Registry[Labeler] {
	reg := provider.NewRegistry[Labeler]()
	reg.RegisterFactory(RoundRobinName, func(cfg map[string]any) (Labeler, error) {
		rr := RoundRobin{}
		if v, ok := cfg["speakers"].(int); ok {
			if v < 1 {
				return nil, fmt.Errorf("diarization: speakers must be positive, got %d", v)
			}
			rr.Speakers = v
		}
		return rr, nil
	})
	return reg
}

var _ Labeler = RoundRobin{}
