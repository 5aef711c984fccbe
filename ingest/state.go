package ingest

import (
	"github.com/kbukum/audioscribe/diarization"
	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/transcription"
)

// Phase is the step a run is in.
type Phase int

// Phases in the order a successful run visits them. PhaseFailed and
// PhaseCredentialRequired end a run early.
const (
	PhaseIdle Phase = iota
	PhaseCredentialRequired
	PhaseConverting
	PhaseChunking
	PhaseTranscribing
	PhaseDiarizing
	PhaseComplete
	PhaseFailed
)

var phaseNames = [...]string{
	PhaseIdle:               "idle",
	PhaseCredentialRequired: "credential_required",
	PhaseConverting:         "converting",
	PhaseChunking:           "chunking",
	PhaseTranscribing:       "transcribing",
	PhaseDiarizing:          "diarizing",
	PhaseComplete:           "complete",
	PhaseFailed:             "failed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// MarshalText renders the phase name in JSON payloads.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a phase name written by MarshalText.
func (p *Phase) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if name == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return errors.InvalidInput("phase", "unknown phase "+string(b))
}

// Terminal reports whether a run ends in this phase.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseFailed || p == PhaseCredentialRequired
}

// Progress milestones.
const (
	progressConverting     = 10
	progressNormalizing    = 20
	progressChunking       = 30
	progressTranscribeSpan = 40
	progressDiarizing      = 80
	progressComplete       = 100
)

// State is a snapshot of a run.
type State struct {
	Phase        Phase   `json:"phase"`
	Progress     float64 `json:"progress"`
	CurrentChunk *int    `json:"current_chunk,omitempty"`
	Chunks       int     `json:"chunks,omitempty"`
	Status       string  `json:"status"`

	// Err is set in PhaseFailed and PhaseCredentialRequired.
	Err error `json:"-"`
	// Result is set in PhaseComplete.
	Result *Transcript `json:"-"`
}

// ErrorCode returns the code of Err, or "" when there is none.
func (s State) ErrorCode() errors.ErrorCode {
	if s.Err == nil {
		return ""
	}
	return errors.CodeOf(s.Err)
}

// Observer receives every state change of a run, in order, on the
// goroutine executing Run.
type Observer func(State)

// Transcript is the result of a successful run.
type Transcript struct {
	Text             string                         `json:"text"`
	DetectedLanguage string                         `json:"detected_language,omitempty"`
	Segments         []transcription.Segment        `json:"segments"`
	Diarized         diarization.DiarizedTranscript `json:"diarized"`
}

// Labeled returns the speaker-labelled rendering of the transcript.
func (t *Transcript) Labeled() string {
	if t == nil {
		return ""
	}
	if t.Diarized.Empty() {
		return t.Text
	}
	return t.Diarized.String()
}
