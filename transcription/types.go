package transcription

import "strings"

// Response formats accepted by OpenAI-compatible endpoints.
const (
	FormatJSON        = "json"
	FormatText        = "text"
	FormatVerboseJSON = "verbose_json"
)

// Request holds parameters for a transcription call.
type Request struct {
	// AudioPath is the path to the audio file to transcribe.
	AudioPath string `json:"audio_path"`
	// Language is an ISO-639-1 hint (e.g. "es"). Empty lets the service detect it.
	Language string `json:"language,omitempty"`
	// Prompt guides vocabulary and style.
	Prompt string `json:"prompt,omitempty"`
	// Model overrides the provider's default model.
	Model string `json:"model,omitempty"`
	// Format is the response format: json, text or verbose_json.
	Format string `json:"format,omitempty"`
	// Temperature is the sampling temperature; nil uses the provider default.
	Temperature *float64 `json:"temperature,omitempty"`
}

// Response holds the result of a transcription call.
type Response struct {
	// Text is the full transcription text.
	Text string `json:"text"`
	// Language is the detected language, reported by verbose_json only.
	Language string `json:"language,omitempty"`
	// Duration is the audio duration in seconds, reported by verbose_json only.
	Duration float64 `json:"duration,omitempty"`
	// Timings contains time-aligned portions when the backend returns them.
	Timings []Timing `json:"timings,omitempty"`
}

// Timing is a time-aligned portion of a transcript.
type Timing struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Segment is the text transcribed from one chunk.
type Segment struct {
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
	Language   string `json:"language,omitempty"`
}

// Empty reports whether the segment carries no text.
func (s Segment) Empty() bool {
	return strings.TrimSpace(s.Text) == ""
}
