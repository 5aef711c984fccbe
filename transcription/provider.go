package transcription

import (
	"context"
	"time"

	"github.com/kbukum/audioscribe/provider"
)

// Provider is the interface that transcription backends must implement.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Transcribe sends one audio file for transcription. It performs a
	// single network call and never retries.
	Transcribe(ctx context.Context, req Request) (*Response, error)
}

// Per-call timeout bounds for one transcription request.
const (
	// DefaultCallTimeout applies when no timeout is configured.
	DefaultCallTimeout = 60 * time.Second
	// MinCallTimeout is the shortest timeout ClampTimeout allows.
	MinCallTimeout = 30 * time.Second
	// MaxCallTimeout is the longest timeout ClampTimeout allows.
	MaxCallTimeout = 120 * time.Second
)

// ClampTimeout returns d bounded to [MinCallTimeout, MaxCallTimeout].
// Zero or negative means DefaultCallTimeout.
func ClampTimeout(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultCallTimeout
	case d < MinCallTimeout:
		return MinCallTimeout
	case d > MaxCallTimeout:
		return MaxCallTimeout
	}
	return d
}
