package ingest

import (
	"context"
	stderrors "errors"

	"github.com/kbukum/audioscribe/media"
)

// ErrSelectionCancelled reports that the user dismissed the file picker or
// recording prompt. It is not a failure.
var ErrSelectionCancelled = stderrors.New("ingest: selection cancelled")

// IsSelectionCancelled reports whether err is, or wraps, ErrSelectionCancelled.
func IsSelectionCancelled(err error) bool {
	return stderrors.Is(err, ErrSelectionCancelled)
}

// RunSelection runs h when the selection that produced it succeeded.
// A cancelled selection yields (nil, nil) without touching the session
// state; any other selection error is returned as is.
func (s *Session) RunSelection(ctx context.Context, h media.Handle, selectErr error) (*Transcript, error) {
	switch {
	case IsSelectionCancelled(selectErr):
		s.log.Debug("selection cancelled")
		return nil, nil
	case selectErr != nil:
		return nil, selectErr
	}
	return s.Run(ctx, h)
}
