package ingest

import (
	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/sse"
)

// ErrorPayload is the data of an error event.
type ErrorPayload struct {
	Phase  Phase            `json:"phase"`
	Status string           `json:"status"`
	Error  errors.ErrorBody `json:"error"`
}

// CompletePayload is the data of a complete event.
type CompletePayload struct {
	Transcript *Transcript `json:"transcript"`
	Labeled    string      `json:"labeled"`
}

// SSEObserver publishes every state of a run to the clients of jobID:
// progress events while running, then one complete or error event.
func SSEObserver(b sse.Broadcaster, jobID string) Observer {
	pattern := sse.JobPattern(jobID)
	return func(st State) {
		switch {
		case st.Phase == PhaseComplete:
			b.Publish(pattern, sse.Event{Type: sse.EventTypeProgress, Data: st})
			b.Publish(pattern, sse.Event{Type: sse.EventTypeComplete, Data: CompletePayload{
				Transcript: st.Result,
				Labeled:    st.Result.Labeled(),
			}})
		case st.Err != nil:
			b.Publish(pattern, sse.Event{Type: sse.EventTypeError, Data: ErrorPayload{
				Phase:  st.Phase,
				Status: st.Status,
				Error:  errors.From(st.Err).ToResponse().Error,
			}})
		default:
			b.Publish(pattern, sse.Event{Type: sse.EventTypeProgress, Data: st})
		}
	}
}

// Observers fans one state out to several observers in order.
func Observers(obs ...Observer) Observer {
	return func(st State) {
		for _, o := range obs {
			if o != nil {
				o(st)
			}
		}
	}
}
