package sse

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/kbukum/audioscribe/logger"
)

// DefaultKeepAlive is the interval between keep-alive comments. It stays
// below common proxy idle timeouts.
const DefaultKeepAlive = 30 * time.Second

// ServeOption configures ServeSSE.
type ServeOption func(*serveOptions)

type serveOptions struct {
	replay    [][]byte
	keepAlive time.Duration
	terminal  bool
}

// WithReplay writes frames right after the connected event, before any
// broadcast. The server uses it to send the job's current state.
func WithReplay(frames ...[]byte) ServeOption {
	return func(o *serveOptions) { o.replay = append(o.replay, frames...) }
}

// WithKeepAlive overrides DefaultKeepAlive.
func WithKeepAlive(d time.Duration) ServeOption {
	return func(o *serveOptions) { o.keepAlive = d }
}

// UntilTerminal ends the stream after a complete or error event is written.
func UntilTerminal() ServeOption {
	return func(o *serveOptions) { o.terminal = true }
}

// ServeSSE registers a client on hub and streams its frames to w until the
// request context ends, the hub stops, or a terminal event is written.
func ServeSSE(hub *Hub, w http.ResponseWriter, r *http.Request, clientID string, opts ...ServeOption) {
	o := serveOptions{keepAlive: DefaultKeepAlive}
	for _, opt := range opts {
		opt(&o)
	}
	log := hub.log.WithFields(map[string]interface{}{"client_id": clientID})

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("streaming not supported")
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// SSE connections are long-lived; the server WriteTimeout must not cut them.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("could not disable write deadline", logger.Fields(logger.FieldError, err.Error()))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := NewClient(clientID, log)
	if !hub.Register(client) {
		http.Error(w, "event hub stopped", http.StatusServiceUnavailable)
		return
	}
	defer hub.Unregister(client)

	w.WriteHeader(http.StatusOK)
	connected, _ := Event{Type: EventTypeConnected, Data: map[string]string{"client_id": clientID}}.Encode()
	_, _ = w.Write(connected)
	for _, frame := range o.replay {
		_, _ = w.Write(frame)
		if o.terminal && isTerminal(frame) {
			flusher.Flush()
			return
		}
	}
	flusher.Flush()
	log.Debug("client connected", logger.Fields("remote_addr", r.RemoteAddr))

	keepAlive := time.NewTicker(o.keepAlive)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug("client disconnected", logger.Fields("reason", ctx.Err().Error()))
			return

		case frame, ok := <-client.Events():
			if !ok {
				return
			}
			_, _ = w.Write(frame)
			flusher.Flush()
			if o.terminal && isTerminal(frame) {
				return
			}

		case <-keepAlive.C:
			_, _ = fmt.Fprintf(w, ": keepalive %d\n\n", time.Now().Unix())
			flusher.Flush()
		}
	}
}

func isTerminal(frame []byte) bool {
	return bytes.Contains(frame, []byte("event: "+EventTypeComplete+"\n")) ||
		bytes.Contains(frame, []byte("event: "+EventTypeError+"\n"))
}
