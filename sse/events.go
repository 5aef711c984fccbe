package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Event types sent on a job stream.
const (
	// EventTypeConnected is sent when a client successfully connects.
	EventTypeConnected = "connected"

	// EventTypeProgress carries a pipeline state snapshot.
	EventTypeProgress = "progress"

	// EventTypeComplete carries the finished transcript.
	EventTypeComplete = "complete"

	// EventTypeError is sent when a job fails or is cancelled.
	EventTypeError = "error"
)

// Event is one named SSE event. Data is encoded as JSON.
type Event struct {
	ID   string
	Type string
	Data any
}

// Encode renders e in the text/event-stream wire format, terminated by a
// blank line.
func (e Event) Encode() ([]byte, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return nil, fmt.Errorf("sse: encode %s event: %w", e.Type, err)
	}

	var buf bytes.Buffer
	if e.ID != "" {
		fmt.Fprintf(&buf, "id: %s\n", e.ID)
	}
	if e.Type != "" {
		fmt.Fprintf(&buf, "event: %s\n", e.Type)
	}
	fmt.Fprintf(&buf, "data: %s\n\n", data)
	return buf.Bytes(), nil
}

// JobPattern matches every client listening to the given job.
func JobPattern(jobID string) string {
	return "job:" + jobID + ":*"
}

// JobClientID builds the client id of one connection to a job stream.
func JobClientID(jobID, connID string) string {
	return "job:" + jobID + ":" + connID
}
