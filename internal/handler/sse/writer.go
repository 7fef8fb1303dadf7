package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// EventWriter writes server-sent events for one client connection. Each
// payload goes out as a single `data:` frame followed by a flush so the
// browser sees chunks as they are produced, not when the response ends.
type EventWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewEventWriter prepares a ResponseWriter for SSE output. It fails when the
// underlying writer cannot flush (e.g. a buffering middleware is in the way).
func NewEventWriter(w http.ResponseWriter) (*EventWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	// Disable proxy buffering (nginx) so events are not held back
	w.Header().Set("X-Accel-Buffering", "no")

	return &EventWriter{w: w, flusher: flusher}, nil
}

// WriteEvent JSON-encodes v and sends it as one SSE data frame.
func (e *EventWriter) WriteEvent(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	if _, err := fmt.Fprintf(e.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	e.flusher.Flush()
	return nil
}

// WriteKeepAlive writes an SSE comment (: keepalive\n\n) and flushes.
// Returns an error if the connection is closed or the write fails.
func (e *EventWriter) WriteKeepAlive() error {
	// SSE spec: lines starting with : are comments (ignored by clients)
	if _, err := fmt.Fprintf(e.w, ": keepalive\n\n"); err != nil {
		return fmt.Errorf("write keepalive failed: %w", err)
	}

	e.flusher.Flush()

	// Health check: a zero-byte write surfaces a closed connection
	if _, err := e.w.Write([]byte{}); err != nil {
		return fmt.Errorf("connection closed: %w", err)
	}

	return nil
}
