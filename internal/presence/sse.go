package presence

import (
	"fmt"
	"io"
	"net/http"
)

// SSEWriter frames events as text/event-stream blocks:
//
//	event: add
//	data: "Alice"
//
// Heartbeats are comment lines that consumers ignore.
type SSEWriter struct {
	w     io.Writer
	flush func()
}

// NewSSEWriter wraps w, flushing after every frame when w supports it.
func NewSSEWriter(w io.Writer) *SSEWriter {
	sw := &SSEWriter{w: w, flush: func() {}}
	if f, ok := w.(http.Flusher); ok {
		sw.flush = f.Flush
	}
	return sw
}

// WriteEvent writes one named event.
func (sw *SSEWriter) WriteEvent(ev Event) error {
	data, err := ev.Data()
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Kind, err)
	}
	if _, err := fmt.Fprintf(sw.w, "event: %s\ndata: %s\n\n", ev.Kind, data); err != nil {
		return err
	}
	sw.flush()
	return nil
}

// WriteHeartbeat writes a comment-only keepalive.
func (sw *SSEWriter) WriteHeartbeat() error {
	if _, err := io.WriteString(sw.w, ": heartbeat\n\n"); err != nil {
		return err
	}
	sw.flush()
	return nil
}
