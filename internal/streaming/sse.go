package streaming

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/syncer"
)

// Sentinel errors for streaming operations.
var (
	// ErrStreamingUnsupported indicates that the underlying
	// ResponseWriter cannot flush, so server-sent events are not
	// possible on this connection.
	ErrStreamingUnsupported = errors.New("response writer does not support streaming")

	// ErrClientGone indicates that the client disconnected before the
	// stream completed. Detected via the request context.
	ErrClientGone = errors.New("client disconnected")
)

// SSEEmitter delivers synchronization progress to a client as
// server-sent events. It implements syncer.Emitter; after the first
// write failure or client disconnect all further events are dropped
// so a dead stream never stalls an indexing run.
type SSEEmitter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	ctx     context.Context

	mu  sync.Mutex
	err error
}

// NewSSEEmitter prepares w for an event stream and writes the
// streaming headers. ctx should be the request context so client
// disconnects stop the stream.
func NewSSEEmitter(ctx context.Context, w http.ResponseWriter) (*SSEEmitter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEEmitter{w: w, flusher: flusher, ctx: ctx}, nil
}

// send serializes payload and writes one named event. Errors are
// sticky: the first failure silences the stream.
func (e *SSEEmitter) send(event string, payload interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.err != nil {
		return
	}
	select {
	case <-e.ctx.Done():
		e.err = ErrClientGone
		return
	default:
	}

	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("failed to marshal %s event: %v", event, err)
		return
	}
	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		logging.Debug("event stream write failed: %v", err)
		e.err = err
		return
	}
	e.flusher.Flush()
}

// Started implements syncer.Emitter.
func (e *SSEEmitter) Started(folder string) {
	e.send("started", map[string]string{"folder": folder})
}

// Progress implements syncer.Emitter.
func (e *SSEEmitter) Progress(message string) {
	e.send("progress", map[string]string{"message": message})
}

// FilesIndexed implements syncer.Emitter.
func (e *SSEEmitter) FilesIndexed(batch []catalog.FileRecord) {
	e.send("files", batch)
}

// Completed implements syncer.Emitter.
func (e *SSEEmitter) Completed(folder string) {
	e.send("completed", map[string]string{"folder": folder})
}

// Summary implements syncer.Emitter.
func (e *SSEEmitter) Summary(result syncer.Result) {
	e.send("summary", result)
}

// Error reports a failed run to the client as its own event.
func (e *SSEEmitter) Error(message string) {
	e.send("error", map[string]string{"message": message})
}

// Err returns the sticky stream error, if any.
func (e *SSEEmitter) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}
