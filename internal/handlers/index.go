package handlers

import (
	"context"
	"errors"
	"net/http"

	"photo-catalog/internal/logging"
	"photo-catalog/internal/streaming"
	"photo-catalog/internal/syncer"
)

// IndexFolder performs a full, non-incremental index of the requested
// root and returns the resulting counts.
func (h *Handlers) IndexFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Root string `json:"root"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Root == "" {
		writeJSONError(w, "missing root", http.StatusBadRequest)
		return
	}

	result, err := h.engine.IndexFolder(r.Context(), req.Root)
	if err != nil {
		writeSyncError(w, err)
		return
	}
	writeJSON(w, result)
}

// StreamSync runs an incremental synchronization of the requested root
// and streams its progress as server-sent events. The run itself is
// detached from the request context so a client that disconnects
// mid-run does not leave the catalog half-updated.
func (h *Handlers) StreamSync(w http.ResponseWriter, r *http.Request) {
	root := r.URL.Query().Get("root")
	if root == "" {
		writeJSONError(w, "missing query parameter root", http.StatusBadRequest)
		return
	}

	emit, err := streaming.NewSSEEmitter(r.Context(), w)
	if err != nil {
		writeJSONError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	if _, err := h.engine.Sync(context.Background(), root, emit); err != nil {
		logging.Error("streaming sync of %s failed: %v", root, err)
		emit.Error(err.Error())
	}
}

// WatchFolder registers a folder with the live watcher. Watching an
// already watched folder succeeds without side effects.
func (h *Handlers) WatchFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Folder string `json:"folder"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Folder == "" {
		writeJSONError(w, "missing folder", http.StatusBadRequest)
		return
	}

	if err := h.watch.Watch(req.Folder); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]interface{}{
		"status":  "watching",
		"folders": h.watch.Watched(),
	})
}

// writeSyncError maps engine errors onto HTTP status codes.
func writeSyncError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, syncer.ErrFolderNotFound):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, syncer.ErrSyncInProgress):
		writeJSONError(w, err.Error(), http.StatusConflict)
	default:
		writeJSONError(w, "indexing failed", http.StatusInternalServerError)
	}
}
