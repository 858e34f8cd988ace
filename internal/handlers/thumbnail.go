package handlers

import (
	"errors"
	"net/http"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/logging"

	"github.com/gorilla/mux"
)

// maxThumbnailSize caps on-demand thumbnail requests; anything larger
// should fetch the original file.
const maxThumbnailSize = 2048

// Thumbnail serves the cached thumbnail for a cataloged file,
// generating it on demand when missing or stale. Query parameter size
// selects the bounding box, defaulting to the engine's size.
func (h *Handlers) Thumbnail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rec, err := h.store.File(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeJSONError(w, "file not found", http.StatusNotFound)
			return
		}
		writeJSONError(w, "failed to look up file", http.StatusInternalServerError)
		return
	}

	size := queryInt(r, "size", h.engine.ThumbnailSize())
	if size <= 0 || size > maxThumbnailSize {
		size = h.engine.ThumbnailSize()
	}

	thumbPath, err := h.cache.Ensure(rec.Path, size)
	if err != nil {
		logging.Warn("thumbnail for %s failed: %v", rec.Path, err)
		writeJSONError(w, "thumbnail unavailable", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, thumbPath)
}
