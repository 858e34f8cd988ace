package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"photo-catalog/internal/catalog"
)

// ListFiles returns cataloged files, optionally scoped to one folder.
// Query parameters: folder, offset, limit.
func (h *Handlers) ListFiles(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 0)

	var (
		records []catalog.FileRecord
		err     error
	)
	if folder := r.URL.Query().Get("folder"); folder != "" {
		norm := h.scan.Normalizer().Normalize(folder)
		records, err = h.store.ListFolder(r.Context(), norm, offset, limit)
	} else {
		records, err = h.store.List(r.Context(), offset, limit)
	}
	if err != nil {
		writeJSONError(w, "failed to list files", http.StatusInternalServerError)
		return
	}

	if records == nil {
		records = []catalog.FileRecord{}
	}
	writeJSON(w, map[string]interface{}{
		"files":  records,
		"count":  len(records),
		"offset": offset,
	})
}

// SearchFiles returns files whose name contains the query substring.
func (h *Handlers) SearchFiles(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSONError(w, "missing query parameter q", http.StatusBadRequest)
		return
	}

	records, err := h.store.Search(r.Context(), query)
	if err != nil {
		writeJSONError(w, "search failed", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []catalog.FileRecord{}
	}
	writeJSON(w, map[string]interface{}{
		"files": records,
		"count": len(records),
		"query": query,
	})
}

// ListFolders returns every folder with cataloged files, naturally
// sorted.
func (h *Handlers) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.store.Folders(r.Context())
	if err != nil {
		writeJSONError(w, "failed to list folders", http.StatusInternalServerError)
		return
	}
	if folders == nil {
		folders = []string{}
	}
	writeJSON(w, map[string]interface{}{"folders": folders})
}

// FolderContains reports whether a path lies inside an indexed folder.
func (h *Handlers) FolderContains(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "missing query parameter path", http.StatusBadRequest)
		return
	}

	folders, err := h.store.Folders(r.Context())
	if err != nil {
		writeJSONError(w, "failed to list folders", http.StatusInternalServerError)
		return
	}

	norm := h.scan.Normalizer().Normalize(path)
	indexed := false
	for _, folder := range folders {
		if norm == folder || strings.HasPrefix(norm, folder+"/") {
			indexed = true
			break
		}
	}
	writeJSON(w, map[string]interface{}{"path": norm, "indexed": indexed})
}

// Library returns the catalog-wide state: the remembered folder and
// every indexed folder.
func (h *Handlers) Library(w http.ResponseWriter, r *http.Request) {
	last, err := h.store.Setting(r.Context(), "last_selected_folder")
	if err != nil {
		writeJSONError(w, "failed to read library state", http.StatusInternalServerError)
		return
	}
	folders, err := h.store.Folders(r.Context())
	if err != nil {
		writeJSONError(w, "failed to read library state", http.StatusInternalServerError)
		return
	}
	if folders == nil {
		folders = []string{}
	}
	writeJSON(w, catalog.LibraryState{
		LastSelectedFolder: last,
		IndexedFolders:     folders,
	})
}

// SetLastFolder remembers folder as the most recently selected one.
func (h *Handlers) SetLastFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Folder string `json:"folder"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Folder == "" {
		writeJSONError(w, "missing folder", http.StatusBadRequest)
		return
	}

	norm := h.scan.Normalizer().Normalize(req.Folder)
	if err := h.store.SetSetting(r.Context(), "last_selected_folder", norm); err != nil {
		writeJSONError(w, "failed to save folder", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"status": "ok", "folder": norm})
}

// ResetLibrary clears the entire catalog and the thumbnail cache.
func (h *Handlers) ResetLibrary(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearLibrary(r.Context()); err != nil {
		writeJSONError(w, "failed to clear library", http.StatusInternalServerError)
		return
	}
	h.cache.InvalidateAll()
	writeJSON(w, map[string]string{"status": "ok"})
}

// ResetFolder clears one folder's catalog entries and their cached
// thumbnails.
func (h *Handlers) ResetFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Folder string `json:"folder"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Folder == "" {
		writeJSONError(w, "missing folder", http.StatusBadRequest)
		return
	}

	norm := h.scan.Normalizer().Normalize(req.Folder)
	removed, err := h.store.ClearFolder(r.Context(), norm)
	if err != nil {
		writeJSONError(w, "failed to clear folder", http.StatusInternalServerError)
		return
	}
	h.cache.Invalidate(removed, h.engine.ThumbnailSize())
	writeJSON(w, map[string]interface{}{"status": "ok", "removed": len(removed)})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
