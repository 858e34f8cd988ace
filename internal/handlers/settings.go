package handlers

import (
	"net/http"
	"strconv"
)

// Settings keys stored in the catalog's settings table.
const (
	settingTheme         = "theme"
	settingThumbnailSize = "thumbnail_size"
	settingDefaultFolder = "default_folder"
)

const defaultTheme = "system"

// SettingsResponse is the JSON shape of the user settings.
type SettingsResponse struct {
	Theme         string `json:"theme"`
	ThumbnailSize int    `json:"thumbnailSize"`
	DefaultFolder string `json:"defaultFolder"`
}

// GetSettings returns the stored user settings, with defaults for
// keys that were never written.
func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	theme, err := h.store.Setting(ctx, settingTheme)
	if err != nil {
		writeJSONError(w, "failed to read settings", http.StatusInternalServerError)
		return
	}
	if theme == "" {
		theme = defaultTheme
	}

	sizeRaw, err := h.store.Setting(ctx, settingThumbnailSize)
	if err != nil {
		writeJSONError(w, "failed to read settings", http.StatusInternalServerError)
		return
	}
	size := h.engine.ThumbnailSize()
	if n, convErr := strconv.Atoi(sizeRaw); convErr == nil && n > 0 {
		size = n
	}

	folder, err := h.store.Setting(ctx, settingDefaultFolder)
	if err != nil {
		writeJSONError(w, "failed to read settings", http.StatusInternalServerError)
		return
	}

	writeJSON(w, SettingsResponse{
		Theme:         theme,
		ThumbnailSize: size,
		DefaultFolder: folder,
	})
}

// UpdateSettings stores the provided settings. Absent fields keep
// their stored values.
func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme         *string `json:"theme"`
		ThumbnailSize *int    `json:"thumbnailSize"`
		DefaultFolder *string `json:"defaultFolder"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, "invalid settings payload", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if req.Theme != nil {
		if err := h.store.SetSetting(ctx, settingTheme, *req.Theme); err != nil {
			writeJSONError(w, "failed to save settings", http.StatusInternalServerError)
			return
		}
	}
	if req.ThumbnailSize != nil {
		if *req.ThumbnailSize <= 0 || *req.ThumbnailSize > maxThumbnailSize {
			writeJSONError(w, "invalid thumbnail size", http.StatusBadRequest)
			return
		}
		if err := h.store.SetSetting(ctx, settingThumbnailSize, strconv.Itoa(*req.ThumbnailSize)); err != nil {
			writeJSONError(w, "failed to save settings", http.StatusInternalServerError)
			return
		}
	}
	if req.DefaultFolder != nil {
		norm := ""
		if *req.DefaultFolder != "" {
			norm = h.scan.Normalizer().Normalize(*req.DefaultFolder)
		}
		if err := h.store.SetSetting(ctx, settingDefaultFolder, norm); err != nil {
			writeJSONError(w, "failed to save settings", http.StatusInternalServerError)
			return
		}
	}

	h.GetSettings(w, r)
}
