package handlers

import (
	"net/http"
	"runtime"
	"time"

	"photo-catalog/internal/startup"
)

var startTime = time.Now()

// HealthResponse contains the health check response.
type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	Uptime         string `json:"uptime"`
	WatchedFolders int    `json:"watchedFolders"`
	GoVersion      string `json:"goVersion"`
	NumGoroutine   int    `json:"numGoroutine"`
}

// HealthCheck reports service liveness and basic runtime information.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, HealthResponse{
		Status:         "healthy",
		Version:        startup.Version,
		Uptime:         time.Since(startTime).Round(time.Second).String(),
		WatchedFolders: len(h.watch.Watched()),
		GoVersion:      runtime.Version(),
		NumGoroutine:   runtime.NumGoroutine(),
	})
}

// ReadinessCheck returns 200 only when the catalog store answers.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.Setting(r.Context(), "last_selected_folder"); err != nil {
		writeJSONError(w, "catalog unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]string{"status": "ready"})
}
