package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes attaches every API endpoint to the router.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/index", h.IndexFolder).Methods(http.MethodPost)
	api.HandleFunc("/index/stream", h.StreamSync).Methods(http.MethodGet)

	api.HandleFunc("/files", h.ListFiles).Methods(http.MethodGet)
	api.HandleFunc("/files/search", h.SearchFiles).Methods(http.MethodGet)

	api.HandleFunc("/folders", h.ListFolders).Methods(http.MethodGet)
	api.HandleFunc("/folders/contains", h.FolderContains).Methods(http.MethodGet)
	api.HandleFunc("/folders/reset", h.ResetFolder).Methods(http.MethodPost)

	api.HandleFunc("/library", h.Library).Methods(http.MethodGet)
	api.HandleFunc("/library/reset", h.ResetLibrary).Methods(http.MethodPost)
	api.HandleFunc("/library/last-folder", h.SetLastFolder).Methods(http.MethodPut)

	api.HandleFunc("/thumbnail/{id}", h.Thumbnail).Methods(http.MethodGet)

	api.HandleFunc("/watch", h.WatchFolder).Methods(http.MethodPost)

	api.HandleFunc("/settings", h.GetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", h.UpdateSettings).Methods(http.MethodPut)

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
}
