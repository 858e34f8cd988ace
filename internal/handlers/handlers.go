package handlers

import (
	"encoding/json"
	"net/http"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/scanner"
	"photo-catalog/internal/syncer"
	"photo-catalog/internal/thumbs"
	"photo-catalog/internal/watcher"
)

// Handlers carries the shared dependencies of all HTTP endpoints.
type Handlers struct {
	store  *catalog.Store
	engine *syncer.Engine
	watch  *watcher.Watcher
	cache  *thumbs.Cache
	scan   *scanner.Scanner
}

func New(store *catalog.Store, engine *syncer.Engine, watch *watcher.Watcher, cache *thumbs.Cache, scan *scanner.Scanner) *Handlers {
	return &Handlers{
		store:  store,
		engine: engine,
		watch:  watch,
		cache:  cache,
		scan:   scan,
	}
}

// writeJSON encodes v and writes it to the response. Encoding errors
// are logged; there is nothing else to do for them mid-response.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes an error response with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		logging.Error("failed to encode JSON error response: %v", err)
	}
}

// decodeJSON reads the request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
