package sources

import (
	"encoding/json"
	"net/http"

	"github.com/kilianp07/energyflow/core/source"
)

// NewListHandler returns an HTTP handler exposing every source status via GET /api/sources.
func NewListHandler(reg *source.Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, reg.List())
	})
}

// NewDetailHandler serves GET /api/sources/{name} with the last known value.
func NewDetailHandler(reg *source.Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		d, ok := reg.Get(r.PathValue("name"))
		if !ok {
			http.Error(w, "unknown source", http.StatusNotFound)
			return
		}
		writeJSON(w, d)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
