package flow

import (
	"encoding/json"
	"net/http"

	"github.com/kilianp07/energyflow/core/model"
)

// Reader returns the most recently presented flow view.
type Reader interface {
	Flow() model.FlowView
}

// NewHandler returns an HTTP handler exposing the flow view via GET /api/flow.
func NewHandler(r Reader) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		view := r.Flow()
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if err := json.NewEncoder(w).Encode(view); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}
