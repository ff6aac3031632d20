package history

import (
	"encoding/json"
	"net/http"

	corehistory "github.com/kilianp07/energyflow/core/history"
	"github.com/kilianp07/energyflow/core/model"
	"github.com/kilianp07/energyflow/core/source"
)

var chartTitles = map[string]string{
	"inverter": "Wechselrichter",
	"wallbox":  "Wallbox",
	"heating":  "Heizung",
}

// table resolves the {kind} path value to the last polled history.
func table(reg *source.Registry, w http.ResponseWriter, r *http.Request) (model.Table, bool) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return model.Table{}, false
	}
	name, ok := source.HistorySource(r.PathValue("kind"))
	if !ok {
		http.Error(w, "unknown history", http.StatusNotFound)
		return model.Table{}, false
	}
	d, ok := reg.Get(name)
	if !ok {
		http.Error(w, "history source disabled", http.StatusNotFound)
		return model.Table{}, false
	}
	tab, ok := d.Value.(model.Tabular)
	if !ok {
		msg := "no data yet"
		if d.Cause != "" {
			msg = d.Cause
		}
		http.Error(w, msg, http.StatusServiceUnavailable)
		return model.Table{}, false
	}
	return tab.Table(), true
}

// NewSummaryHandler serves GET /api/history/{kind}/summary.
func NewSummaryHandler(reg *source.Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t, ok := table(reg, w, r)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(corehistory.Summarize(t)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

// NewChartHandler serves GET /charts/{kind} as an HTML line chart.
func NewChartHandler(reg *source.Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t, ok := table(reg, w, r)
		if !ok {
			return
		}
		html, err := corehistory.ChartHTML(chartTitles[r.PathValue("kind")], t)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	})
}
