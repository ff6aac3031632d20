// Package source keeps the last known state of every polled backend endpoint
// under a stable name.
package source

import (
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/energyflow/core/poller"
)

// Names of the polled backend endpoints.
const (
	InverterSummary = "inverter_summary"
	InverterHistory = "inverter_history"
	WallboxStatus   = "wallbox_status"
	WallboxHistory  = "wallbox_history"
	HeatingSummary  = "heating_summary"
	HeatingHistory  = "heating_history"
)

// Status summarises one source.
type Status struct {
	Name       string    `json:"name"`
	Available  bool      `json:"available"`
	HasData    bool      `json:"has_data"`
	Cause      string    `json:"cause,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
	FailedAt   time.Time `json:"failed_at,omitempty"`
	IntervalMS int64     `json:"interval_ms"`
}

// Detail is a Status together with the last known value.
type Detail struct {
	Status
	Value any `json:"value,omitempty"`
}

type entry interface {
	detail() Detail
}

type typedEntry[T any] struct {
	name     string
	interval time.Duration
	slot     *poller.Slot[T]
}

func (e typedEntry[T]) detail() Detail {
	st := e.slot.Load()
	d := Detail{Status: Status{
		Name:       e.name,
		Available:  st.HasValue && !st.Unavailable,
		HasData:    st.HasValue,
		Cause:      st.Cause,
		UpdatedAt:  st.UpdatedAt,
		FailedAt:   st.FailedAt,
		IntervalMS: e.interval.Milliseconds(),
	}}
	if st.HasValue {
		d.Value = st.Value
	}
	return d
}

// Registry indexes slots by source name.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]entry{}}
}

// Register creates the slot of a source. Registering a name twice replaces
// the previous slot.
func Register[T any](r *Registry, name string, interval time.Duration) *poller.Slot[T] {
	slot := poller.NewSlot[T]()
	r.mu.Lock()
	r.entries[name] = typedEntry[T]{name: name, interval: interval, slot: slot}
	r.mu.Unlock()
	return slot
}

// Get returns the detail of a source.
func (r *Registry) Get(name string) (Detail, bool) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return Detail{}, false
	}
	return e.detail(), true
}

// List returns the status of every source sorted by name.
func (r *Registry) List() []Status {
	r.mu.RLock()
	res := make([]Status, 0, len(r.entries))
	for _, e := range r.entries {
		res = append(res, e.detail().Status)
	}
	r.mu.RUnlock()
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}

// HistoryKinds lists the short names accepted by HistorySource.
var HistoryKinds = []string{"heating", "inverter", "wallbox"}

// HistorySource maps a short history kind to its source name.
func HistorySource(kind string) (string, bool) {
	switch kind {
	case "inverter":
		return InverterHistory, true
	case "wallbox":
		return WallboxHistory, true
	case "heating":
		return HeatingHistory, true
	}
	return "", false
}
