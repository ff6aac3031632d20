package metrics

import (
	"time"

	"github.com/kilianp07/energyflow/core/model"
)

// FlowEvent carries a published flow view.
type FlowEvent struct {
	View model.FlowView
	Time time.Time
}

// MetricsSink records flow views for observability purposes.
type MetricsSink interface {
	RecordFlow(ev FlowEvent) error
}

// FetchEvent is the outcome of one poll of a backend endpoint.
type FetchEvent struct {
	Source  string
	OK      bool
	Latency time.Duration
	Error   string
	Time    time.Time
}

// FetchRecorder records poll outcomes.
type FetchRecorder interface {
	RecordFetch(ev FetchEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordFlow(FlowEvent) error   { return nil }
func (NopSink) RecordFetch(FetchEvent) error { return nil }
