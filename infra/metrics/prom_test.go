package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/energyflow/core/metrics"
	"github.com/kilianp07/energyflow/core/model"
)

func TestPromSink_RecordFlow(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	view := model.FlowView{
		HasData: true,
		Stale:   true,
		State: model.FlowState{
			ProductionW:   3000,
			ConsumptionW:  800,
			GridW:         -200,
			BatterySoCPct: 54,
		},
		Edges: []model.FlowEdge{
			{From: model.NodePV, To: model.NodeInverter, Active: true, Weight: 0.6},
			{From: model.NodeGrid, To: model.NodeInverter, Active: false, Weight: 0.12},
		},
	}
	require.NoError(t, sink.RecordFlow(coremetrics.FlowEvent{View: view, Time: time.Now()}))

	require.Equal(t, 3000.0, testutil.ToFloat64(sink.power.WithLabelValues("production")))
	require.Equal(t, -200.0, testutil.ToFloat64(sink.power.WithLabelValues("grid")))
	require.Equal(t, 54.0, testutil.ToFloat64(sink.soc))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.stale))
	require.Equal(t, 0.6, testutil.ToFloat64(sink.edgeWeight.WithLabelValues("pv", "inverter")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.edgeActive.WithLabelValues("pv", "inverter")))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.edgeActive.WithLabelValues("grid", "inverter")))
}

func TestPromSink_IgnoresEmptyView(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordFlow(coremetrics.FlowEvent{}))
	require.Equal(t, 0, testutil.CollectAndCount(sink.power))
}

func TestPromSink_RecordFetch(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordFetch(coremetrics.FetchEvent{Source: "wallbox_status", OK: true, Latency: 20 * time.Millisecond}))
	require.NoError(t, sink.RecordFetch(coremetrics.FetchEvent{Source: "wallbox_status", OK: false, Latency: 10 * time.Millisecond}))

	require.Equal(t, 1.0, testutil.ToFloat64(sink.fetches.WithLabelValues("wallbox_status", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.fetches.WithLabelValues("wallbox_status", "error")))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.up.WithLabelValues("wallbox_status")))
	require.Equal(t, 1, testutil.CollectAndCount(sink.latency))
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	second, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, second.RecordFetch(coremetrics.FetchEvent{Source: "heating_summary", OK: true}))
	require.Equal(t, 1.0, testutil.ToFloat64(first.fetches.WithLabelValues("heating_summary", "ok")))
}
