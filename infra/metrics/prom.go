package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/energyflow/core/metrics"
)

// PromSink exposes the latest flow view and fetch outcomes as Prometheus metrics.
type PromSink struct {
	power      *prometheus.GaugeVec
	soc        prometheus.Gauge
	stale      prometheus.Gauge
	edgeWeight *prometheus.GaugeVec
	edgeActive *prometheus.GaugeVec
	fetches    *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	up         *prometheus.GaugeVec
}

// NewPromSink registers flow metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.power, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "energyflow_power_watts",
		Help: "Derived power flow by kind",
	}, []string{"kind"})); err != nil {
		return nil, err
	}
	if s.soc, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "energyflow_battery_soc_percent",
		Help: "Battery state of charge",
	})); err != nil {
		return nil, err
	}
	if s.stale, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "energyflow_flow_stale",
		Help: "1 when the flow view is built from a stale snapshot",
	})); err != nil {
		return nil, err
	}
	if s.edgeWeight, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "energyflow_edge_weight",
		Help: "Visual weight of a flow edge",
	}, []string{"from", "to"})); err != nil {
		return nil, err
	}
	if s.edgeActive, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "energyflow_edge_active",
		Help: "1 when a flow edge is active",
	}, []string{"from", "to"})); err != nil {
		return nil, err
	}
	if s.fetches, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "energyflow_fetch_total",
		Help: "Backend polls by source and result",
	}, []string{"source", "result"})); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "energyflow_fetch_duration_seconds",
		Help:    "Duration of backend polls",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})); err != nil {
		return nil, err
	}
	if s.up, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "energyflow_source_up",
		Help: "1 when the last poll of a source succeeded",
	}, []string{"source"})); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds c to reg, reusing an already registered collector of the same type.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if exist, ok := are.ExistingCollector.(C); ok {
				return exist, nil
			}
			return c, fmt.Errorf("existing collector has wrong type %T", are.ExistingCollector)
		}
		return c, err
	}
	return c, nil
}

// RecordFlow updates the gauges with the view.
func (s *PromSink) RecordFlow(ev coremetrics.FlowEvent) error {
	v := ev.View
	if !v.HasData {
		return nil
	}
	st := v.State
	s.power.WithLabelValues("production").Set(st.ProductionW)
	s.power.WithLabelValues("consumption").Set(st.ConsumptionW)
	s.power.WithLabelValues("grid").Set(st.GridW)
	s.power.WithLabelValues("battery_charge").Set(st.BatteryChargeW)
	s.power.WithLabelValues("battery_discharge").Set(st.BatteryDischargeW)
	s.power.WithLabelValues("car").Set(st.CarW)
	s.soc.Set(st.BatterySoCPct)
	s.stale.Set(boolFloat(v.Stale))
	for _, e := range v.Edges {
		s.edgeWeight.WithLabelValues(string(e.From), string(e.To)).Set(e.Weight)
		s.edgeActive.WithLabelValues(string(e.From), string(e.To)).Set(boolFloat(e.Active))
	}
	return nil
}

// RecordFetch counts the poll and sets the source availability.
func (s *PromSink) RecordFetch(ev coremetrics.FetchEvent) error {
	result := "error"
	if ev.OK {
		result = "ok"
	}
	s.fetches.WithLabelValues(ev.Source, result).Inc()
	s.latency.WithLabelValues(ev.Source).Observe(ev.Latency.Seconds())
	s.up.WithLabelValues(ev.Source).Set(boolFloat(ev.OK))
	return nil
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

