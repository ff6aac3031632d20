package metrics

import "github.com/prometheus/client_golang/prometheus"

// BusStats is the view of an event bus the collector reads.
type BusStats interface {
	Dropped() uint64
	Subscribers() int
}

// BusCollector exposes drop and subscriber counts of named event buses.
type BusCollector struct {
	buses       map[string]BusStats
	dropped     *prometheus.Desc
	subscribers *prometheus.Desc
}

func NewBusCollector(buses map[string]BusStats) *BusCollector {
	return &BusCollector{
		buses: buses,
		dropped: prometheus.NewDesc("energyflow_eventbus_dropped_total",
			"Events dropped because a subscriber buffer was full", []string{"bus"}, nil),
		subscribers: prometheus.NewDesc("energyflow_eventbus_subscribers",
			"Live subscriptions on the event bus", []string{"bus"}, nil),
	}
}

func (c *BusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.dropped
	ch <- c.subscribers
}

func (c *BusCollector) Collect(ch chan<- prometheus.Metric) {
	for name, b := range c.buses {
		ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(b.Dropped()), name)
		ch <- prometheus.MustNewConstMetric(c.subscribers, prometheus.GaugeValue, float64(b.Subscribers()), name)
	}
}
