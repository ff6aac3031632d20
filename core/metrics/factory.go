package metrics

import "github.com/kilianp07/energyflow/core/factory"

var sinkRegistry = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink makes a sink type available to NewMetricsSink.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinkRegistry.Register(name, f)
}

// SinkTypes lists the registered sink types.
func SinkTypes() []string { return sinkRegistry.Names() }

// NewMetricsSink builds the configured sinks. No entries yields a NopSink and
// a single entry is returned unwrapped.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	sinks, err := sinkRegistry.CreateAll(cfgs)
	switch {
	case err != nil:
		return nil, err
	case len(sinks) == 0:
		return NopSink{}, nil
	case len(sinks) == 1:
		return sinks[0], nil
	}
	return NewMultiSink(sinks...), nil
}
