// Package metrics defines the sinks that observe the energy flow. Sinks like
// PromSink and InfluxSink (infra/metrics) record published flow views and
// fetch outcomes and can be combined with NewMultiSink. NewMetricsSink
// builds sinks from configuration and returns a MultiSink automatically when
// several are configured.
package metrics
