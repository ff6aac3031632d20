package metrics

import "github.com/kilianp07/energyflow/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
}

// DefaultSinks is used when no sink is configured.
func DefaultSinks() []factory.ModuleConfig {
	return []factory.ModuleConfig{{Type: "prometheus"}}
}
