package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/energyflow/core/source"
)

// MinIntervalMS is the shortest accepted poll interval.
const MinIntervalMS = 1000

// SourceConfig configures the poller of one backend endpoint.
type SourceConfig struct {
	Enabled    *bool `json:"enabled"`
	IntervalMS int   `json:"interval_ms"`
	// HistoryInterval is the sampling interval requested from history
	// endpoints, e.g. "5m".
	HistoryInterval string `json:"history_interval"`
}

// IsEnabled reports whether the source is polled. Sources are enabled unless
// explicitly disabled.
func (c SourceConfig) IsEnabled() bool { return c.Enabled == nil || *c.Enabled }

// Interval returns the poll interval.
func (c SourceConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}

func (c *SourceConfig) setDefaults(intervalMS int, history bool) {
	if c.IntervalMS == 0 {
		c.IntervalMS = intervalMS
	}
	if c.IntervalMS < MinIntervalMS {
		c.IntervalMS = MinIntervalMS
	}
	if history && c.HistoryInterval == "" {
		c.HistoryInterval = "5m"
	}
}

// SourcesConfig holds one entry per polled endpoint.
type SourcesConfig struct {
	InverterSummary SourceConfig `json:"inverter_summary"`
	InverterHistory SourceConfig `json:"inverter_history"`
	WallboxStatus   SourceConfig `json:"wallbox_status"`
	WallboxHistory  SourceConfig `json:"wallbox_history"`
	HeatingSummary  SourceConfig `json:"heating_summary"`
	HeatingHistory  SourceConfig `json:"heating_history"`
}

func (c *SourcesConfig) SetDefaults() {
	c.InverterSummary.setDefaults(3000, false)
	c.InverterHistory.setDefaults(20000, true)
	c.WallboxStatus.setDefaults(5000, false)
	c.WallboxHistory.setDefaults(20000, true)
	c.HeatingSummary.setDefaults(5000, false)
	c.HeatingHistory.setDefaults(60000, true)
}

func (c SourcesConfig) Validate() error {
	for name, s := range c.ByName() {
		if s.HistoryInterval == "" {
			continue
		}
		d, err := time.ParseDuration(s.HistoryInterval)
		if err != nil {
			return fmt.Errorf("%s.history_interval: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s.history_interval must be positive", name)
		}
	}
	return nil
}

// ByName indexes the sources by their registry name.
func (c SourcesConfig) ByName() map[string]SourceConfig {
	return map[string]SourceConfig{
		source.InverterSummary: c.InverterSummary,
		source.InverterHistory: c.InverterHistory,
		source.WallboxStatus:   c.WallboxStatus,
		source.WallboxHistory:  c.WallboxHistory,
		source.HeatingSummary:  c.HeatingSummary,
		source.HeatingHistory:  c.HeatingHistory,
	}
}
