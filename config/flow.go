package config

import (
	"fmt"

	"golang.org/x/text/language"

	"github.com/kilianp07/energyflow/core/flow"
)

// FlowConfig tunes the flow presentation.
type FlowConfig struct {
	ReferenceMaxW float64  `json:"reference_max_w"`
	FloorW        float64  `json:"floor_w"`
	MinWeight     float64  `json:"min_weight"`
	EpsilonW      *float64 `json:"epsilon_w"`
	Locale        string   `json:"locale"`
}

func (c *FlowConfig) SetDefaults() {
	if c.ReferenceMaxW == 0 {
		c.ReferenceMaxW = flow.DefaultReferenceMaxW
	}
	if c.FloorW == 0 {
		c.FloorW = flow.DefaultFloorW
	}
	if c.MinWeight == 0 {
		c.MinWeight = flow.DefaultMinWeight
	}
	if c.EpsilonW == nil {
		eps := flow.DefaultEpsilonW
		c.EpsilonW = &eps
	}
	if c.Locale == "" {
		c.Locale = flow.DefaultLocale
	}
}

func (c FlowConfig) Validate() error {
	if c.ReferenceMaxW <= 0 {
		return fmt.Errorf("reference_max_w must be positive")
	}
	if c.FloorW <= 0 {
		return fmt.Errorf("floor_w must be positive")
	}
	if c.MinWeight <= 0 || c.MinWeight > 1 {
		return fmt.Errorf("min_weight must be in (0, 1]")
	}
	if c.Epsilon() < 0 {
		return fmt.Errorf("epsilon_w must not be negative")
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("locale %q: %w", c.Locale, err)
	}
	return nil
}

// Epsilon returns the activity threshold in watts. An explicit 0 marks every
// non-zero flow active.
func (c FlowConfig) Epsilon() float64 {
	if c.EpsilonW == nil {
		return flow.DefaultEpsilonW
	}
	return *c.EpsilonW
}

// Scaler builds the magnitude scaler of the section.
func (c FlowConfig) Scaler() flow.Scaler {
	return flow.Scaler{MinWeight: c.MinWeight, FloorW: c.FloorW, ReferenceMaxW: c.ReferenceMaxW}
}

// Presenter builds the flow presenter of the section.
func (c FlowConfig) Presenter() (*flow.Presenter, error) {
	f, err := flow.NewFormatter(c.Locale)
	if err != nil {
		return nil, err
	}
	return flow.NewPresenter(c.Scaler(), c.Epsilon(), f), nil
}
