package model

import (
	"encoding/json"
	"strings"
)

// BurnerStatus is normalised to "on" or "off".
type BurnerStatus string

const (
	BurnerOn  BurnerStatus = "on"
	BurnerOff BurnerStatus = "off"
)

// UnmarshalJSON accepts strings, booleans and numbers.
func (b *BurnerStatus) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = BurnerOff
	switch v := raw.(type) {
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "on", "1", "true", "an", "ein":
			*b = BurnerOn
		}
	case bool:
		if v {
			*b = BurnerOn
		}
	case float64:
		if v != 0 {
			*b = BurnerOn
		}
	}
	return nil
}

// HeatingSummary mirrors the heating summary endpoint. Temperatures are in °C.
type HeatingSummary struct {
	Timestamp    string       `json:"timestamp,omitempty"`
	BoilerTemp   Number       `json:"boiler_temp"`
	BufferTop    Number       `json:"buffer_top"`
	BufferBottom Number       `json:"buffer_bottom"`
	ReturnTemp   Number       `json:"return_temp"`
	OutsideTemp  Number       `json:"outside_temp"`
	FeedRate     Number       `json:"feed_rate"`
	BurnerStatus BurnerStatus `json:"burner_status"`
}
