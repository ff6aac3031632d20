package model

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// carPowerIndex is the position of the total charging power in the go-e nrg array.
const carPowerIndex = 11

// WallboxStatus mirrors the wallbox status endpoint.
type WallboxStatus struct {
	Timestamp   string   `json:"timestamp,omitempty"`
	Amp         Number   `json:"amp"`
	Frc         Number   `json:"frc"`
	Psm         Number   `json:"psm"`
	Car         Number   `json:"car"`
	Nrg         []Number `json:"nrg"`
	ModelStatus Number   `json:"modelStatus"`
}

// CarPowerW returns the current charging power reported in nrg.
func (w WallboxStatus) CarPowerW() float64 {
	if len(w.Nrg) <= carPowerIndex {
		return 0
	}
	return w.Nrg[carPowerIndex].Float()
}

var forceStateLabels = map[int]string{
	0: "Neutral",
	1: "Aus (Idle)",
	2: "Laden erzwingen",
}

var carStateLabels = map[int]string{
	1: "Kein Fahrzeug",
	2: "Laden",
	3: "Warten",
	4: "Fertig",
}

// ForceStateLabel returns the display text of the frc value.
func (w WallboxStatus) ForceStateLabel() string {
	if l, ok := forceStateLabels[int(w.Frc)]; ok {
		return l
	}
	return fmt.Sprintf("Unbekannt (%d)", int(w.Frc))
}

// CarStateLabel returns the display text of the car value.
func (w WallboxStatus) CarStateLabel() string {
	if l, ok := carStateLabels[int(w.Car)]; ok {
		return l
	}
	return fmt.Sprintf("Unbekannt (%d)", int(w.Car))
}

// WallboxSetRequest is the body of a wallbox write.
type WallboxSetRequest struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// WallboxSetResult is the backend answer to a wallbox write.
type WallboxSetResult struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Topic string `json:"topic,omitempty"`
	Key   string `json:"key,omitempty"`
	Value any    `json:"value,omitempty"`
}

// maxSettingValue is the largest integer a float64 holds exactly.
const maxSettingValue = 1 << 53

type settingRange struct {
	min, max float64
}

var wallboxSettings = map[string]settingRange{
	"amp": {min: 6, max: 32},
	"frc": {min: 0, max: 2},
	"psm": {min: 1, max: 2},
	"dwo": {min: 0, max: maxSettingValue},
	"alw": {min: 0, max: 1},
}

// WallboxKeys returns the writable wallbox keys in sorted order.
func WallboxKeys() []string {
	keys := make([]string, 0, len(wallboxSettings))
	for k := range wallboxSettings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidateWallboxSetting checks that key is writable and value is finite and
// within range. dwo has no device limit and is capped at 2^53.
func ValidateWallboxSetting(key string, value float64) error {
	r, ok := wallboxSettings[key]
	if !ok {
		return fmt.Errorf("key %q not allowed, allowed: %s", key, strings.Join(WallboxKeys(), ", "))
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%s must be a finite number, got %g", key, value)
	}
	if value < r.min || value > r.max {
		return fmt.Errorf("%s must be between %g and %g, got %g", key, r.min, r.max, value)
	}
	return nil
}
