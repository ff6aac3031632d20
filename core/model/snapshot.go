package model

import "time"

// Snapshot is one point-in-time reading of the inverter summary endpoint.
//
// BatteryPowerW is signed: negative while the battery is charging, positive
// while it is discharging.
type Snapshot struct {
	Timestamp     string `json:"timestamp,omitempty"`
	PVPowerW      Number `json:"ppv"`
	HousePowerW   Number `json:"house_consumption"`
	BatterySoCPct Number `json:"battery_soc"`
	BatteryPowerW Number `json:"pbattery"`
	CarPowerW     Number `json:"car_power"`
}

// Time parses the backend timestamp. The zero time is returned when the field
// is absent or malformed.
func (s Snapshot) Time() time.Time {
	if s.Timestamp == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}
