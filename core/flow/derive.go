package flow

import (
	"math"

	"github.com/kilianp07/energyflow/core/model"
)

// Derive computes the flow state of a snapshot. It never fails: missing or
// negative readings count as zero.
func Derive(s model.Snapshot) model.FlowState {
	production := nonNegative(s.PVPowerW.Float())
	consumption := nonNegative(s.HousePowerW.Float())
	car := nonNegative(s.CarPowerW.Float())
	battery := s.BatteryPowerW.Float()
	charge := nonNegative(-battery)
	discharge := nonNegative(battery)

	return model.FlowState{
		ProductionW:       production,
		ConsumptionW:      consumption,
		GridW:             production - consumption - charge + discharge - car,
		BatterySoCPct:     math.Min(100, nonNegative(s.BatterySoCPct.Float())),
		BatteryChargeW:    charge,
		BatteryDischargeW: discharge,
		CarW:              car,
	}
}

// nonNegative maps NaN, negative values and -0 to +0.
func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	return v
}
