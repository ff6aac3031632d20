package flow

import "math"

const (
	DefaultMinWeight     = 0.12
	DefaultFloorW        = 500
	DefaultReferenceMaxW = 5000
)

// Scaler maps a power value to a visual weight in [MinWeight, 1].
type Scaler struct {
	MinWeight     float64
	FloorW        float64
	ReferenceMaxW float64
}

// DefaultScaler returns a Scaler with the default bounds.
func DefaultScaler() Scaler {
	return Scaler{MinWeight: DefaultMinWeight, FloorW: DefaultFloorW, ReferenceMaxW: DefaultReferenceMaxW}
}

// Scale scales powerW against the configured reference maximum.
func (s Scaler) Scale(powerW float64) float64 {
	return s.ScaleWith(powerW, s.ReferenceMaxW)
}

// ScaleWith scales powerW against referenceMaxW. Oversized values are clamped
// to 1 and values near zero are raised to MinWeight.
func (s Scaler) ScaleWith(powerW, referenceMaxW float64) float64 {
	powerW = nonNegative(powerW)
	den := math.Max(referenceMaxW, s.FloorW)
	if !(den > 0) {
		if powerW > 0 {
			return 1
		}
		return s.MinWeight
	}
	return math.Min(1, math.Max(s.MinWeight, powerW/den))
}
