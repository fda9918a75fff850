package units

import (
	"fmt"
	"math"
	"strings"
)

// Speed unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// ParseSpeedUnit validates a user-supplied unit flag.
func ParseSpeedUnit(unit string) (string, error) {
	if !IsValid(unit) {
		return "", fmt.Errorf("invalid speed unit %q, must be one of %s", unit, strings.Join(ValidUnits, ", "))
	}
	return unit, nil
}

// ConvertSpeed converts a speed from position-units per second (metres per
// second for metre-scaled sensors) to the target units.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPS:
		return speedMPS
	case MPH:
		return speedMPS * 2.2369362920544
	case KMPH, KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}

// Speed returns the magnitude of a 3D velocity vector.
func Speed(vx, vy, vz float64) float64 {
	return math.Sqrt(vx*vx + vy*vy + vz*vz)
}
