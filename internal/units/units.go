// Package units provides the velocity units the flow demos report in.
package units

import "strings"

// Unit constants
const (
	PXPS = "pxps" // pixels per second, used when no camera geometry is known
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{PXPS, MPS, MPH, KMPH, KPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// IsPhysical reports whether unit expresses a real-world speed rather than
// an image-space rate.
func IsPhysical(unit string) bool {
	return unit != PXPS && IsValid(unit)
}

// ConvertSpeed converts a speed from meters per second to the target units.
// Pixel rates cannot be derived from m/s, so PXPS and unknown units return
// the input unchanged.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * 2.2369362920544
	case KMPH, KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}

// Label returns a short display suffix such as "m/s" or "px/s".
func Label(unit string) string {
	switch unit {
	case PXPS:
		return "px/s"
	case MPS:
		return "m/s"
	case MPH:
		return "mph"
	case KMPH, KPH:
		return "km/h"
	default:
		return unit
	}
}
