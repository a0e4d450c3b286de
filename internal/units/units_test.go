package units

import (
	"math"
	"testing"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid pxps", PXPS, true},
		{"valid mps", MPS, true},
		{"valid mph", MPH, true},
		{"valid kmph", KMPH, true},
		{"valid kph", KPH, true},
		{"invalid unit", "invalid", false},
		{"empty unit", "", false},
		{"uppercase MPS", "MPS", false}, // Case-sensitive
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValid(tt.unit)
			if result != tt.expected {
				t.Errorf("IsValid(%s) = %v, want %v", tt.unit, result, tt.expected)
			}
		})
	}
}

func TestGetValidUnitsString(t *testing.T) {
	expected := "pxps, mps, mph, kmph, kph"
	if result := GetValidUnitsString(); result != expected {
		t.Errorf("GetValidUnitsString() = %s, want %s", result, expected)
	}
}

func TestIsPhysical(t *testing.T) {
	if IsPhysical(PXPS) {
		t.Error("pxps should not be physical")
	}
	if !IsPhysical(MPH) {
		t.Error("mph should be physical")
	}
	if IsPhysical("furlongs") {
		t.Error("unknown unit should not be physical")
	}
}

func TestConvertSpeed(t *testing.T) {
	tests := []struct {
		name     string
		speedMPS float64
		unit     string
		expected float64
	}{
		{"1 m/s to mps", 1.0, MPS, 1.0},
		{"1 m/s to mph", 1.0, MPH, 2.2369362920544},
		{"5 m/s to mph", 5.0, MPH, 11.184681460272},
		{"1 m/s to kmph", 1.0, KMPH, 3.6},
		{"5 m/s to kph", 5.0, KPH, 18.0},
		{"negative flow to kmph", -2.0, KMPH, -7.2},
		{"pxps passes through", 7.0, PXPS, 7.0},
		{"unknown passes through", 7.0, "bogus", 7.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertSpeed(tt.speedMPS, tt.unit)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("ConvertSpeed(%f, %s) = %f, want %f", tt.speedMPS, tt.unit, result, tt.expected)
			}
		})
	}
}

func TestLabel(t *testing.T) {
	tests := map[string]string{
		PXPS:  "px/s",
		MPS:   "m/s",
		MPH:   "mph",
		KMPH:  "km/h",
		KPH:   "km/h",
		"odd": "odd",
	}
	for unit, want := range tests {
		if got := Label(unit); got != want {
			t.Errorf("Label(%q) = %q, want %q", unit, got, want)
		}
	}
}
