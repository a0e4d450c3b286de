// Package params holds the single error kind shared by the numeric
// procedures: an input outside the domain the formula is defined on.
package params

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParameter is matched by every validation failure returned from
// warp, flow and kalman. Use errors.Is to test for it.
var ErrInvalidParameter = errors.New("invalid parameter")

// InvalidParameterError names the offending input.
type InvalidParameterError struct {
	Name   string
	Value  float64
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%g: %s", e.Name, e.Value, e.Reason)
}

// Is reports ErrInvalidParameter as the error kind.
func (e *InvalidParameterError) Is(target error) bool {
	return target == ErrInvalidParameter
}

// Invalid returns an *InvalidParameterError for name.
func Invalid(name string, value float64, reason string) error {
	return &InvalidParameterError{Name: name, Value: value, Reason: reason}
}

// RequireFinite rejects NaN and ±Inf.
func RequireFinite(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Invalid(name, value, "must be finite")
	}
	return nil
}

// RequirePositive rejects values that are not finite and strictly greater than zero.
func RequirePositive(name string, value float64) error {
	if err := RequireFinite(name, value); err != nil {
		return err
	}
	if value <= 0 {
		return Invalid(name, value, "must be > 0")
	}
	return nil
}

// RequireOpenRange rejects values outside (lo, hi).
func RequireOpenRange(name string, value, lo, hi float64) error {
	if err := RequireFinite(name, value); err != nil {
		return err
	}
	if value <= lo || value >= hi {
		return Invalid(name, value, fmt.Sprintf("must be strictly between %g and %g", lo, hi))
	}
	return nil
}
