// Package flow turns a dense optical-flow field into a velocity estimate.
//
// The flow field itself comes from an external estimator (Farneback in the
// showflow demo). This package samples the field on a fixed stride, sums each
// component, and normalises the sum into pixels per second or, when the
// camera geometry is known, meters per second via the pinhole relation.
package flow

import (
	"math"

	"github.com/banshee-data/cvhacks/internal/params"
	"github.com/banshee-data/cvhacks/internal/units"
)

// Sample is one axis of accumulated flow for a frame.
type Sample struct {
	SumPixels       float64 // signed sum of one flow component over the grid
	Count           int     // grid points summed
	TimestepSeconds float64
	DimensionPixels int // image extent along the axis being converted
}

// Camera enables physical conversion. A zero PerspectiveAngle or a zero
// DistanceMeters leaves the velocity in pixels per second.
type Camera struct {
	PerspectiveAngle float64 // full field-of-view angle in radians
	DistanceMeters   float64 // distance to the imaged surface
}

// Converts reports whether NormalizeVelocity will return meters per second.
func (c Camera) Converts() bool {
	return c.PerspectiveAngle != 0 && c.DistanceMeters != 0
}

// Unit returns the unit NormalizeVelocity reports in for this camera.
func (c Camera) Unit() string {
	if c.Converts() {
		return units.MPS
	}
	return units.PXPS
}

// Validate checks the camera geometry independent of any sample.
func (c Camera) Validate() error {
	if c.PerspectiveAngle != 0 {
		if err := params.RequireOpenRange("perspective angle", c.PerspectiveAngle, 0, math.Pi); err != nil {
			return err
		}
	}
	if err := params.RequireFinite("distance", c.DistanceMeters); err != nil {
		return err
	}
	if c.DistanceMeters < 0 {
		return params.Invalid("distance", c.DistanceMeters, "must not be negative")
	}
	return nil
}

// NormalizeVelocity converts an accumulated flow sum into an average
// velocity: SumPixels / Count / TimestepSeconds, then divided by pixels per
// meter when cam converts.
func NormalizeVelocity(s Sample, cam Camera) (float64, error) {
	if s.Count <= 0 {
		return 0, params.Invalid("sample count", float64(s.Count), "must be > 0")
	}
	if err := params.RequireFinite("sum", s.SumPixels); err != nil {
		return 0, err
	}
	if err := params.RequirePositive("timestep", s.TimestepSeconds); err != nil {
		return 0, err
	}
	if err := cam.Validate(); err != nil {
		return 0, err
	}

	pixelsPerSecond := s.SumPixels / float64(s.Count) / s.TimestepSeconds
	if !cam.Converts() {
		return pixelsPerSecond, nil
	}

	if s.DimensionPixels <= 0 {
		return 0, params.Invalid("dimension", float64(s.DimensionPixels), "must be > 0")
	}
	return pixelsPerSecond / PixelsPerMeter(s.DimensionPixels, cam), nil
}

// PixelsPerMeter returns the image scale at the camera's subject distance:
// ((dimension/2) / tan(angle/2)) / distance. The camera must convert.
func PixelsPerMeter(dimensionPixels int, cam Camera) float64 {
	distancePixels := (float64(dimensionPixels) / 2) / math.Tan(cam.PerspectiveAngle/2)
	return distancePixels / cam.DistanceMeters
}
