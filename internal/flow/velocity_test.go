package flow

import (
	"math"
	"testing"

	"github.com/banshee-data/cvhacks/internal/params"
	"github.com/banshee-data/cvhacks/internal/testutil"
	"github.com/banshee-data/cvhacks/internal/units"
)

func TestNormalizeVelocity_ZeroSum(t *testing.T) {
	v, err := NormalizeVelocity(Sample{SumPixels: 0, Count: 100, TimestepSeconds: 1, DimensionPixels: 640}, Camera{})
	testutil.AssertNoError(t, err)
	if v != 0.0 {
		t.Errorf("velocity = %v, want exactly 0", v)
	}
}

func TestNormalizeVelocity_PixelsPerSecond(t *testing.T) {
	s := Sample{SumPixels: 1600, Count: 100, TimestepSeconds: 2, DimensionPixels: 640}

	// A distance alone does not request conversion.
	for _, dist := range []float64{0, 1, 25} {
		v, err := NormalizeVelocity(s, Camera{PerspectiveAngle: 0, DistanceMeters: dist})
		testutil.AssertNoError(t, err)
		if v != 8.0 {
			t.Errorf("distance %g: velocity = %v, want 8", dist, v)
		}
	}

	// An angle without a distance does not either.
	v, err := NormalizeVelocity(s, Camera{PerspectiveAngle: math.Pi / 3})
	testutil.AssertNoError(t, err)
	if v != 8.0 {
		t.Errorf("angle only: velocity = %v, want 8", v)
	}
}

func TestNormalizeVelocity_UnitPixelPerMeterIdentity(t *testing.T) {
	cam := Camera{PerspectiveAngle: math.Pi / 2, DistanceMeters: 1}
	testutil.AssertClose(t, "pixels per meter", PixelsPerMeter(2, cam), 1, 1e-12)

	for _, pxps := range []float64{-3.5, 0.25, 8, 1200} {
		v, err := NormalizeVelocity(Sample{SumPixels: pxps, Count: 1, TimestepSeconds: 1, DimensionPixels: 2}, cam)
		testutil.AssertNoError(t, err)
		testutil.AssertClose(t, "velocity", v, pxps, 1e-12)
	}
}

func TestNormalizeVelocity_PinholeConversion(t *testing.T) {
	// 60° field of view across 640 px: distancePixels = 320 / tan(30°).
	cam := Camera{PerspectiveAngle: math.Pi / 3, DistanceMeters: 4}
	s := Sample{SumPixels: 5000, Count: 100, TimestepSeconds: 0.5, DimensionPixels: 640}

	pxps := 5000.0 / 100 / 0.5
	ppm := (320 / math.Tan(math.Pi/6)) / 4
	v, err := NormalizeVelocity(s, cam)
	testutil.AssertNoError(t, err)
	testutil.AssertClose(t, "velocity", v, pxps/ppm, 1e-12)

	if cam.Unit() != units.MPS {
		t.Errorf("Unit() = %q, want %q", cam.Unit(), units.MPS)
	}
	if (Camera{}).Unit() != units.PXPS {
		t.Errorf("zero camera Unit() = %q, want %q", (Camera{}).Unit(), units.PXPS)
	}
}

func TestNormalizeVelocity_InvalidParameters(t *testing.T) {
	good := Sample{SumPixels: 10, Count: 10, TimestepSeconds: 1, DimensionPixels: 640}

	tests := []struct {
		name string
		s    Sample
		cam  Camera
	}{
		{"zero count", Sample{SumPixels: 10, Count: 0, TimestepSeconds: 1, DimensionPixels: 640}, Camera{}},
		{"negative count", Sample{SumPixels: 10, Count: -4, TimestepSeconds: 1, DimensionPixels: 640}, Camera{}},
		{"zero timestep", Sample{SumPixels: 10, Count: 10, TimestepSeconds: 0, DimensionPixels: 640}, Camera{}},
		{"NaN sum", Sample{SumPixels: math.NaN(), Count: 10, TimestepSeconds: 1, DimensionPixels: 640}, Camera{}},
		{"angle pi", good, Camera{PerspectiveAngle: math.Pi, DistanceMeters: 1}},
		{"angle above pi", good, Camera{PerspectiveAngle: 4, DistanceMeters: 1}},
		{"negative angle", good, Camera{PerspectiveAngle: -0.5, DistanceMeters: 1}},
		{"negative distance", good, Camera{PerspectiveAngle: 1, DistanceMeters: -2}},
		{"zero dimension when converting", Sample{SumPixels: 10, Count: 10, TimestepSeconds: 1}, Camera{PerspectiveAngle: 1, DistanceMeters: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NormalizeVelocity(tt.s, tt.cam)
			testutil.AssertErrorIs(t, err, params.ErrInvalidParameter)
			if v != 0 {
				t.Errorf("expected no partial result, got %v", v)
			}
		})
	}
}
