package flow

import (
	"time"

	"github.com/banshee-data/cvhacks/internal/params"
	"github.com/banshee-data/cvhacks/internal/timeutil"
)

// DefaultMoveStep is the sampling stride in pixels.
const DefaultMoveStep = 16

// Velocity is the per-frame result of Calculator.Process.
type Velocity struct {
	X, Y float64
	Unit string // units.PXPS or units.MPS
}

// CalculatorConfig fixes the per-stream parameters.
type CalculatorConfig struct {
	MoveStep         int     // sampling stride; 0 means DefaultMoveStep
	PerspectiveAngle float64 // radians; 0 disables physical conversion
}

// Calculator converts successive flow fields from one video stream into
// velocities. It remembers when it was last called so that a zero timestep
// can fall back to wall-clock time. A Calculator is not safe for concurrent
// use; create one per stream.
type Calculator struct {
	cfg      CalculatorConfig
	clock    timeutil.Clock
	prevTime time.Time
	hasPrev  bool
}

// NewCalculator validates cfg. A nil clock uses the real clock.
func NewCalculator(cfg CalculatorConfig, clock timeutil.Clock) (*Calculator, error) {
	if cfg.MoveStep == 0 {
		cfg.MoveStep = DefaultMoveStep
	}
	if cfg.MoveStep < 0 {
		return nil, params.Invalid("move step", float64(cfg.MoveStep), "must be > 0")
	}
	if err := (Camera{PerspectiveAngle: cfg.PerspectiveAngle}).Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Calculator{cfg: cfg, clock: clock}, nil
}

// MoveStep returns the sampling stride in use.
func (c *Calculator) MoveStep() int {
	return c.cfg.MoveStep
}

// Timestep resolves the timestep for the current call. A nonzero
// timestepSeconds is used as given. Zero means the time since the previous
// call, or 1 second on the first call. The previous-call time is updated
// either way.
func (c *Calculator) Timestep(timestepSeconds float64) float64 {
	now := c.clock.Now()
	if timestepSeconds == 0 {
		if c.hasPrev {
			timestepSeconds = now.Sub(c.prevTime).Seconds()
		} else {
			timestepSeconds = 1
		}
	}
	c.prevTime = now
	c.hasPrev = true
	return timestepSeconds
}

// Process sums field on the configured stride and returns the average X and
// Y velocity. distanceMeters of zero keeps the result in pixels per second.
// visit, when non-nil, receives each sampled vector for drawing.
//
// The call time is recorded as soon as the field has been summed, so a call
// that is then rejected during normalisation still becomes the reference
// for the next zero-timestep call.
func (c *Calculator) Process(field Field, distanceMeters, timestepSeconds float64, visit func(Vector)) (Velocity, error) {
	count, err := SampleCount(field.Height, field.Width, c.cfg.MoveStep)
	if err != nil {
		return Velocity{}, err
	}
	xsum, ysum, err := Sum(field, c.cfg.MoveStep, visit)
	if err != nil {
		return Velocity{}, err
	}

	cam := Camera{PerspectiveAngle: c.cfg.PerspectiveAngle, DistanceMeters: distanceMeters}
	ts := c.Timestep(timestepSeconds)

	xvel, err := NormalizeVelocity(Sample{SumPixels: xsum, Count: count, TimestepSeconds: ts, DimensionPixels: field.Width}, cam)
	if err != nil {
		return Velocity{}, err
	}
	yvel, err := NormalizeVelocity(Sample{SumPixels: ysum, Count: count, TimestepSeconds: ts, DimensionPixels: field.Height}, cam)
	if err != nil {
		return Velocity{}, err
	}
	return Velocity{X: xvel, Y: yvel, Unit: cam.Unit()}, nil
}
