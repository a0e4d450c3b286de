package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/cvhacks/internal/flow"
	"github.com/banshee-data/cvhacks/internal/greenball"
	"github.com/banshee-data/cvhacks/internal/kalman"
	"github.com/banshee-data/cvhacks/internal/units"
	"github.com/banshee-data/cvhacks/internal/warp"
)

// DefaultConfigPath is the path to the canonical demo defaults file.
const DefaultConfigPath = "config/demo.defaults.json"

// DemoConfig is the root configuration shared by the demo commands.
// Every field is optional; the Get* methods supply defaults.
type DemoConfig struct {
	Warp      *WarpConfig      `json:"warp,omitempty"`
	Flow      *FlowConfig      `json:"flow,omitempty"`
	Kalman    *KalmanConfig    `json:"kalman,omitempty"`
	GreenBall *GreenBallConfig `json:"greenball,omitempty"`
	Plot      *PlotConfig      `json:"plot,omitempty"`
}

// WarpConfig holds the tilt camera pose in degrees.
type WarpConfig struct {
	Theta *float64 `json:"theta,omitempty"`
	Phi   *float64 `json:"phi,omitempty"`
	Gamma *float64 `json:"gamma,omitempty"`
	Scale *float64 `json:"scale,omitempty"`
	Fovy  *float64 `json:"fovy,omitempty"`
}

// FlowConfig holds the optical flow velocity parameters.
type FlowConfig struct {
	MoveStep         *int     `json:"move_step,omitempty"`
	Scaledown        *float64 `json:"scaledown,omitempty"`         // frame size divisor
	PerspectiveAngle *float64 `json:"perspective_angle,omitempty"` // radians
	Distance         *float64 `json:"distance,omitempty"`          // meters
	Timestep         *float64 `json:"timestep,omitempty"`          // seconds, 0 uses the wall clock
	Units            *string  `json:"units,omitempty"`
}

// KalmanConfig holds the smoothing filter covariances.
type KalmanConfig struct {
	ProcessNoise        *float64 `json:"process_noise,omitempty"`
	MeasurementNoise    *float64 `json:"measurement_noise,omitempty"`
	ErrorCovariancePost *float64 `json:"error_covariance_post,omitempty"`
	Dt                  *float64 `json:"dt,omitempty"`
}

// GreenBallConfig holds the tracker threshold.
type GreenBallConfig struct {
	Threshold *int `json:"threshold,omitempty"`
}

// PlotConfig controls where demo plots are written.
type PlotConfig struct {
	Output *string `json:"output,omitempty"`
	Format *string `json:"format,omitempty"` // png or html
}

// LoadDemoConfig loads a DemoConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Omitted fields
// fall back to defaults, so partial configs are safe.
func LoadDemoConfig(path string) (*DemoConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &DemoConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadOrEmpty loads path, or returns an empty config when path is "".
func LoadOrEmpty(path string) (*DemoConfig, error) {
	if path == "" {
		return &DemoConfig{}, nil
	}
	return LoadDemoConfig(path)
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded, intended
// for test setup.
func MustLoadDefaultConfig() *DemoConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,       // from cmd/
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadDemoConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the values that are set.
func (c *DemoConfig) Validate() error {
	if c.Warp != nil {
		if err := c.GetPose().Validate(); err != nil {
			return fmt.Errorf("warp: %w", err)
		}
	}

	if f := c.Flow; f != nil {
		if f.MoveStep != nil && *f.MoveStep <= 0 {
			return fmt.Errorf("flow.move_step must be positive, got %d", *f.MoveStep)
		}
		if f.Scaledown != nil && !(*f.Scaledown >= 1) {
			return fmt.Errorf("flow.scaledown must be at least 1, got %f", *f.Scaledown)
		}
		if f.Timestep != nil && (*f.Timestep < 0 || math.IsNaN(*f.Timestep)) {
			return fmt.Errorf("flow.timestep must not be negative, got %f", *f.Timestep)
		}
		if f.Units != nil && !units.IsValid(*f.Units) {
			return fmt.Errorf("flow.units %q is not one of %s", *f.Units, units.GetValidUnitsString())
		}
		cam := flow.Camera{PerspectiveAngle: c.GetPerspectiveAngle(), DistanceMeters: c.GetDistance()}
		if err := cam.Validate(); err != nil {
			return fmt.Errorf("flow: %w", err)
		}
	}

	if c.Kalman != nil {
		if _, err := kalman.NewFilter1D(c.GetKalmanConfig()); err != nil {
			return fmt.Errorf("kalman: %w", err)
		}
	}

	if g := c.GreenBall; g != nil && g.Threshold != nil {
		if *g.Threshold < 0 || *g.Threshold > 255 {
			return fmt.Errorf("greenball.threshold must be between 0 and 255, got %d", *g.Threshold)
		}
	}

	if p := c.Plot; p != nil && p.Format != nil {
		switch strings.ToLower(*p.Format) {
		case "png", "html":
		default:
			return fmt.Errorf("plot.format must be png or html, got %q", *p.Format)
		}
	}

	return nil
}

// GetPose returns the warp pose, taking defaults from warp.DefaultPose.
func (c *DemoConfig) GetPose() warp.Pose {
	p := warp.DefaultPose()
	if w := c.Warp; w != nil {
		setFloat(&p.ThetaDeg, w.Theta)
		setFloat(&p.PhiDeg, w.Phi)
		setFloat(&p.GammaDeg, w.Gamma)
		setFloat(&p.Scale, w.Scale)
		setFloat(&p.FovyDeg, w.Fovy)
	}
	return p
}

// GetMoveStep returns the flow sampling stride or the default.
func (c *DemoConfig) GetMoveStep() int {
	if c.Flow == nil || c.Flow.MoveStep == nil {
		return flow.DefaultMoveStep
	}
	return *c.Flow.MoveStep
}

// GetScaledown returns the divisor applied to frame size before flow, or 1.
func (c *DemoConfig) GetScaledown() float64 {
	if c.Flow == nil || c.Flow.Scaledown == nil {
		return 1
	}
	return *c.Flow.Scaledown
}

// GetPerspectiveAngle returns the camera view angle in radians, 0 when unset.
func (c *DemoConfig) GetPerspectiveAngle() float64 {
	if c.Flow == nil || c.Flow.PerspectiveAngle == nil {
		return 0
	}
	return *c.Flow.PerspectiveAngle
}

// GetDistance returns the camera distance in meters, 0 when unset.
func (c *DemoConfig) GetDistance() float64 {
	if c.Flow == nil || c.Flow.Distance == nil {
		return 0
	}
	return *c.Flow.Distance
}

// GetTimestep returns the fixed frame interval in seconds. 0 means measure.
func (c *DemoConfig) GetTimestep() float64 {
	if c.Flow == nil || c.Flow.Timestep == nil {
		return 1
	}
	return *c.Flow.Timestep
}

// GetUnits returns the velocity display unit.
func (c *DemoConfig) GetUnits() string {
	if c.Flow == nil || c.Flow.Units == nil {
		return units.MPS
	}
	return *c.Flow.Units
}

// GetKalmanConfig returns the filter settings over kalman.DefaultConfig.
func (c *DemoConfig) GetKalmanConfig() kalman.Config {
	k := kalman.DefaultConfig()
	if kc := c.Kalman; kc != nil {
		setFloat(&k.ProcessNoise, kc.ProcessNoise)
		setFloat(&k.MeasurementNoise, kc.MeasurementNoise)
		setFloat(&k.ErrorCovariancePost, kc.ErrorCovariancePost)
		setFloat(&k.Dt, kc.Dt)
	}
	return k
}

// GetGreenThreshold returns the greenness threshold.
func (c *DemoConfig) GetGreenThreshold() uint8 {
	if c.GreenBall == nil || c.GreenBall.Threshold == nil {
		return greenball.DefaultThreshold
	}
	return uint8(*c.GreenBall.Threshold)
}

// GetPlotOutput returns the plot file path.
func (c *DemoConfig) GetPlotOutput() string {
	if c.Plot == nil || c.Plot.Output == nil || *c.Plot.Output == "" {
		return "kalman_sine.png"
	}
	return *c.Plot.Output
}

// GetPlotFormat returns the plot format, inferred from the output path
// when not set.
func (c *DemoConfig) GetPlotFormat() string {
	if c.Plot != nil && c.Plot.Format != nil && *c.Plot.Format != "" {
		return strings.ToLower(*c.Plot.Format)
	}
	if strings.EqualFold(filepath.Ext(c.GetPlotOutput()), ".html") {
		return "html"
	}
	return "png"
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
