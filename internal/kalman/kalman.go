// Package kalman provides a small linear Kalman filter for smoothing noisy
// N-dimensional measurements such as tracked centroids or flow velocities.
//
// The state is 2N-dimensional: the N measured values followed by N rates.
// Measurements observe the first N state components directly. By default the
// transition is the identity (a random-walk model). Setting Config.Dt turns
// on a constant-velocity model in which each value advances by rate*dt per
// step.
package kalman

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/cvhacks/internal/params"
)

// Config holds the noise covariances and the model step.
type Config struct {
	ProcessNoise        float64 // Q = ProcessNoise * I
	MeasurementNoise    float64 // R = MeasurementNoise * I
	ErrorCovariancePost float64 // initial P = ErrorCovariancePost * I
	Dt                  float64 // 0 selects the identity transition
}

// DefaultConfig returns the covariances used by the demos.
func DefaultConfig() Config {
	return Config{
		ProcessNoise:        1e-4,
		MeasurementNoise:    1e-1,
		ErrorCovariancePost: 0.1,
	}
}

func (c Config) validate() error {
	if err := params.RequireFinite("process noise", c.ProcessNoise); err != nil {
		return err
	}
	if c.ProcessNoise < 0 {
		return params.Invalid("process noise", c.ProcessNoise, "must not be negative")
	}
	if err := params.RequirePositive("measurement noise", c.MeasurementNoise); err != nil {
		return err
	}
	if err := params.RequireFinite("error covariance", c.ErrorCovariancePost); err != nil {
		return err
	}
	if c.ErrorCovariancePost < 0 {
		return params.Invalid("error covariance", c.ErrorCovariancePost, "must not be negative")
	}
	if err := params.RequireFinite("dt", c.Dt); err != nil {
		return err
	}
	if c.Dt < 0 {
		return params.Invalid("dt", c.Dt, "must not be negative")
	}
	return nil
}

// Filter is a linear Kalman filter over N measured dimensions.
// It is not safe for concurrent use.
type Filter struct {
	dims int

	F *mat.Dense // state transition, 2N x 2N
	H *mat.Dense // measurement matrix, N x 2N
	Q *mat.Dense // process noise covariance
	R *mat.Dense // measurement noise covariance

	x *mat.VecDense // corrected state
	P *mat.Dense    // corrected error covariance

	predicted *mat.VecDense
	updated   bool
}

// New creates a filter for dims measured values.
func New(dims int, cfg Config) (*Filter, error) {
	if dims <= 0 {
		return nil, params.Invalid("dims", float64(dims), "must be > 0")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	n := dims * 2
	F := identity(n, 1)
	if cfg.Dt > 0 {
		for j := 0; j < dims; j++ {
			F.Set(j, j+dims, cfg.Dt)
		}
	}

	H := mat.NewDense(dims, n, nil)
	for j := 0; j < dims; j++ {
		H.Set(j, j, 1)
	}

	return &Filter{
		dims: dims,
		F:    F,
		H:    H,
		Q:    identity(n, cfg.ProcessNoise),
		R:    identity(dims, cfg.MeasurementNoise),
		x:    mat.NewVecDense(n, nil),
		P:    identity(n, cfg.ErrorCovariancePost),
	}, nil
}

func identity(n int, scale float64) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, scale)
	}
	return m
}

// Dims returns the number of measured values.
func (f *Filter) Dims() int {
	return f.dims
}

// Update runs one predict step followed by a correct step with obs. On
// error the filter is left as it was before the call.
func (f *Filter) Update(obs []float64) error {
	if len(obs) != f.dims {
		return params.Invalid("observation length", float64(len(obs)), fmt.Sprintf("want %d", f.dims))
	}
	for i, v := range obs {
		if err := params.RequireFinite(fmt.Sprintf("observation[%d]", i), v); err != nil {
			return err
		}
	}

	xPre, pPre := f.predict()
	x, P, err := f.correct(xPre, pPre, mat.NewVecDense(f.dims, append([]float64(nil), obs...)))
	if err != nil {
		return err
	}
	f.x, f.P = x, P
	f.predicted = xPre
	f.updated = true
	return nil
}

// predict: x' = F x, P' = F P F^T + Q. The filter is not modified.
func (f *Filter) predict() (*mat.VecDense, *mat.Dense) {
	var xPre mat.VecDense
	xPre.MulVec(f.F, f.x)

	var pPre mat.Dense
	pPre.Product(f.F, f.P, f.F.T())
	pPre.Add(&pPre, f.Q)
	return &xPre, &pPre
}

// correct: K = P' H^T S^-1 with S = H P' H^T + R, x = x' + K (z - H x'),
// P = P' - K H P'. It returns the corrected state without storing it.
func (f *Filter) correct(xPre *mat.VecDense, pPre *mat.Dense, z *mat.VecDense) (*mat.VecDense, *mat.Dense, error) {
	var HP mat.Dense
	HP.Mul(f.H, pPre)

	var S mat.Dense
	S.Mul(&HP, f.H.T())
	S.Add(&S, f.R)

	// S is symmetric, so K^T = S^-1 (H P').
	var Kt mat.Dense
	if err := Kt.Solve(&S, &HP); err != nil {
		return nil, nil, fmt.Errorf("innovation covariance: %w", err)
	}

	var Hx, innovation mat.VecDense
	Hx.MulVec(f.H, xPre)
	innovation.SubVec(z, &Hx)

	var gain, x mat.VecDense
	gain.MulVec(Kt.T(), &innovation)
	x.AddVec(xPre, &gain)

	var KHP, P mat.Dense
	KHP.Mul(Kt.T(), &HP)
	P.Sub(pPre, &KHP)
	return &x, &P, nil
}

// Estimate returns the corrected measured components. ok is false until
// the first Update.
func (f *Filter) Estimate() (values []float64, ok bool) {
	if !f.updated {
		return nil, false
	}
	return head(f.x, f.dims), true
}

// Prediction returns the predicted measured components from the last
// Update, before correction.
func (f *Filter) Prediction() (values []float64, ok bool) {
	if f.predicted == nil {
		return nil, false
	}
	return head(f.predicted, f.dims), true
}

// State returns a copy of the full corrected state vector.
func (f *Filter) State() []float64 {
	return head(f.x, f.x.Len())
}

func head(v mat.Vector, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
