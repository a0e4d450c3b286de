package kalman

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/cvhacks/internal/params"
)

func TestNew_Matrices(t *testing.T) {
	f, err := New(2, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 2, f.Dims())

	r, c := f.F.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 4, c)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			assert.Equal(t, want, f.F.At(i, j), "F[%d,%d]", i, j)
		}
	}

	r, c = f.H.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 4, c)
	assert.Equal(t, 1.0, f.H.At(0, 0))
	assert.Equal(t, 1.0, f.H.At(1, 1))
	assert.Equal(t, 0.0, f.H.At(0, 2))

	assert.Equal(t, 1e-4, f.Q.At(3, 3))
	assert.Equal(t, 1e-1, f.R.At(1, 1))
	assert.Equal(t, 0.1, f.P.At(2, 2))
}

func TestNew_ConstantVelocityTransition(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dt = 0.5
	f, err := New(2, cfg)
	require.NoError(t, err)

	assert.Equal(t, 0.5, f.F.At(0, 2))
	assert.Equal(t, 0.5, f.F.At(1, 3))
	assert.Equal(t, 0.0, f.F.At(0, 3))
	assert.Equal(t, 1.0, f.F.At(2, 2))
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		dims int
		cfg  Config
	}{
		{"zero dims", 0, DefaultConfig()},
		{"negative process noise", 1, Config{ProcessNoise: -1, MeasurementNoise: 1}},
		{"zero measurement noise", 1, Config{ProcessNoise: 1, MeasurementNoise: 0}},
		{"NaN covariance", 1, Config{MeasurementNoise: 1, ErrorCovariancePost: math.NaN()}},
		{"negative dt", 1, Config{MeasurementNoise: 1, Dt: -0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.dims, tt.cfg)
			assert.ErrorIs(t, err, params.ErrInvalidParameter)
		})
	}
}

func TestFilter_FirstUpdate(t *testing.T) {
	f, err := New(1, DefaultConfig())
	require.NoError(t, err)

	_, ok := f.Estimate()
	assert.False(t, ok, "no estimate before first update")
	_, ok = f.Prediction()
	assert.False(t, ok, "no prediction before first update")

	require.NoError(t, f.Update([]float64{1}))

	// P' = 0.1 + 1e-4; K = P'/(P'+R).
	pPre := 0.1 + 1e-4
	k := pPre / (pPre + 0.1)

	pred, ok := f.Prediction()
	require.True(t, ok)
	assert.InDelta(t, 0.0, pred[0], 1e-12)

	est, ok := f.Estimate()
	require.True(t, ok)
	assert.InDelta(t, k, est[0], 1e-12)

	assert.InDelta(t, (1-k)*pPre, f.P.At(0, 0), 1e-12)
}

func TestFilter_ConvergesToConstant(t *testing.T) {
	f, err := New(2, DefaultConfig())
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		require.NoError(t, f.Update([]float64{3, -7}))
	}
	est, ok := f.Estimate()
	require.True(t, ok)
	assert.InDelta(t, 3.0, est[0], 1e-3)
	assert.InDelta(t, -7.0, est[1], 1e-3)
	assert.Len(t, f.State(), 4)
}

func TestFilter_ConstantVelocityTracksRamp(t *testing.T) {
	cfg := Config{ProcessNoise: 1e-3, MeasurementNoise: 1e-2, ErrorCovariancePost: 1, Dt: 1}
	f, err := New(1, cfg)
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		require.NoError(t, f.Update([]float64{2 * float64(i)}))
	}
	state := f.State()
	assert.InDelta(t, 398.0, state[0], 0.5)
	assert.InDelta(t, 2.0, state[1], 0.05, "rate component should learn the slope")
}

func TestFilter_UpdateRejectsBadObservation(t *testing.T) {
	f, err := New(2, DefaultConfig())
	require.NoError(t, err)

	assert.ErrorIs(t, f.Update([]float64{1}), params.ErrInvalidParameter)
	assert.ErrorIs(t, f.Update([]float64{1, math.Inf(1)}), params.ErrInvalidParameter)

	_, ok := f.Estimate()
	assert.False(t, ok, "rejected updates must not produce an estimate")
}

func TestFilter_FailedCorrectLeavesStateUntouched(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dt = 1
	f, err := New(1, cfg)
	require.NoError(t, err)
	require.NoError(t, f.Update([]float64{2}))
	require.NoError(t, f.Update([]float64{3}))

	state := f.State()
	pred, ok := f.Prediction()
	require.True(t, ok)
	est, _ := f.Estimate()

	// A zero covariance makes the innovation covariance singular.
	n, _ := f.P.Dims()
	f.P = mat.NewDense(n, n, nil)
	f.Q = mat.NewDense(n, n, nil)
	f.R = mat.NewDense(1, 1, nil)
	p := mat.DenseCopyOf(f.P)

	require.Error(t, f.Update([]float64{4}))

	assert.Equal(t, state, f.State())
	gotPred, ok := f.Prediction()
	require.True(t, ok)
	assert.Equal(t, pred, gotPred)
	gotEst, ok := f.Estimate()
	require.True(t, ok)
	assert.Equal(t, est, gotEst)
	assert.True(t, mat.Equal(p, f.P), "covariance changed by a failed update")
}

func TestFilter1D_Smooth(t *testing.T) {
	k, err := NewFilter1D(DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 0.0, k.Estimate())
	assert.Equal(t, 0.0, k.Prediction())

	warm := make([]float64, 200)
	for i := range warm {
		warm[i] = 1
	}
	_, err = k.Smooth(warm)
	require.NoError(t, err)

	noisy := make([]float64, 50)
	for i := range noisy {
		noisy[i] = 1 + 0.1*math.Pow(-1, float64(i))
	}
	out, err := k.Smooth(noisy)
	require.NoError(t, err)
	require.Len(t, out, len(noisy))

	for i, v := range out {
		assert.InDelta(t, 1.0, v, 0.02, "smoothed sample %d should stay near the true value", i)
	}
	assert.Equal(t, out[len(out)-1], k.Estimate())
}

func TestNewFilter1D_Invalid(t *testing.T) {
	_, err := NewFilter1D(Config{})
	assert.ErrorIs(t, err, params.ErrInvalidParameter)
}
