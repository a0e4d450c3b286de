package main

import (
	"math"
	"math/rand/v2"

	"github.com/banshee-data/cvhacks/internal/kalman"
	"github.com/banshee-data/cvhacks/internal/report"
)

const (
	defaultNoise = 0.1
	duration     = 2.0
	step         = 0.01
)

// sine returns t in [0, duration) with a 1 Hz sine and a copy carrying
// uniform noise in [-noise, noise).
func sine(rng *rand.Rand, noise float64) (t, clean, noisy []float64) {
	n := int(math.Round(duration / step))
	t = make([]float64, n)
	clean = make([]float64, n)
	noisy = make([]float64, n)
	for i := range t {
		t[i] = float64(i) * step
		clean[i] = math.Sin(2 * math.Pi * t[i])
		noisy[i] = clean[i] + noise*(2*rng.Float64()-1)
	}
	return t, clean, noisy
}

func smooth(filter *kalman.Filter1D, rng *rand.Rand, noise float64) (report.Chart, error) {
	t, clean, noisy := sine(rng, noise)
	filtered, err := filter.Smooth(noisy)
	if err != nil {
		return report.Chart{}, err
	}
	return report.Chart{
		Title:  "1D Kalman Filtering Example",
		XLabel: "time (s)",
		YLabel: "voltage (mV)",
		Series: []report.Series{
			{Name: "Original", X: t, Y: clean},
			{Name: "Noisy", X: t, Y: noisy},
			{Name: "Filtered", X: t, Y: filtered},
		},
	}, nil
}
