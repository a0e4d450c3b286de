package kalman

// Filter1D smooths a single scalar signal.
type Filter1D struct {
	f *Filter
}

// NewFilter1D creates a one-dimensional filter.
func NewFilter1D(cfg Config) (*Filter1D, error) {
	f, err := New(1, cfg)
	if err != nil {
		return nil, err
	}
	return &Filter1D{f: f}, nil
}

// Update feeds one measurement.
func (k *Filter1D) Update(x float64) error {
	return k.f.Update([]float64{x})
}

// Estimate returns the corrected value, or 0 before the first Update.
func (k *Filter1D) Estimate() float64 {
	v, ok := k.f.Estimate()
	if !ok {
		return 0
	}
	return v[0]
}

// Prediction returns the predicted value from the last Update, or 0.
func (k *Filter1D) Prediction() float64 {
	v, ok := k.f.Prediction()
	if !ok {
		return 0
	}
	return v[0]
}

// Smooth runs the filter over xs and returns the estimate after each sample.
func (k *Filter1D) Smooth(xs []float64) ([]float64, error) {
	out := make([]float64, len(xs))
	for i, x := range xs {
		if err := k.Update(x); err != nil {
			return nil, err
		}
		out[i] = k.Estimate()
	}
	return out, nil
}
