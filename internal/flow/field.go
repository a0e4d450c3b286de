package flow

import (
	"fmt"

	"github.com/banshee-data/cvhacks/internal/params"
)

// Field is a dense two-channel flow field laid out row-major with the x and
// y displacement of each pixel interleaved, matching a CV_32FC2 matrix.
type Field struct {
	Width  int
	Height int
	Data   []float32 // len == Width*Height*2
}

// NewField wraps data as a flow field after checking its length.
func NewField(width, height int, data []float32) (Field, error) {
	if width <= 0 || height <= 0 {
		return Field{}, params.Invalid("field size", float64(width*height), fmt.Sprintf("%dx%d is empty", width, height))
	}
	if len(data) != width*height*2 {
		return Field{}, params.Invalid("field data", float64(len(data)), fmt.Sprintf("want %d values for %dx%d", width*height*2, width, height))
	}
	return Field{Width: width, Height: height, Data: data}, nil
}

// At returns the displacement at pixel (x, y).
func (f Field) At(x, y int) (fx, fy float32) {
	i := (y*f.Width + x) * 2
	return f.Data[i], f.Data[i+1]
}

// Vector is one sampled flow vector anchored at pixel (X, Y).
type Vector struct {
	X, Y   int
	DX, DY float64
}

// SampleCount returns (height/step) * (width/step), the normaliser for a
// stride-sampled sum.
func SampleCount(height, width, step int) (int, error) {
	if step <= 0 {
		return 0, params.Invalid("move step", float64(step), "must be > 0")
	}
	if height <= 0 || width <= 0 {
		return 0, params.Invalid("field size", float64(height*width), "must be > 0")
	}
	count := (height / step) * (width / step)
	if count <= 0 {
		return 0, params.Invalid("move step", float64(step), fmt.Sprintf("larger than %dx%d field", width, height))
	}
	return count, nil
}

// Sum adds the flow components at every step-th pixel in both directions,
// starting at (0, 0). visit, when non-nil, receives each sampled vector.
func Sum(f Field, step int, visit func(Vector)) (xsum, ysum float64, err error) {
	if step <= 0 {
		return 0, 0, params.Invalid("move step", float64(step), "must be > 0")
	}
	if len(f.Data) < f.Width*f.Height*2 {
		return 0, 0, params.Invalid("field data", float64(len(f.Data)), "shorter than width*height*2")
	}

	for y := 0; y < f.Height; y += step {
		for x := 0; x < f.Width; x += step {
			fx, fy := f.At(x, y)
			xsum += float64(fx)
			ysum += float64(fy)
			if visit != nil {
				visit(Vector{X: x, Y: y, DX: float64(fx), DY: float64(fy)})
			}
		}
	}
	return xsum, ysum, nil
}
