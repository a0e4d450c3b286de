package flow

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/cvhacks/internal/params"
	"github.com/banshee-data/cvhacks/internal/testutil"
)

// constantField returns a width x height field where every pixel moves by (dx, dy).
func constantField(width, height int, dx, dy float32) Field {
	data := make([]float32, width*height*2)
	for i := 0; i < len(data); i += 2 {
		data[i] = dx
		data[i+1] = dy
	}
	return Field{Width: width, Height: height, Data: data}
}

func TestNewField(t *testing.T) {
	f, err := NewField(2, 1, []float32{1, 2, 3, 4})
	testutil.AssertNoError(t, err)
	if fx, fy := f.At(1, 0); fx != 3 || fy != 4 {
		t.Errorf("At(1,0) = (%v,%v), want (3,4)", fx, fy)
	}

	_, err = NewField(2, 2, []float32{1, 2, 3})
	testutil.AssertErrorIs(t, err, params.ErrInvalidParameter)

	_, err = NewField(0, 2, nil)
	testutil.AssertErrorIs(t, err, params.ErrInvalidParameter)
}

func TestSampleCount(t *testing.T) {
	tests := []struct {
		name                string
		height, width, step int
		want                int
		wantErr             bool
	}{
		{"vga stride 16", 480, 640, 16, 1200, false},
		{"stride 1", 3, 4, 1, 12, false},
		{"non-divisible", 50, 70, 16, 12, false},
		{"stride equals min side", 16, 64, 16, 4, false},
		{"stride too large", 15, 64, 16, 0, true},
		{"zero stride", 480, 640, 0, 0, true},
		{"negative stride", 480, 640, -8, 0, true},
		{"empty field", 0, 640, 16, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SampleCount(tt.height, tt.width, tt.step)
			if tt.wantErr {
				testutil.AssertErrorIs(t, err, params.ErrInvalidParameter)
				return
			}
			testutil.AssertNoError(t, err)
			if got != tt.want {
				t.Errorf("SampleCount(%d, %d, %d) = %d, want %d", tt.height, tt.width, tt.step, got, tt.want)
			}
		})
	}
}

func TestSum_VisitsStrideGrid(t *testing.T) {
	f := constantField(5, 3, 1.5, -0.5)

	var visited []Vector
	xsum, ysum, err := Sum(f, 2, func(v Vector) { visited = append(visited, v) })
	testutil.AssertNoError(t, err)

	want := []Vector{
		{X: 0, Y: 0, DX: 1.5, DY: -0.5}, {X: 2, Y: 0, DX: 1.5, DY: -0.5}, {X: 4, Y: 0, DX: 1.5, DY: -0.5},
		{X: 0, Y: 2, DX: 1.5, DY: -0.5}, {X: 2, Y: 2, DX: 1.5, DY: -0.5}, {X: 4, Y: 2, DX: 1.5, DY: -0.5},
	}
	if diff := cmp.Diff(want, visited); diff != "" {
		t.Errorf("visited vectors mismatch (-want +got):\n%s", diff)
	}
	if xsum != 9 || ysum != -3 {
		t.Errorf("sums = (%v, %v), want (9, -3)", xsum, ysum)
	}
}

func TestSum_NilVisitor(t *testing.T) {
	xsum, ysum, err := Sum(constantField(4, 4, 1, 2), 1, nil)
	testutil.AssertNoError(t, err)
	if xsum != 16 || ysum != 32 {
		t.Errorf("sums = (%v, %v), want (16, 32)", xsum, ysum)
	}
}

func TestSum_InvalidInput(t *testing.T) {
	_, _, err := Sum(constantField(4, 4, 1, 1), 0, nil)
	testutil.AssertErrorIs(t, err, params.ErrInvalidParameter)

	short := Field{Width: 4, Height: 4, Data: make([]float32, 10)}
	_, _, err = Sum(short, 1, nil)
	testutil.AssertErrorIs(t, err, params.ErrInvalidParameter)
}
