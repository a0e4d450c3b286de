// Package warp derives a planar homography from a virtual camera pose so a
// frame can be rendered as if viewed from a rotated, tilted camera.
//
// The pose is applied to the image plane in 3D: roll about Y (gamma), then
// rotation about the optical axis (theta), then tilt about X (phi). The
// plane is pushed back along Z until its diagonal exactly fills the
// vertical field of view, and then projected. The four projected corners
// define the homography.
package warp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/cvhacks/internal/params"
)

// Pose describes the virtual camera. Angles are in degrees.
type Pose struct {
	ThetaDeg float64 // rotation about the optical (Z) axis
	PhiDeg   float64 // tilt about the horizontal (X) axis
	GammaDeg float64 // roll about the vertical (Y) axis
	Scale    float64
	FovyDeg  float64 // vertical field of view, strictly inside (0, 180)
}

// DefaultPose is the pose used by the warp camera demo.
func DefaultPose() Pose {
	return Pose{ThetaDeg: 5, PhiDeg: 50, GammaDeg: 0, Scale: 1, FovyDeg: 30}
}

// Validate rejects poses that would produce a degenerate projection.
func (p Pose) Validate() error {
	for _, a := range []struct {
		name string
		v    float64
	}{{"theta", p.ThetaDeg}, {"phi", p.PhiDeg}, {"gamma", p.GammaDeg}} {
		if err := params.RequireFinite(a.name, a.v); err != nil {
			return err
		}
	}
	if err := params.RequirePositive("scale", p.Scale); err != nil {
		return err
	}
	return params.RequireOpenRange("fovy", p.FovyDeg, 0, 180)
}

func validateExtent(height, width int) error {
	if height <= 0 {
		return params.Invalid("height", float64(height), "must be > 0")
	}
	if width <= 0 {
		return params.Invalid("width", float64(width), "must be > 0")
	}
	return nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// SideLength returns the edge of the square canvas that bounds the warped
// image: scale * diagonal / cos(fovy/2).
func SideLength(height, width int, pose Pose) (float64, error) {
	if err := validateExtent(height, width); err != nil {
		return 0, err
	}
	if err := pose.Validate(); err != nil {
		return 0, err
	}
	d := math.Hypot(float64(height), float64(width))
	return pose.Scale * d / math.Cos(radians(pose.FovyDeg*0.5)), nil
}

// BuildMatrix returns the 3x3 homography mapping source pixels of a
// height x width image onto a square canvas, together with the canvas edge
// length in pixels.
func BuildMatrix(height, width int, pose Pose) (*mat.Dense, float64, error) {
	sideLength, err := SideLength(height, width, pose)
	if err != nil {
		return nil, 0, err
	}

	F := masterTransform(height, width, pose)

	halfW := float64(width) / 2
	halfH := float64(height) / 2
	corners := [4][2]float64{
		{-halfW, halfH},
		{halfW, halfH},
		{halfW, -halfH},
		{-halfW, -halfH},
	}

	var src, dst [4][2]float64
	for i, c := range corners {
		px, py, err := project(F, c[0], c[1], 0)
		if err != nil {
			return nil, 0, err
		}
		src[i] = [2]float64{c[0] + halfW, c[1] + halfH}
		dst[i] = [2]float64{(px + 1) * sideLength * 0.5, (py + 1) * sideLength * 0.5}
	}

	H, err := perspectiveTransform(src, dst)
	if err != nil {
		return nil, 0, fmt.Errorf("solve corner correspondence: %w", err)
	}
	return H, sideLength, nil
}

// masterTransform composes F = P * T * Rphi * Rtheta * Rgamma.
func masterTransform(height, width int, pose Pose) *mat.Dense {
	st, ct := math.Sincos(radians(pose.ThetaDeg))
	sp, cp := math.Sincos(radians(pose.PhiDeg))
	sg, cg := math.Sincos(radians(pose.GammaDeg))

	halfFovy := radians(pose.FovyDeg * 0.5)
	d := math.Hypot(float64(height), float64(width))
	h := d / (2.0 * math.Sin(halfFovy))
	n := h - d/2.0
	f := h + d/2.0

	Rtheta := mat.NewDense(4, 4, []float64{
		ct, -st, 0, 0,
		st, ct, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
	Rphi := mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, cp, -sp, 0,
		0, sp, cp, 0,
		0, 0, 0, 1,
	})
	Rgamma := mat.NewDense(4, 4, []float64{
		cg, 0, -sg, 0,
		0, 1, 0, 0,
		sg, 0, cg, 0,
		0, 0, 0, 1,
	})
	T := mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, -h,
		0, 0, 0, 1,
	})

	cot := 1.0 / math.Tan(halfFovy)
	P := mat.NewDense(4, 4, []float64{
		cot, 0, 0, 0,
		0, cot, 0, 0,
		0, 0, -(f + n) / (f - n), -(2.0 * f * n) / (f - n),
		0, 0, -1, 0,
	})

	var F mat.Dense
	F.Product(P, T, Rphi, Rtheta, Rgamma)
	return &F
}

// project applies a 4x4 homogeneous transform with perspective divide.
func project(F mat.Matrix, x, y, z float64) (float64, float64, error) {
	v := mat.NewVecDense(4, []float64{x, y, z, 1})
	var out mat.VecDense
	out.MulVec(F, v)

	w := out.AtVec(3)
	if w == 0 || math.IsNaN(w) {
		return 0, 0, params.Invalid("w", w, "corner projects to the camera plane")
	}
	return out.AtVec(0) / w, out.AtVec(1) / w, nil
}

// perspectiveTransform solves the 8x8 system for the homography taking
// src[i] to dst[i], with H[2][2] fixed at 1.
func perspectiveTransform(src, dst [4][2]float64) (*mat.Dense, error) {
	A := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		X, Y := src[i][0], src[i][1]
		u, v := dst[i][0], dst[i][1]

		A.SetRow(i, []float64{X, Y, 1, 0, 0, 0, -X * u, -Y * u})
		A.SetRow(i+4, []float64{0, 0, 0, X, Y, 1, -X * v, -Y * v})
		b.SetVec(i, u)
		b.SetVec(i+4, v)
	}

	var h mat.VecDense
	if err := h.SolveVec(A, b); err != nil && singular(err) {
		return nil, params.Invalid("corners", math.Inf(1), "correspondence is singular")
	}

	H := mat.NewDense(3, 3, []float64{
		h.AtVec(0), h.AtVec(1), h.AtVec(2),
		h.AtVec(3), h.AtVec(4), h.AtVec(5),
		h.AtVec(6), h.AtVec(7), 1,
	})
	for _, e := range H.RawMatrix().Data {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return nil, params.Invalid("homography", e, "solution is not finite")
		}
	}
	return H, nil
}

// singular reports whether a gonum solve error means no usable solution.
// A finite mat.Condition is only an accuracy warning.
func singular(err error) bool {
	var cond mat.Condition
	if errors.As(err, &cond) {
		return math.IsInf(float64(cond), 1)
	}
	return true
}

// Apply maps the pixel (x, y) through the homography H.
func Apply(H mat.Matrix, x, y float64) (float64, float64, error) {
	if r, c := H.Dims(); r != 3 || c != 3 {
		return 0, 0, params.Invalid("homography rows", float64(r), "must be 3x3")
	}
	w := H.At(2, 0)*x + H.At(2, 1)*y + H.At(2, 2)
	if w == 0 {
		return 0, 0, params.Invalid("w", w, "point maps to infinity")
	}
	u := (H.At(0, 0)*x + H.At(0, 1)*y + H.At(0, 2)) / w
	v := (H.At(1, 0)*x + H.At(1, 1)*y + H.At(1, 2)) / w
	return u, v, nil
}
