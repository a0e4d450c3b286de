package warp

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/cvhacks/internal/params"
)

// borderColor fills canvas pixels that map outside the source.
var borderColor = color.NRGBA{A: 255}

// Image renders src as seen from pose onto a square canvas of
// int(SideLength) pixels. Each canvas pixel is mapped back through the
// inverse homography and sampled bilinearly; samples outside the source
// read as opaque black.
func Image(src image.Image, pose Pose) (*image.NRGBA, error) {
	b := src.Bounds()
	H, sideLength, err := BuildMatrix(b.Dy(), b.Dx(), pose)
	if err != nil {
		return nil, err
	}

	side := int(sideLength)
	if side < 1 {
		return nil, params.Invalid("side length", sideLength, "canvas is smaller than one pixel")
	}

	var inv mat.Dense
	if err := inv.Inverse(H); err != nil && singular(err) {
		return nil, params.Invalid("homography", math.Inf(1), "cannot be inverted")
	}

	return Render(imaging.Clone(src), &inv, side), nil
}

// Render fills a side x side canvas by sampling src at inv(u, v) for every
// canvas pixel (u, v).
func Render(src *image.NRGBA, inv mat.Matrix, side int) *image.NRGBA {
	dst := imaging.New(side, side, borderColor)

	h00, h01, h02 := inv.At(0, 0), inv.At(0, 1), inv.At(0, 2)
	h10, h11, h12 := inv.At(1, 0), inv.At(1, 1), inv.At(1, 2)
	h20, h21, h22 := inv.At(2, 0), inv.At(2, 1), inv.At(2, 2)

	for v := 0; v < side; v++ {
		fv := float64(v)
		row := dst.Pix[v*dst.Stride:]
		for u := 0; u < side; u++ {
			fu := float64(u)
			w := h20*fu + h21*fv + h22
			if w == 0 {
				continue
			}
			sx := (h00*fu + h01*fv + h02) / w
			sy := (h10*fu + h11*fv + h12) / w

			c, ok := sampleBilinear(src, sx, sy)
			if !ok {
				continue
			}
			i := u * 4
			row[i+0] = c.R
			row[i+1] = c.G
			row[i+2] = c.B
			row[i+3] = c.A
		}
	}
	return dst
}

// sampleBilinear blends the four pixels around (x, y). Neighbours outside
// src contribute the border colour; ok is false when all four are outside.
func sampleBilinear(src *image.NRGBA, x, y float64) (color.NRGBA, bool) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if math.IsNaN(x) || math.IsNaN(y) || x <= -1 || y <= -1 || x >= float64(w) || y >= float64(h) {
		return color.NRGBA{}, false
	}

	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	var acc [4]float64
	weights := [4]float64{(1 - fx) * (1 - fy), fx * (1 - fy), (1 - fx) * fy, fx * fy}
	offsets := [4][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	for k, off := range offsets {
		wk := weights[k]
		if wk == 0 {
			continue
		}
		px, py := x0+off[0], y0+off[1]
		var r, g, b, a uint8
		if px >= 0 && py >= 0 && px < w && py < h {
			i := py*src.Stride + px*4
			r, g, b, a = src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3]
		} else {
			r, g, b, a = borderColor.R, borderColor.G, borderColor.B, borderColor.A
		}
		acc[0] += wk * float64(r)
		acc[1] += wk * float64(g)
		acc[2] += wk * float64(b)
		acc[3] += wk * float64(a)
	}

	return color.NRGBA{R: clamp8(acc[0]), G: clamp8(acc[1]), B: clamp8(acc[2]), A: clamp8(acc[3])}, true
}

func clamp8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
