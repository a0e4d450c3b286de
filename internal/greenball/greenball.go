// Package greenball locates a green object in a colour frame by its
// centroid.
//
// A frame is reduced to a "greenness" image: the green channel minus a third
// of the red channel and a third of the blue channel, saturating at zero.
// This image is binarised, eroded once to drop speckle, and the centroid of
// the remaining pixels is reported.
package greenball

import (
	"image"

	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"
)

// DefaultThreshold is the greenness level above which a pixel counts.
const DefaultThreshold = 100

// erode removes isolated foreground pixels with a 3x3 box minimum.
var erode = gift.New(gift.Minimum(3, false))

// Greenness returns g - round(r/3) - round(b/3) per pixel, clamped at 0.
// Each subtraction saturates independently.
func Greenness(img image.Image) *image.Gray {
	src := imaging.Clone(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		srow := src.Pix[y*src.Stride:]
		drow := out.Pix[y*out.Stride:]
		for x := 0; x < w; x++ {
			i := x * 4
			r, g, b := srow[i], srow[i+1], srow[i+2]
			drow[x] = subSat(subSat(g, third(r)), third(b))
		}
	}
	return out
}

// third divides by 3 rounding to nearest. v/3 never lands on .5.
func third(v uint8) uint8 {
	return uint8((uint16(v) + 1) / 3)
}

func subSat(a, b uint8) uint8 {
	if b > a {
		return 0
	}
	return a - b
}

// Threshold sets pixels strictly above t to 255 and all others to 0, in place.
func Threshold(g *image.Gray, t uint8) {
	for i, v := range g.Pix {
		if v > t {
			g.Pix[i] = 255
		} else {
			g.Pix[i] = 0
		}
	}
}

// Erode applies one pass of 3x3 erosion. Pixels outside the image do not
// erode the border.
func Erode(g *image.Gray) *image.Gray {
	dst := image.NewGray(erode.Bounds(g.Bounds()))
	erode.Draw(dst, g)
	return dst
}

// Mask returns the eroded binary greenness mask for img.
func Mask(img image.Image, threshold uint8) *image.Gray {
	g := Greenness(img)
	Threshold(g, threshold)
	return Erode(g)
}

// Centroid returns the integer centroid of the nonzero pixels of mask,
// truncating m10/m00 and m01/m00. ok is false when the mask is empty.
func Centroid(mask *image.Gray) (image.Point, bool) {
	b := mask.Bounds()
	var m00, m10, m01 int64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := mask.Pix[(y-b.Min.Y)*mask.Stride:]
		for x := b.Min.X; x < b.Max.X; x++ {
			if row[x-b.Min.X] == 0 {
				continue
			}
			m00++
			m10 += int64(x - b.Min.X)
			m01 += int64(y - b.Min.Y)
		}
	}
	if m00 == 0 {
		return image.Point{}, false
	}
	return image.Pt(int(m10/m00), int(m01/m00)), true
}

// Track returns the centroid of the green region in img.
func Track(img image.Image, threshold uint8) (image.Point, bool) {
	return Centroid(Mask(img, threshold))
}
