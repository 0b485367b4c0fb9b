package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// CropRotated extracts the content of a rectangle centred at (cx, cy) with
// the given size, rotated clockwise by angle degrees, and returns it upright.
//
// Parts of the rectangle outside img come back black.
func CropRotated(img image.Image, cx, cy, width, height, angle float64) (*image.NRGBA, error) {
	w := int(math.Round(width))
	h := int(math.Round(height))
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("invalid crop size %vx%v", width, height)
	}

	// A square of the rectangle's diagonal holds it at any rotation.
	diag := math.Ceil(math.Hypot(width, height)) + 2
	r := image.Rect(
		int(math.Floor(cx-diag/2)), int(math.Floor(cy-diag/2)),
		int(math.Floor(cx-diag/2)+diag), int(math.Floor(cy-diag/2)+diag),
	)
	b := img.Bounds()
	if !r.Overlaps(b) {
		return nil, fmt.Errorf("region (%v,%v) %vx%v lies outside the image", cx, cy, width, height)
	}

	canvas := imaging.New(r.Dx(), r.Dy(), color.Black)
	canvas = imaging.Paste(canvas, img, image.Pt(b.Min.X-r.Min.X, b.Min.Y-r.Min.Y))

	if angle != 0 {
		canvas = imaging.Rotate(canvas, angle, color.Black)
	}
	return imaging.CropCenter(canvas, w, h), nil
}

// SplitColumns cuts img into n vertical strips of (nearly) equal width, left
// to right.
func SplitColumns(img image.Image, n int) []*image.NRGBA {
	b := img.Bounds()
	strips := make([]*image.NRGBA, 0, n)
	for i := 0; i < n; i++ {
		x0 := b.Min.X + b.Dx()*i/n
		x1 := b.Min.X + b.Dx()*(i+1)/n
		strips = append(strips, imaging.Crop(img, image.Rect(x0, b.Min.Y, x1, b.Max.Y)))
	}
	return strips
}

// PackBGR resizes img to width×height and returns its pixels as packed
// 8-bit BGR, row by row.
func PackBGR(img image.Image, width, height int) []byte {
	small := imaging.Resize(img, width, height, imaging.Linear)
	out := make([]byte, width*height*3)
	for y := 0; y < height; y++ {
		row := small.Pix[y*small.Stride:]
		for x := 0; x < width; x++ {
			p := row[x*4:]
			o := (y*width + x) * 3
			out[o], out[o+1], out[o+2] = p[2], p[1], p[0]
		}
	}
	return out
}
