package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Interleave packs src into tightly packed 8-bit rows: one gray channel for
// *image.Gray, BGR for opaque images and BGRA otherwise. It returns the
// pixels and the channel count.
func Interleave(src image.Image) ([]byte, int) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	if gray, ok := src.(*image.Gray); ok {
		pix := make([]byte, w*h)
		for y := 0; y < h; y++ {
			start := gray.PixOffset(b.Min.X, b.Min.Y+y)
			copy(pix[y*w:], gray.Pix[start:start+w])
		}
		return pix, 1
	}

	nrgba := imaging.Clone(src)
	channels := 3
	if !nrgba.Opaque() {
		channels = 4
	}
	pix := make([]byte, w*h*channels)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := nrgba.Pix[y*nrgba.Stride+x*4:]
			d := pix[(y*w+x)*channels:]
			d[0], d[1], d[2] = p[2], p[1], p[0]
			if channels == 4 {
				d[3] = p[3]
			}
		}
	}
	return pix, channels
}

// Deinterleave is the inverse of Interleave for rows of step bytes.
// channels must be 1, 3 or 4.
func Deinterleave(pix []byte, width, height, step, channels int) (image.Image, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid size %dx%d", width, height)
	}
	if step < width*channels || len(pix) < step*(height-1)+width*channels {
		return nil, fmt.Errorf("buffer of %d bytes too small for %dx%d with step %d", len(pix), width, height, step)
	}

	switch channels {
	case 1:
		out := image.NewGray(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			copy(out.Pix[y*out.Stride:], pix[y*step:y*step+width])
		}
		return out, nil
	case 3, 4:
		out := image.NewNRGBA(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			row := pix[y*step:]
			for x := 0; x < width; x++ {
				s := row[x*channels:]
				a := uint8(255)
				if channels == 4 {
					a = s[3]
				}
				out.SetNRGBA(x, y, color.NRGBA{R: s[2], G: s[1], B: s[0], A: a})
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported channel count %d", channels)
}
