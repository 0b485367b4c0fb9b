package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/histogram"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// maxSamples caps the pixels visited by RegionStats.
const maxSamples = 40000

// Stats summarises the tone of an image region.
type Stats struct {
	// MeanLightness is the mean CIE L* lightness, 0 (black) to 1 (white).
	MeanLightness float64 `json:"mean_lightness"`
	// LightnessStdDev is the spread of lightness around the mean.
	LightnessStdDev float64 `json:"lightness_std_dev"`
	// MeanChroma is the mean HCL chroma; 0 is gray.
	MeanChroma float64 `json:"mean_chroma"`
	// Contrast is the distance between the 5th and 95th luminance
	// percentiles, 0 to 1.
	Contrast float64 `json:"contrast"`
	// SkinRatio is the fraction of pixels with a skin-like hue and chroma.
	SkinRatio float64 `json:"skin_ratio"`
}

// RegionStats computes Stats over img, sampling on a regular grid for large
// images.
func RegionStats(img image.Image) Stats {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return Stats{}
	}
	step := 1
	for total/(step*step) > maxSamples {
		step++
	}

	var n, skin int
	var sumL, sumL2, sumC float64
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			h, chroma, l := c.Hcl()
			sumL += l
			sumL2 += l * l
			sumC += chroma
			if h >= 20 && h <= 80 && chroma >= 0.08 && chroma <= 0.6 && l >= 0.3 && l <= 0.9 {
				skin++
			}
			n++
		}
	}
	if n == 0 {
		return Stats{}
	}

	mean := sumL / float64(n)
	variance := sumL2/float64(n) - mean*mean
	return Stats{
		MeanLightness:   mean,
		LightnessStdDev: math.Sqrt(math.Max(variance, 0)),
		MeanChroma:      sumC / float64(n),
		Contrast:        contrast(img),
		SkinRatio:       float64(skin) / float64(n),
	}
}

// contrast reads the 5th and 95th percentiles off the luminance histogram.
func contrast(img image.Image) float64 {
	hist := histogram.NewRGBAHistogram(effect.Grayscale(img)).R
	total := 0
	for _, v := range hist.Bins {
		total += v
	}
	if total == 0 {
		return 0
	}

	lo, hi := -1, -1
	acc := 0
	for i, v := range hist.Bins {
		acc += v
		if lo < 0 && float64(acc) >= 0.05*float64(total) {
			lo = i
		}
		if hi < 0 && float64(acc) >= 0.95*float64(total) {
			hi = i
			break
		}
	}
	if lo < 0 || hi < 0 {
		return 0
	}
	return float64(hi-lo) / 255.0
}
