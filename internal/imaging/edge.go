package imaging

import (
	"image"
	"math"
	"sync"

	"github.com/anthonynsimon/bild/effect"
)

// Canny returns the binary Canny edge map of img: 255 marks an edge pixel.
//
// Parameters:
//   - img: Source image (color or grayscale).
//   - thresholdLow, thresholdHigh: Hysteresis thresholds on the 0-255 gradient
//     scale. Typical values for vehicle photographs: 50 and 150.
//   - workers: Upper bound on goroutines per pass; values below 1 mean 1.
//
// # Algorithm
//
//  1. Grayscale conversion (BT.601 luminance, via bild)
//  2. 5x5 Gaussian blur, sigma ≈ 1.4
//  3. Sobel gradients: magnitude and direction
//  4. Non-maximum suppression along the gradient direction
//  5. Hysteresis: strong pixels kept, weak pixels kept next to a strong one
func Canny(img image.Image, thresholdLow, thresholdHigh, workers int) *image.Gray {
	gray := effect.Grayscale(img)
	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()

	lum := make([][]float64, height)
	for y := 0; y < height; y++ {
		lum[y] = make([]float64, width)
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < width; x++ {
			lum[y][x] = float64(row[x]) / 255.0
		}
	}

	blurred := gaussianBlur(lum, width, height, workers)
	magnitude, direction := sobel(blurred, width, height, workers)

	suppressed := make([][]float64, height)
	forRows(height, workers, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			suppressed[y] = make([]float64, width)
			if y == 0 || y == height-1 {
				continue
			}
			for x := 1; x < width-1; x++ {
				n1, n2 := neighbours(magnitude, direction[y][x], x, y)
				if mag := magnitude[y][x]; mag >= n1 && mag >= n2 {
					suppressed[y][x] = mag
				}
			}
		}
	})

	result := image.NewGray(image.Rect(0, 0, width, height))
	low := float64(thresholdLow) / 255.0
	high := float64(thresholdHigh) / 255.0

	forRows(height, workers, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < width; x++ {
				val := suppressed[y][x]
				if val >= high || (val >= low && strongNeighbour(suppressed, x, y, width, height, high)) {
					result.Pix[y*result.Stride+x] = 255
				}
			}
		}
	})

	return result
}

// EdgeDensity returns the fraction of Canny edge pixels in img, a cheap
// sharpness and clutter measure.
func EdgeDensity(img image.Image, workers int) float64 {
	edges := Canny(img, 50, 150, workers)
	if len(edges.Pix) == 0 {
		return 0
	}
	n := 0
	for _, v := range edges.Pix {
		if v != 0 {
			n++
		}
	}
	return float64(n) / float64(len(edges.Pix))
}

func neighbours(magnitude [][]float64, angle float64, x, y int) (float64, float64) {
	switch {
	case (angle >= -math.Pi/8 && angle < math.Pi/8) || (angle >= 7*math.Pi/8 || angle < -7*math.Pi/8):
		return magnitude[y][x-1], magnitude[y][x+1]
	case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
		return magnitude[y-1][x+1], magnitude[y+1][x-1]
	case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
		return magnitude[y-1][x], magnitude[y+1][x]
	default:
		return magnitude[y-1][x-1], magnitude[y+1][x+1]
	}
}

func strongNeighbour(suppressed [][]float64, x, y, width, height int, high float64) bool {
	for ky := -1; ky <= 1; ky++ {
		for kx := -1; kx <= 1; kx++ {
			if suppressed[clamp(y+ky, 0, height-1)][clamp(x+kx, 0, width-1)] >= high {
				return true
			}
		}
	}
	return false
}

func sobel(src [][]float64, width, height, workers int) (magnitude, direction [][]float64) {
	sobelX := [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY := [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}

	magnitude = make([][]float64, height)
	direction = make([][]float64, height)
	forRows(height, workers, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			magnitude[y] = make([]float64, width)
			direction[y] = make([]float64, width)
			for x := 0; x < width; x++ {
				var gx, gy float64
				for ky := -1; ky <= 1; ky++ {
					for kx := -1; kx <= 1; kx++ {
						v := src[clamp(y+ky, 0, height-1)][clamp(x+kx, 0, width-1)]
						gx += v * sobelX[ky+1][kx+1]
						gy += v * sobelY[ky+1][kx+1]
					}
				}
				magnitude[y][x] = math.Sqrt(gx*gx + gy*gy)
				direction[y][x] = math.Atan2(gy, gx)
			}
		}
	})
	return magnitude, direction
}

// gaussianBlur applies the 5x5 kernel
//
//	1  4  7  4  1
//	4 16 26 16  4
//	7 26 41 26  7
//	4 16 26 16  4
//	1  4  7  4  1
//
// normalised by 273. Borders replicate edge values.
func gaussianBlur(src [][]float64, width, height, workers int) [][]float64 {
	kernel := [5][5]float64{
		{1, 4, 7, 4, 1},
		{4, 16, 26, 16, 4},
		{7, 26, 41, 26, 7},
		{4, 16, 26, 16, 4},
		{1, 4, 7, 4, 1},
	}
	const kernelSum = 273.0

	result := make([][]float64, height)
	forRows(height, workers, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			result[y] = make([]float64, width)
			for x := 0; x < width; x++ {
				var sum float64
				for ky := -2; ky <= 2; ky++ {
					for kx := -2; kx <= 2; kx++ {
						sum += src[clamp(y+ky, 0, height-1)][clamp(x+kx, 0, width-1)] * kernel[ky+2][kx+2]
					}
				}
				result[y][x] = sum / kernelSum
			}
		}
	})
	return result
}

// forRows splits [0, height) into at most workers bands and runs fn on each
// band concurrently.
func forRows(height, workers int, fn func(y0, y1 int)) {
	if workers < 1 {
		workers = 1
	}
	if workers > height {
		workers = height
	}
	if workers <= 1 {
		fn(0, height)
		return
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		y0 := height * i / workers
		y1 := height * (i + 1) / workers
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(y0, y1)
		}()
	}
	wg.Wait()
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
