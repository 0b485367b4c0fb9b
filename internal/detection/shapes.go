package detection

import (
	"image"
	"math"
	"sort"
	"sync"

	"github.com/anthonynsimon/bild/effect"
)

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Params tunes FindWindshields. Zero fields take the DefaultParams value.
type Params struct {
	// EdgeThreshold is the gray-level step (0-255) that marks an edge.
	EdgeThreshold float64 `yaml:"edge_threshold"`
	// MinAreaRatio is the smallest candidate area relative to the image.
	MinAreaRatio float64 `yaml:"min_area_ratio"`
	// MinAspect and MaxAspect bound width/height of a candidate.
	MinAspect float64 `yaml:"min_aspect"`
	MaxAspect float64 `yaml:"max_aspect"`
	// MinRectangularity is the lowest accepted rectangularity score.
	MinRectangularity float64 `yaml:"min_rectangularity"`
	// MaxCandidates caps the number of results.
	MaxCandidates int `yaml:"max_candidates"`
	// Workers bounds the goroutines of the edge pass.
	Workers int `yaml:"-"`
}

// DefaultParams returns the tuning used when nothing is configured.
func DefaultParams() Params {
	return Params{
		EdgeThreshold:     30,
		MinAreaRatio:      0.02,
		MinAspect:         1.2,
		MaxAspect:         6,
		MinRectangularity: 0.8,
		MaxCandidates:     8,
		Workers:           1,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.EdgeThreshold <= 0 {
		p.EdgeThreshold = d.EdgeThreshold
	}
	if p.MinAreaRatio <= 0 {
		p.MinAreaRatio = d.MinAreaRatio
	}
	if p.MinAspect <= 0 {
		p.MinAspect = d.MinAspect
	}
	if p.MaxAspect <= 0 {
		p.MaxAspect = d.MaxAspect
	}
	if p.MinRectangularity <= 0 {
		p.MinRectangularity = d.MinRectangularity
	}
	if p.MaxCandidates <= 0 {
		p.MaxCandidates = d.MaxCandidates
	}
	if p.Workers < 1 {
		p.Workers = d.Workers
	}
	return p
}

// Candidate is a windshield-like rectangle.
type Candidate struct {
	// Bounds is the rectangle in image coordinates.
	Bounds image.Rectangle `json:"bounds"`
	// Rectangularity compares the contour length to the perimeter of
	// Bounds: 1.0 for a perfect rectangle.
	Rectangularity float64 `json:"rectangularity"`
	// Confidence is the score reported for the detection, 0 to 1.
	Confidence float64 `json:"confidence"`
}

// FindWindshields returns the rectangular regions of img that could be a
// windshield, largest first.
//
// # Algorithm
//
//  1. Edge map (see EdgeMap)
//  2. Contours: flood-fill groups of 8-connected edge pixels
//  3. Bounding box of each contour. An edge pixel at x marks the step
//     between x and x+1, so the box is shifted by one pixel to land on the
//     region itself
//  4. Rectangularity = 1 - |contour_length - perimeter| / perimeter
//  5. Filters: area ratio, aspect ratio, rectangularity
//  6. Nested boxes are dropped in favour of the box that contains them
func FindWindshields(img image.Image, p Params) []Candidate {
	p = p.withDefaults()
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 3 || height < 3 {
		return nil
	}

	edges := EdgeMap(img, p.EdgeThreshold, p.Workers)
	contours := findContours(edges, width, height)
	imageArea := float64(width * height)

	candidates := make([]Candidate, 0)
	for _, contour := range contours {
		minX, minY := width, height
		maxX, maxY := 0, 0
		for _, pt := range contour {
			minX = min(minX, pt.X)
			maxX = max(maxX, pt.X)
			minY = min(minY, pt.Y)
			maxY = max(maxY, pt.Y)
		}

		rectWidth := maxX - minX
		rectHeight := maxY - minY
		if rectWidth < 2 || rectHeight < 2 {
			continue
		}
		if float64(rectWidth*rectHeight)/imageArea < p.MinAreaRatio {
			continue
		}
		aspect := float64(rectWidth) / float64(rectHeight)
		if aspect < p.MinAspect || aspect > p.MaxAspect {
			continue
		}

		expectedPerimeter := 2 * (rectWidth + rectHeight)
		rectangularity := 1.0 - math.Abs(float64(len(contour)-expectedPerimeter))/float64(expectedPerimeter)
		if rectangularity < p.MinRectangularity {
			continue
		}

		r := image.Rect(minX+1, minY+1, maxX+1, maxY+1).Add(bounds.Min)
		candidates = append(candidates, Candidate{
			Bounds:         r,
			Rectangularity: rectangularity,
			Confidence:     math.Max(0, math.Min(1, rectangularity)),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		ai := candidates[i].Bounds.Dx() * candidates[i].Bounds.Dy()
		aj := candidates[j].Bounds.Dx() * candidates[j].Bounds.Dy()
		return ai > aj
	})

	kept := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		nested := false
		for _, k := range kept {
			if c.Bounds.In(k.Bounds.Inset(-2)) {
				nested = true
				break
			}
		}
		if !nested {
			kept = append(kept, c)
		}
		if len(kept) == p.MaxCandidates {
			break
		}
	}
	return kept
}

// EdgeMap marks pixels whose gray level differs from the right or lower
// neighbour by more than threshold. Border pixels are never edges. Rows are
// processed by up to workers goroutines.
func EdgeMap(img image.Image, threshold float64, workers int) [][]bool {
	gray := effect.Grayscale(img)
	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()

	edges := make([][]bool, height)
	for y := range edges {
		edges[y] = make([]bool, width)
	}
	if width < 3 || height < 3 {
		return edges
	}

	at := func(x, y int) float64 {
		return float64(gray.Pix[y*gray.Stride+x])
	}

	rows := func(y0, y1 int) {
		for y := max(y0, 1); y < min(y1, height-1); y++ {
			for x := 1; x < width-1; x++ {
				c := at(x, y)
				if math.Abs(c-at(x+1, y)) > threshold || math.Abs(c-at(x, y+1)) > threshold {
					edges[y][x] = true
				}
			}
		}
	}

	if workers < 2 {
		rows(0, height)
		return edges
	}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		y0, y1 := height*i/workers, height*(i+1)/workers
		wg.Add(1)
		go func() {
			defer wg.Done()
			rows(y0, y1)
		}()
	}
	wg.Wait()
	return edges
}

// findContours finds connected components (contours) in a binary edge image.
//
// Connectivity is 8-connected (includes diagonals). Contours smaller than 10
// pixels are discarded as noise.
func findContours(edges [][]bool, width, height int) [][]Point {
	visited := make([][]bool, height)
	for y := 0; y < height; y++ {
		visited[y] = make([]bool, width)
	}

	contours := make([][]Point, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if edges[y][x] && !visited[y][x] {
				contour := make([]Point, 0)
				floodFill(edges, visited, x, y, width, height, &contour)
				if len(contour) >= 10 {
					contours = append(contours, contour)
				}
			}
		}
	}
	return contours
}

// floodFill performs iterative flood-fill from a starting point, appending
// every reached edge pixel to contour.
func floodFill(edges, visited [][]bool, startX, startY, width, height int, contour *[]Point) {
	stack := []Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if visited[p.Y][p.X] || !edges[p.Y][p.X] {
			continue
		}

		visited[p.Y][p.X] = true
		*contour = append(*contour, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
}
