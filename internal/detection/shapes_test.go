package detection

import (
	"image"
	"image/color"
	"testing"
)

// createTestImage creates a solid color test image
func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// fillRect paints the inclusive rectangle (x1,y1)-(x2,y2)
func fillRect(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			img.Set(x, y, c)
		}
	}
}

// createWindshieldImage creates a light background with one dark wide rectangle
func createWindshieldImage() *image.RGBA {
	img := createTestImage(400, 300, color.Gray{Y: 200})
	fillRect(img, 80, 100, 319, 199, color.Gray{Y: 50})
	return img
}

func TestFindWindshields(t *testing.T) {
	img := createWindshieldImage()

	got := FindWindshields(img, Params{})
	if len(got) != 1 {
		t.Fatalf("candidates: got %d, want 1", len(got))
	}

	want := image.Rect(80, 100, 320, 200)
	if got[0].Bounds != want {
		t.Errorf("bounds: got %v, want %v", got[0].Bounds, want)
	}
	if got[0].Confidence < 0.95 || got[0].Confidence > 1 {
		t.Errorf("confidence: got %f, want in [0.95, 1]", got[0].Confidence)
	}
}

func TestFindWindshields_Filters(t *testing.T) {
	tests := []struct {
		name           string
		x1, y1, x2, y2 int
	}{
		{"square rejected by aspect", 100, 100, 199, 199},
		{"tall rejected by aspect", 150, 20, 199, 279},
		{"small rejected by area", 10, 10, 29, 19},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := createTestImage(400, 300, color.Gray{Y: 200})
			fillRect(img, tt.x1, tt.y1, tt.x2, tt.y2, color.Gray{Y: 50})

			if got := FindWindshields(img, Params{}); len(got) != 0 {
				t.Errorf("got %d candidates, want 0: %v", len(got), got)
			}
		})
	}
}

func TestFindWindshields_EmptyImage(t *testing.T) {
	img := createTestImage(100, 100, color.White)

	if got := FindWindshields(img, Params{}); len(got) != 0 {
		t.Errorf("Expected 0 candidates in empty image, got %d", len(got))
	}
}

func TestFindWindshields_TinyImage(t *testing.T) {
	img := createTestImage(2, 2, color.Black)

	if got := FindWindshields(img, Params{}); got != nil {
		t.Errorf("Expected nil for tiny image, got %v", got)
	}
}

func TestFindWindshields_NestedSuppressed(t *testing.T) {
	img := createWindshieldImage()
	fillRect(img, 120, 130, 219, 169, color.Gray{Y: 150})

	got := FindWindshields(img, Params{})
	if len(got) != 1 {
		t.Fatalf("candidates: got %d, want 1", len(got))
	}
	if want := image.Rect(80, 100, 320, 200); got[0].Bounds != want {
		t.Errorf("bounds: got %v, want %v", got[0].Bounds, want)
	}
}

func TestFindWindshields_SortedByArea(t *testing.T) {
	img := createTestImage(400, 300, color.Gray{Y: 200})
	fillRect(img, 20, 20, 119, 69, color.Gray{Y: 50})
	fillRect(img, 20, 120, 379, 279, color.Gray{Y: 50})

	got := FindWindshields(img, Params{})
	if len(got) != 2 {
		t.Fatalf("candidates: got %d, want 2", len(got))
	}
	a0 := got[0].Bounds.Dx() * got[0].Bounds.Dy()
	a1 := got[1].Bounds.Dx() * got[1].Bounds.Dy()
	if a0 < a1 {
		t.Errorf("candidates not sorted by area: %d before %d", a0, a1)
	}

	capped := FindWindshields(img, Params{MaxCandidates: 1})
	if len(capped) != 1 {
		t.Errorf("MaxCandidates=1: got %d candidates", len(capped))
	}
}

func TestFindWindshields_SubImageOffset(t *testing.T) {
	img := createWindshieldImage()
	sub := img.SubImage(image.Rect(40, 50, 360, 250))

	got := FindWindshields(sub, Params{})
	if len(got) != 1 {
		t.Fatalf("candidates: got %d, want 1", len(got))
	}
	if want := image.Rect(80, 100, 320, 200); got[0].Bounds != want {
		t.Errorf("bounds: got %v, want %v", got[0].Bounds, want)
	}
}

func TestParams_WithDefaults(t *testing.T) {
	p := Params{EdgeThreshold: 12, Workers: -3}.withDefaults()
	d := DefaultParams()

	if p.EdgeThreshold != 12 {
		t.Errorf("EdgeThreshold: got %f, want 12", p.EdgeThreshold)
	}
	if p.Workers != d.Workers {
		t.Errorf("Workers: got %d, want %d", p.Workers, d.Workers)
	}
	if p.MaxCandidates != d.MaxCandidates {
		t.Errorf("MaxCandidates: got %d, want %d", p.MaxCandidates, d.MaxCandidates)
	}
}

func TestEdgeMap(t *testing.T) {
	// Create image with a vertical edge
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			if x < 25 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}

	edges := EdgeMap(img, 30, 1)

	for y := 1; y < 49; y++ {
		if !edges[y][24] {
			t.Fatalf("row %d: expected edge at x=24", y)
		}
		if edges[y][10] || edges[y][40] {
			t.Fatalf("row %d: unexpected edge away from the step", y)
		}
	}
}

func TestEdgeMap_WorkersAgree(t *testing.T) {
	img := createWindshieldImage()

	single := EdgeMap(img, 30, 1)
	multi := EdgeMap(img, 30, 4)

	for y := range single {
		for x := range single[y] {
			if single[y][x] != multi[y][x] {
				t.Fatalf("edge (%d,%d): single=%v multi=%v", x, y, single[y][x], multi[y][x])
			}
		}
	}
}

func TestEdgeMap_UniformImage(t *testing.T) {
	img := createTestImage(50, 50, color.RGBA{128, 128, 128, 255})

	edges := EdgeMap(img, 30, 2)

	edgeCount := 0
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			if edges[y][x] {
				edgeCount++
			}
		}
	}

	if edgeCount != 0 {
		t.Errorf("Uniform image should have 0 edges, got %d", edgeCount)
	}
}

func TestFindContours(t *testing.T) {
	edges := make([][]bool, 20)
	for y := 0; y < 20; y++ {
		edges[y] = make([]bool, 20)
	}

	// Create a connected contour (small square)
	for x := 5; x <= 15; x++ {
		edges[5][x] = true
		edges[15][x] = true
	}
	for y := 5; y <= 15; y++ {
		edges[y][5] = true
		edges[y][15] = true
	}

	contours := findContours(edges, 20, 20)

	if len(contours) != 1 {
		t.Fatalf("contours: got %d, want 1", len(contours))
	}
	if len(contours[0]) != 40 {
		t.Errorf("contour length: got %d, want 40", len(contours[0]))
	}
}

func TestFindContours_DropsNoise(t *testing.T) {
	edges := make([][]bool, 20)
	for y := 0; y < 20; y++ {
		edges[y] = make([]bool, 20)
	}
	edges[3][3] = true
	edges[3][4] = true

	if contours := findContours(edges, 20, 20); len(contours) != 0 {
		t.Errorf("Expected 0 contours for a 2-pixel blob, got %d", len(contours))
	}
}

func TestFloodFill(t *testing.T) {
	edges := make([][]bool, 10)
	visited := make([][]bool, 10)
	for y := 0; y < 10; y++ {
		edges[y] = make([]bool, 10)
		visited[y] = make([]bool, 10)
	}

	// Create a small connected region
	edges[5][5] = true
	edges[5][6] = true
	edges[6][5] = true
	edges[6][6] = true
	// Diagonal neighbour
	edges[7][7] = true

	var contour []Point
	floodFill(edges, visited, 5, 5, 10, 10, &contour)

	if len(contour) != 5 {
		t.Errorf("Expected 5 points in contour, got %d", len(contour))
	}
	if !visited[5][5] || !visited[5][6] || !visited[6][5] || !visited[6][6] || !visited[7][7] {
		t.Error("Flood fill should mark all visited points")
	}
}
