package imaging

import (
	"image/color"
	"testing"
)

func TestCropRotated_Upright(t *testing.T) {
	img := createPatternImage(100, 100)

	out, err := CropRotated(img, 25, 25, 20, 10, 0)
	if err != nil {
		t.Fatalf("CropRotated failed: %v", err)
	}

	b := out.Bounds()
	if b.Dx() != 20 || b.Dy() != 10 {
		t.Fatalf("dimensions: got %dx%d, want 20x10", b.Dx(), b.Dy())
	}

	// Entirely inside the red quadrant.
	r, g, bl, _ := out.At(10, 5).RGBA()
	if r>>8 != 255 || g>>8 != 0 || bl>>8 != 0 {
		t.Errorf("center color: got (%d,%d,%d), want red", r>>8, g>>8, bl>>8)
	}
}

func TestCropRotated_Rotated(t *testing.T) {
	img := createPatternImage(100, 100)

	out, err := CropRotated(img, 75, 75, 30, 12, 90)
	if err != nil {
		t.Fatalf("CropRotated failed: %v", err)
	}

	b := out.Bounds()
	if b.Dx() != 30 || b.Dy() != 12 {
		t.Fatalf("dimensions: got %dx%d, want 30x12", b.Dx(), b.Dy())
	}

	// Still inside the white quadrant after undoing the rotation.
	r, g, bl, _ := out.At(15, 6).RGBA()
	if r>>8 != 255 || g>>8 != 255 || bl>>8 != 255 {
		t.Errorf("center color: got (%d,%d,%d), want white", r>>8, g>>8, bl>>8)
	}
}

func TestCropRotated_OutsideImageIsBlack(t *testing.T) {
	img := createInMemoryImage(50, 50, color.White)

	// Half of the region hangs off the left edge.
	out, err := CropRotated(img, 0, 25, 20, 10, 0)
	if err != nil {
		t.Fatalf("CropRotated failed: %v", err)
	}
	r, _, _, _ := out.At(1, 5).RGBA()
	if r != 0 {
		t.Errorf("padding pixel: got %d, want black", r>>8)
	}
}

func TestCropRotated_Invalid(t *testing.T) {
	img := createInMemoryImage(50, 50, color.White)

	tests := []struct {
		name                  string
		cx, cy, w, h, angle float64
	}{
		{"zero width", 25, 25, 0, 10, 0},
		{"negative height", 25, 25, 10, -5, 0},
		{"outside", 500, 500, 10, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CropRotated(img, tt.cx, tt.cy, tt.w, tt.h, tt.angle); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSplitColumns(t *testing.T) {
	img := createPatternImage(90, 40)

	strips := SplitColumns(img, 3)
	if len(strips) != 3 {
		t.Fatalf("strips: got %d, want 3", len(strips))
	}
	for i, s := range strips {
		if s.Bounds().Dx() != 30 || s.Bounds().Dy() != 40 {
			t.Errorf("strip %d: got %dx%d, want 30x40", i, s.Bounds().Dx(), s.Bounds().Dy())
		}
	}

	// Left strip starts in the red quadrant, right strip in the green one.
	if r, g, _, _ := strips[0].At(0, 0).RGBA(); r>>8 != 255 || g>>8 != 0 {
		t.Errorf("left strip should start red")
	}
	if r, g, _, _ := strips[2].At(29, 0).RGBA(); r>>8 != 0 || g>>8 != 255 {
		t.Errorf("right strip should end green")
	}
}

func TestPackBGR(t *testing.T) {
	img := createInMemoryImage(40, 20, color.RGBA{10, 20, 30, 255})

	data := PackBGR(img, 8, 4)
	if len(data) != 8*4*3 {
		t.Fatalf("length: got %d, want %d", len(data), 8*4*3)
	}
	for i := 0; i < len(data); i += 3 {
		if data[i] != 30 || data[i+1] != 20 || data[i+2] != 10 {
			t.Fatalf("pixel %d: got (%d,%d,%d), want BGR (30,20,10)", i/3, data[i], data[i+1], data[i+2])
		}
	}
}
