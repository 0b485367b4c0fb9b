package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestInterleave_Gray(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 2))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 10)
	}

	pix, ch := Interleave(src)

	if ch != 1 {
		t.Fatalf("channels: got %d, want 1", ch)
	}
	if len(pix) != 8 || pix[5] != 50 {
		t.Errorf("pixels: got %v", pix)
	}
}

func TestInterleave_OpaqueIsBGR(t *testing.T) {
	src := createInMemoryImage(3, 3, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	pix, ch := Interleave(src)

	if ch != 3 {
		t.Fatalf("channels: got %d, want 3", ch)
	}
	if pix[0] != 30 || pix[1] != 20 || pix[2] != 10 {
		t.Errorf("first pixel: got %v, want [30 20 10]", pix[:3])
	}
}

func TestInterleave_TranslucentIsBGRA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(1, 1, color.NRGBA{R: 1, G: 2, B: 3, A: 128})

	pix, ch := Interleave(src)

	if ch != 4 {
		t.Fatalf("channels: got %d, want 4", ch)
	}
	if got := pix[12:16]; got[0] != 3 || got[2] != 1 || got[3] != 128 {
		t.Errorf("last pixel: got %v", got)
	}
}

func TestDeinterleave_RoundTrip(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 5, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 5; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 40), G: uint8(y * 50), B: 7, A: 255})
		}
	}

	pix, ch := Interleave(src)
	out, err := Deinterleave(pix, 5, 4, 5*ch, ch)
	if err != nil {
		t.Fatalf("Deinterleave failed: %v", err)
	}

	for y := 0; y < 4; y++ {
		for x := 0; x < 5; x++ {
			if got, want := out.At(x, y), src.At(x, y); got != want {
				t.Fatalf("pixel (%d,%d): got %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestDeinterleave_Errors(t *testing.T) {
	tests := []struct {
		name                         string
		pix                          []byte
		width, height, step, channel int
	}{
		{"zero width", make([]byte, 10), 0, 1, 0, 1},
		{"short buffer", make([]byte, 10), 4, 4, 4, 1},
		{"short step", make([]byte, 100), 4, 4, 2, 3},
		{"two channels", make([]byte, 100), 2, 2, 4, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Deinterleave(tt.pix, tt.width, tt.height, tt.step, tt.channel); err == nil {
				t.Error("expected error")
			}
		})
	}
}
