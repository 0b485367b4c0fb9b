package reference

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	seatsanalyzer "github.com/ironsheep/seats-analyzer"
)

// createTestPNG writes a small two-color PNG to a temp file
func createTestPNG(t *testing.T, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < width/2 {
				img.Set(x, y, color.RGBA{255, 0, 0, 255})
			} else {
				img.Set(x, y, color.RGBA{0, 0, 255, 255})
			}
		}
	}

	path := filepath.Join(t.TempDir(), "test.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func linkTable(t *testing.T) (*seatsanalyzer.Table, *Module) {
	t.Helper()
	m := New()
	table, err := seatsanalyzer.Link(m)
	require.NoError(t, err)
	return table, m
}

func TestImageSizes(t *testing.T) {
	table, _ := linkTable(t)

	tests := []struct {
		cm       seatsanalyzer.ColorModel
		dt       seatsanalyzer.DataType
		channels int
		depth    int
	}{
		{seatsanalyzer.ColorModelGray, seatsanalyzer.DataTypeUChar, 1, 1},
		{seatsanalyzer.ColorModelBGR, seatsanalyzer.DataTypeUChar, 3, 3},
		{seatsanalyzer.ColorModelBGRA, seatsanalyzer.DataTypeFloat, 4, 16},
		{seatsanalyzer.ColorModelYCbCr420, seatsanalyzer.DataTypeUChar, 3, 0},
		{seatsanalyzer.ColorModelUnknown, seatsanalyzer.DataTypeUChar, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.cm.String()+"/"+tt.dt.String(), func(t *testing.T) {
			ch, err := table.ColorModelChannels(tt.cm)
			require.NoError(t, err)
			assert.Equal(t, tt.channels, ch)

			depth, err := table.PixelDepth(tt.cm, tt.dt)
			require.NoError(t, err)
			assert.Equal(t, tt.depth, depth)
		})
	}

	size, err := table.DataTypeSize(seatsanalyzer.DataTypeFloat)
	require.NoError(t, err)
	assert.Equal(t, 4, size)
}

func TestAllocateImage(t *testing.T) {
	table, m := linkTable(t)

	img, err := table.AllocateImage(10, 4, seatsanalyzer.ColorModelBGR, seatsanalyzer.DataTypeUChar)
	require.NoError(t, err)
	assert.Equal(t, 30, img.Step)
	assert.Equal(t, 3, img.Depth)
	assert.Len(t, img.Data, 120)
	assert.Len(t, img.Row(3), 30)
	assert.Equal(t, int64(1), m.Stats().Images)

	require.NoError(t, table.FreeImage(img))
	assert.Nil(t, img.Data)
	assert.Equal(t, int64(0), m.Stats().Images)
	assert.ErrorIs(t, table.FreeImage(img), seatsanalyzer.ErrImageFreed)
}

func TestAllocateImage_Invalid(t *testing.T) {
	table, m := linkTable(t)

	tests := []struct {
		name          string
		width, height int
		cm            seatsanalyzer.ColorModel
	}{
		{"zero width", 0, 4, seatsanalyzer.ColorModelGray},
		{"negative height", 4, -1, seatsanalyzer.ColorModelGray},
		{"planar", 4, 4, seatsanalyzer.ColorModelYCbCrNV12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := table.AllocateImage(tt.width, tt.height, tt.cm, seatsanalyzer.DataTypeUChar)
			var ie *seatsanalyzer.ImageError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, seatsanalyzer.StatusInvalidArgument, ie.Code)
		})
	}
	assert.Equal(t, int64(0), m.Stats().Images)
}

func TestWrapImage(t *testing.T) {
	table, m := linkTable(t)
	data := make([]byte, 8*3)

	img, err := table.WrapImage(3, 3, seatsanalyzer.ColorModelGray, seatsanalyzer.DataTypeUChar, data, 8)
	require.NoError(t, err)
	defer table.FreeImage(img)

	img.Row(1)[2] = 99
	assert.Equal(t, byte(99), data[10], "wrapped image shares the caller's buffer")
	assert.Equal(t, int64(1), m.Stats().Images)

	_, err = table.WrapImage(3, 3, seatsanalyzer.ColorModelGray, seatsanalyzer.DataTypeUChar, data[:10], 8)
	assert.Error(t, err, "buffer shorter than the layout")
	_, err = table.WrapImage(3, 3, seatsanalyzer.ColorModelBGR, seatsanalyzer.DataTypeUChar, data, 4)
	assert.Error(t, err, "step shorter than a row")
}

func TestCopyImage(t *testing.T) {
	table, m := linkTable(t)

	src, err := table.AllocateImage(4, 2, seatsanalyzer.ColorModelGray, seatsanalyzer.DataTypeUChar)
	require.NoError(t, err)
	defer table.FreeImage(src)
	src.Data[5] = 42

	dst, err := table.CopyImage(src)
	require.NoError(t, err)
	defer table.FreeImage(dst)

	assert.Equal(t, src.Data, dst.Data)
	dst.Data[5] = 7
	assert.Equal(t, byte(42), src.Data[5], "copy must not share storage")
	assert.Equal(t, int64(2), m.Stats().Images)
}

func TestBlankImage(t *testing.T) {
	table, m := linkTable(t)

	img, err := table.BlankImage()
	require.NoError(t, err)
	assert.Nil(t, img.Data)
	assert.Equal(t, int64(1), m.Stats().Images)

	cp, err := table.CopyImage(img)
	require.NoError(t, err)
	assert.Nil(t, cp.Data)

	require.NoError(t, table.FreeImage(cp))
	require.NoError(t, table.FreeImage(img))
	assert.Equal(t, int64(0), m.Stats().Images)
}

func TestReadWriteImage(t *testing.T) {
	table, m := linkTable(t)
	path := createTestPNG(t, 20, 10)

	img, err := table.ReadImage(path)
	require.NoError(t, err)
	defer table.FreeImage(img)

	assert.Equal(t, seatsanalyzer.ColorModelBGR, img.ColorModel)
	assert.Equal(t, 20, img.Width)
	assert.Equal(t, 10, img.Height)
	assert.Equal(t, []byte{0, 0, 255}, img.Row(0)[:3], "left half is red in BGR")
	assert.Equal(t, []byte{255, 0, 0}, img.Row(0)[57:60], "right half is blue in BGR")

	out := filepath.Join(t.TempDir(), "copy.bmp")
	require.NoError(t, table.WriteImage(img, out))

	again, err := table.ReadImage(out)
	require.NoError(t, err)
	defer table.FreeImage(again)
	assert.Equal(t, img.Data, again.Data)
	assert.Equal(t, int64(2), m.Stats().Images)
}

func TestReadImage_Errors(t *testing.T) {
	table, m := linkTable(t)
	garbage := filepath.Join(t.TempDir(), "garbage.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0o644))

	tests := []struct {
		name string
		path string
		want seatsanalyzer.Status
	}{
		{"missing", filepath.Join(t.TempDir(), "absent.png"), seatsanalyzer.StatusImageIO},
		{"garbage", garbage, seatsanalyzer.StatusImageInvalid},
		{"empty path", "", seatsanalyzer.StatusInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := table.ReadImage(tt.path)
			var ie *seatsanalyzer.ImageError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.want, ie.Code)
		})
	}
	assert.Equal(t, int64(0), m.Stats().Images)
}

func TestWriteImage_Errors(t *testing.T) {
	table, _ := linkTable(t)

	img, err := table.AllocateImage(4, 4, seatsanalyzer.ColorModelGray, seatsanalyzer.DataTypeUChar)
	require.NoError(t, err)
	defer table.FreeImage(img)

	var ie *seatsanalyzer.ImageError
	err = table.WriteImage(img, filepath.Join(t.TempDir(), "out.xyz"))
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, seatsanalyzer.StatusImageIO, ie.Code)

	floatImg, err := table.AllocateImage(4, 4, seatsanalyzer.ColorModelGray, seatsanalyzer.DataTypeFloat)
	require.NoError(t, err)
	defer table.FreeImage(floatImg)

	err = table.WriteImage(floatImg, filepath.Join(t.TempDir(), "out.png"))
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, seatsanalyzer.StatusImageInvalid, ie.Code)
}

func TestForeignImage(t *testing.T) {
	a, _ := linkTable(t)
	b, _ := linkTable(t)

	img, err := a.AllocateImage(2, 2, seatsanalyzer.ColorModelGray, seatsanalyzer.DataTypeUChar)
	require.NoError(t, err)
	defer a.FreeImage(img)

	assert.ErrorIs(t, b.FreeImage(img), seatsanalyzer.ErrForeignImage)
	_, err = b.CopyImage(img)
	assert.ErrorIs(t, err, seatsanalyzer.ErrForeignImage)
}

func TestImageFromGo_RoundTrip(t *testing.T) {
	table, _ := linkTable(t)
	src := windshieldScene()

	img, err := table.ImageFromGo(src)
	require.NoError(t, err)
	defer table.FreeImage(img)
	assert.Equal(t, seatsanalyzer.ColorModelBGR, img.ColorModel)

	out, err := img.ToGo()
	require.NoError(t, err)
	r, g, b, _ := out.At(90, 110).RGBA()
	assert.Equal(t, [3]uint32{50 * 0x101, 50 * 0x101, 50 * 0x101}, [3]uint32{r, g, b})
}
