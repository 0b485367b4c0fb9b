package seatsanalyzer

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/seats-analyzer/internal/imaging"
)

// ColorModel is the pixel layout of an Image.
type ColorModel int

const (
	ColorModelUnknown   ColorModel = 0
	ColorModelGray      ColorModel = 1
	ColorModelBGR       ColorModel = 2
	ColorModelYCbCr420  ColorModel = 3
	ColorModelBGRA      ColorModel = 4
	ColorModelYCbCrNV12 ColorModel = 5
)

func (c ColorModel) String() string {
	switch c {
	case ColorModelGray:
		return "gray"
	case ColorModelBGR:
		return "bgr"
	case ColorModelYCbCr420:
		return "ycbcr420"
	case ColorModelBGRA:
		return "bgra"
	case ColorModelYCbCrNV12:
		return "ycbcr-nv12"
	default:
		return "unknown"
	}
}

// DataType is the type of one channel value.
type DataType int

const (
	DataTypeUnknown DataType = 0
	DataTypeUChar   DataType = 1
	DataTypeFloat   DataType = 2
)

func (d DataType) String() string {
	switch d {
	case DataTypeUChar:
		return "uchar"
	case DataTypeFloat:
		return "float"
	default:
		return "unknown"
	}
}

// Image is a pixel buffer owned by the module that allocated it.
//
// Images come from a Table (AllocateImage, WrapImage, ReadImage, CopyImage,
// BlankImage, ImageFromGo) and go back to the same Table's FreeImage.
// Modules also hand transient images to an Inferencer; those are valid only
// for the duration of the call.
type Image struct {
	ColorModel ColorModel
	DataType   DataType
	Width      int
	Height     int
	Channels   int
	// Depth is the number of bytes per pixel.
	Depth int
	// Step is the number of bytes per row.
	Step int
	Data []byte

	// Native is the allocating module's own handle for the buffer.
	Native any

	table *Table
	freed bool
}

// Row returns the bytes of row y.
func (img *Image) Row(y int) []byte {
	start := y * img.Step
	return img.Data[start : start+img.Width*img.Depth]
}

// DataTypeSize returns the byte size of dt.
func (t *Table) DataTypeSize(dt DataType) (int, error) {
	if t.dataTypeSize == nil {
		return 0, t.missing(SymImageDataTypeSize)
	}
	return t.dataTypeSize(dt), nil
}

// ColorModelChannels returns the channel count of cm.
func (t *Table) ColorModelChannels(cm ColorModel) (int, error) {
	if t.colorModelChannels == nil {
		return 0, t.missing(SymImageColorModelChannels)
	}
	return t.colorModelChannels(cm), nil
}

// PixelDepth returns the byte size of one pixel.
func (t *Table) PixelDepth(cm ColorModel, dt DataType) (int, error) {
	if t.pixelDepth == nil {
		return 0, t.missing(SymImagePixelDepth)
	}
	return t.pixelDepth(cm, dt), nil
}

// BlankImage returns an image with no pixel storage.
func (t *Table) BlankImage() (*Image, error) {
	if t.allocateBlank == nil {
		return nil, t.missing(SymImageAllocateBlank)
	}
	img := &Image{}
	if code := t.allocateBlank(img); code != StatusOK {
		return nil, &ImageError{Op: "allocate blank", Code: code}
	}
	img.table = t
	return img, nil
}

// AllocateImage returns a zeroed image.
func (t *Table) AllocateImage(width, height int, cm ColorModel, dt DataType) (*Image, error) {
	img := &Image{}
	if code := t.allocate(img, width, height, cm, dt); code != StatusOK {
		return nil, &ImageError{Op: "allocate", Code: code}
	}
	img.table = t
	return img, nil
}

// WrapImage returns an image over the caller's pixel data. data must stay
// alive and unmodified until the image is freed.
func (t *Table) WrapImage(width, height int, cm ColorModel, dt DataType, data []byte, step int) (*Image, error) {
	img := &Image{}
	if code := t.allocateAndWrap(img, width, height, cm, dt, data, step); code != StatusOK {
		return nil, &ImageError{Op: "wrap", Code: code}
	}
	img.table = t
	return img, nil
}

// CopyImage returns a deep copy of src.
func (t *Table) CopyImage(src *Image) (*Image, error) {
	if t.copyImage == nil {
		return nil, t.missing(SymImageCopy)
	}
	if err := t.checkImage(src); err != nil {
		return nil, &ImageError{Op: "copy", Code: StatusInvalidArgument, Err: err}
	}
	dst := &Image{}
	if code := t.copyImage(src, dst); code != StatusOK {
		return nil, &ImageError{Op: "copy", Code: code}
	}
	dst.table = t
	return dst, nil
}

// ReadImage decodes the image file at path.
func (t *Table) ReadImage(path string) (*Image, error) {
	img := &Image{}
	if code := t.readImage(img, path); code != StatusOK {
		return nil, &ImageError{Op: "read", Path: path, Code: code}
	}
	img.table = t
	return img, nil
}

// WriteImage encodes img to path; the format follows the file extension.
func (t *Table) WriteImage(img *Image, path string) error {
	if t.writeImage == nil {
		return t.missing(SymImageWrite)
	}
	if err := t.checkImage(img); err != nil {
		return &ImageError{Op: "write", Path: path, Code: StatusInvalidArgument, Err: err}
	}
	if code := t.writeImage(img, path); code != StatusOK {
		return &ImageError{Op: "write", Path: path, Code: code}
	}
	return nil
}

// FreeImage releases img. Freeing an image of another table, or freeing
// twice, is rejected.
func (t *Table) FreeImage(img *Image) error {
	if err := t.checkImage(img); err != nil {
		return err
	}
	t.freeImage(img)
	img.freed = true
	img.Data = nil
	img.Native = nil
	return nil
}

func (t *Table) checkImage(img *Image) error {
	switch {
	case img == nil:
		return errors.New("nil image")
	case img.freed:
		return ErrImageFreed
	case img.table != t:
		return ErrForeignImage
	}
	return nil
}

// ImageFromGo copies a Go image into a new 8-bit image of this table. Gray
// images become GRAY, opaque images BGR and everything else BGRA.
func (t *Table) ImageFromGo(src image.Image) (*Image, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, &ImageError{Op: "convert", Code: StatusInvalidArgument, Err: errors.New("empty image")}
	}

	pix, channels := imaging.Interleave(src)
	cm := ColorModelGray
	switch channels {
	case 3:
		cm = ColorModelBGR
	case 4:
		cm = ColorModelBGRA
	}

	img, err := t.AllocateImage(w, h, cm, DataTypeUChar)
	if err != nil {
		return nil, err
	}
	for y := 0; y < h; y++ {
		copy(img.Row(y), pix[y*w*channels:(y+1)*w*channels])
	}
	return img, nil
}

// ToGo copies an 8-bit GRAY, BGR or BGRA image into a Go image.
func (img *Image) ToGo() (image.Image, error) {
	if img.DataType != DataTypeUChar {
		return nil, fmt.Errorf("cannot convert %s image", img.DataType)
	}

	var channels int
	switch img.ColorModel {
	case ColorModelGray:
		channels = 1
	case ColorModelBGR:
		channels = 3
	case ColorModelBGRA:
		channels = 4
	default:
		return nil, fmt.Errorf("cannot convert %s image", img.ColorModel)
	}
	if img.Depth != channels {
		return nil, fmt.Errorf("%s image with depth %d", img.ColorModel, img.Depth)
	}
	return imaging.Deinterleave(img.Data, img.Width, img.Height, img.Step, channels)
}
