package reference

import (
	"errors"
	"os"

	seatsanalyzer "github.com/ironsheep/seats-analyzer"
	"github.com/ironsheep/seats-analyzer/internal/imaging"
	"github.com/ironsheep/seats-analyzer/internal/monitoring"
)

// buffer is the Native handle of every image the module allocates.
type buffer struct {
	wrapped bool
	freed   bool
}

func dataTypeSize(dt seatsanalyzer.DataType) int {
	switch dt {
	case seatsanalyzer.DataTypeUChar:
		return 1
	case seatsanalyzer.DataTypeFloat:
		return 4
	}
	return 0
}

func colorModelChannels(cm seatsanalyzer.ColorModel) int {
	switch cm {
	case seatsanalyzer.ColorModelGray:
		return 1
	case seatsanalyzer.ColorModelBGR, seatsanalyzer.ColorModelYCbCr420, seatsanalyzer.ColorModelYCbCrNV12:
		return 3
	case seatsanalyzer.ColorModelBGRA:
		return 4
	}
	return 0
}

// pixelDepth is 0 for the planar YCbCr layouts, which have no packed pixel.
func pixelDepth(cm seatsanalyzer.ColorModel, dt seatsanalyzer.DataType) int {
	switch cm {
	case seatsanalyzer.ColorModelGray, seatsanalyzer.ColorModelBGR, seatsanalyzer.ColorModelBGRA:
		return colorModelChannels(cm) * dataTypeSize(dt)
	}
	return 0
}

// layout fills the geometry fields of img.
func layout(img *seatsanalyzer.Image, width, height int, cm seatsanalyzer.ColorModel, dt seatsanalyzer.DataType, step int) seatsanalyzer.Status {
	depth := pixelDepth(cm, dt)
	if width < 1 || height < 1 || depth == 0 {
		return seatsanalyzer.StatusInvalidArgument
	}
	if step == 0 {
		step = width * depth
	}
	if step < width*depth {
		return seatsanalyzer.StatusInvalidArgument
	}
	*img = seatsanalyzer.Image{
		ColorModel: cm,
		DataType:   dt,
		Width:      width,
		Height:     height,
		Channels:   colorModelChannels(cm),
		Depth:      depth,
		Step:       step,
	}
	return seatsanalyzer.StatusOK
}

func (m *Module) allocateBlank(img *seatsanalyzer.Image) seatsanalyzer.Status {
	*img = seatsanalyzer.Image{Native: &buffer{}}
	m.images.Add(1)
	return seatsanalyzer.StatusOK
}

func (m *Module) allocate(img *seatsanalyzer.Image, width, height int, cm seatsanalyzer.ColorModel, dt seatsanalyzer.DataType) seatsanalyzer.Status {
	if code := layout(img, width, height, cm, dt, 0); code != seatsanalyzer.StatusOK {
		return code
	}
	img.Data = make([]byte, img.Step*height)
	img.Native = &buffer{}
	m.images.Add(1)
	return seatsanalyzer.StatusOK
}

func (m *Module) allocateAndWrap(img *seatsanalyzer.Image, width, height int, cm seatsanalyzer.ColorModel, dt seatsanalyzer.DataType, data []byte, step int) seatsanalyzer.Status {
	if code := layout(img, width, height, cm, dt, step); code != seatsanalyzer.StatusOK {
		return code
	}
	if len(data) < img.Step*(height-1)+width*img.Depth {
		*img = seatsanalyzer.Image{}
		return seatsanalyzer.StatusInvalidArgument
	}
	img.Data = data
	img.Native = &buffer{wrapped: true}
	m.images.Add(1)
	return seatsanalyzer.StatusOK
}

func (m *Module) copyImage(src, dst *seatsanalyzer.Image) seatsanalyzer.Status {
	if src.Data == nil {
		return m.allocateBlank(dst)
	}
	if code := m.allocate(dst, src.Width, src.Height, src.ColorModel, src.DataType); code != seatsanalyzer.StatusOK {
		return code
	}
	rowBytes := src.Width * src.Depth
	for y := 0; y < src.Height; y++ {
		copy(dst.Data[y*dst.Step:y*dst.Step+rowBytes], src.Data[y*src.Step:])
	}
	return seatsanalyzer.StatusOK
}

func (m *Module) readImage(img *seatsanalyzer.Image, path string) seatsanalyzer.Status {
	if path == "" {
		return seatsanalyzer.StatusInvalidArgument
	}
	src, err := imaging.Load(path)
	if err != nil {
		monitoring.Debugf("reference: read %s: %v", path, err)
		if errors.Is(err, os.ErrNotExist) {
			return seatsanalyzer.StatusImageIO
		}
		return seatsanalyzer.StatusImageInvalid
	}

	pix, channels := imaging.Interleave(src)
	cm := seatsanalyzer.ColorModelGray
	switch channels {
	case 3:
		cm = seatsanalyzer.ColorModelBGR
	case 4:
		cm = seatsanalyzer.ColorModelBGRA
	}
	b := src.Bounds()
	if code := layout(img, b.Dx(), b.Dy(), cm, seatsanalyzer.DataTypeUChar, 0); code != seatsanalyzer.StatusOK {
		return seatsanalyzer.StatusImageInvalid
	}
	img.Data = pix
	img.Native = &buffer{}
	m.images.Add(1)
	return seatsanalyzer.StatusOK
}

func writeImage(img *seatsanalyzer.Image, path string) seatsanalyzer.Status {
	if path == "" {
		return seatsanalyzer.StatusInvalidArgument
	}
	out, err := img.ToGo()
	if err != nil {
		return seatsanalyzer.StatusImageInvalid
	}
	if err := imaging.Save(out, path); err != nil {
		monitoring.Debugf("reference: write %s: %v", path, err)
		return seatsanalyzer.StatusImageIO
	}
	return seatsanalyzer.StatusOK
}

func (m *Module) freeImage(img *seatsanalyzer.Image) {
	b, ok := img.Native.(*buffer)
	if !ok || b.freed {
		return
	}
	b.freed = true
	img.Data = nil
	m.images.Add(-1)
}
