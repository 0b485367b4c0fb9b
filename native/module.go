//go:build cgo

package native

/*
#include <stdlib.h>
#include "abi.h"
*/
import "C"

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"unsafe"

	seatsanalyzer "github.com/ironsheep/seats-analyzer"
	"github.com/ironsheep/seats-analyzer/internal/dynlib"
	"github.com/ironsheep/seats-analyzer/internal/monitoring"
)

// Module is a native implementation whose entry points were filled in by
// saLinkAPI. It satisfies seatsanalyzer.Module.
type Module struct {
	name string
	lib  *dynlib.Library // nil for the static module

	mu  sync.Mutex
	api *C.SaAPI
}

// Open loads the library at path, resolves saLinkAPI and lets it fill the
// entry point table. Close the module only after every session and image of
// tables linked from it has been released.
func Open(path string) (*Module, error) {
	lib, err := dynlib.Open(path)
	if err != nil {
		return nil, err
	}

	fn, err := lib.Symbol(LinkSymbol)
	if err != nil {
		lib.Close()
		return nil, err
	}

	api := newAPI()
	if code := C.sa_link(C.uintptr_t(fn), C.uintptr_t(lib.Handle()), api); code != 0 {
		C.free(unsafe.Pointer(api))
		lib.Close()
		return nil, fmt.Errorf("%s in %q returned %d", LinkSymbol, path, int(code))
	}

	monitoring.Debugf("native module %s linked", path)
	return &Module{name: filepath.Base(path), lib: lib, api: api}, nil
}

func newAPI() *C.SaAPI {
	return (*C.SaAPI)(C.calloc(1, C.sizeof_SaAPI))
}

// Name returns the library file name.
func (m *Module) Name() string {
	return m.name
}

// Close releases the entry point table and unloads the library.
func (m *Module) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.api == nil {
		return nil
	}
	C.free(unsafe.Pointer(m.api))
	m.api = nil
	if m.lib != nil {
		return m.lib.Close()
	}
	return nil
}

func (m *Module) table() *C.SaAPI {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.api
}

// Lookup returns the Go binding of symbol, or ErrSymbolNotFound when the
// library left the entry empty.
func (m *Module) Lookup(symbol string) (any, error) {
	api := m.table()
	if api == nil {
		return nil, ErrModuleClosed
	}

	present := map[string]bool{
		seatsanalyzer.SymVersion:                 api.saVersion != nil,
		seatsanalyzer.SymInit:                    api.saInit != nil,
		seatsanalyzer.SymFree:                    api.saFree != nil,
		seatsanalyzer.SymRunDet:                  api.saRunDet != nil,
		seatsanalyzer.SymFreeDetResult:           api.saFreeDetResult != nil,
		seatsanalyzer.SymRunScl:                  api.saRunScl != nil,
		seatsanalyzer.SymImageDataTypeSize:       api.erImageGetDataTypeSize != nil,
		seatsanalyzer.SymImageColorModelChannels: api.erImageGetColorModelNumChannels != nil,
		seatsanalyzer.SymImagePixelDepth:         api.erImageGetPixelDepth != nil,
		seatsanalyzer.SymImageAllocateBlank:      api.erImageAllocateBlank != nil,
		seatsanalyzer.SymImageAllocate:           api.erImageAllocate != nil,
		seatsanalyzer.SymImageAllocateAndWrap:    api.erImageAllocateAndWrap != nil,
		seatsanalyzer.SymImageCopy:               api.erImageCopy != nil,
		seatsanalyzer.SymImageRead:               api.erImageRead != nil,
		seatsanalyzer.SymImageWrite:              api.erImageWrite != nil,
		seatsanalyzer.SymImageFree:               api.erImageFree != nil,
	}
	if !present[symbol] {
		return nil, seatsanalyzer.ErrSymbolNotFound
	}

	switch symbol {
	case seatsanalyzer.SymVersion:
		return seatsanalyzer.VersionFunc(func() string {
			return C.GoString(C.sa_version(api))
		}), nil
	case seatsanalyzer.SymInit:
		return seatsanalyzer.InitFunc(func(path string, cfg *seatsanalyzer.Config) (seatsanalyzer.State, seatsanalyzer.Status) {
			return initState(api, path, cfg)
		}), nil
	case seatsanalyzer.SymFree:
		return seatsanalyzer.FreeFunc(func(st seatsanalyzer.State) {
			if s, ok := st.(*state); ok && s.handle != nil {
				C.sa_free(api, s.handle)
				s.handle = nil
			}
		}), nil
	case seatsanalyzer.SymRunDet:
		return seatsanalyzer.RunDetFunc(func(st seatsanalyzer.State, img *seatsanalyzer.Image, roi *seatsanalyzer.RoI) (seatsanalyzer.DetBuffer, seatsanalyzer.Status) {
			return runDet(api, st, img, roi)
		}), nil
	case seatsanalyzer.SymFreeDetResult:
		return seatsanalyzer.FreeDetResultFunc(func(st seatsanalyzer.State, buf seatsanalyzer.DetBuffer) {
			s, ok := st.(*state)
			b, bok := buf.(*detBuffer)
			if !ok || !bok || b.c == nil {
				return
			}
			C.sa_free_det_result(api, s.handle, b.c)
			C.free(unsafe.Pointer(b.c))
			b.c = nil
		}), nil
	case seatsanalyzer.SymRunScl:
		return seatsanalyzer.RunSclFunc(func(st seatsanalyzer.State, img *seatsanalyzer.Image, pos seatsanalyzer.RotatedRect, label seatsanalyzer.Label) (seatsanalyzer.ClassificationResult, seatsanalyzer.Status) {
			return runScl(api, st, img, pos, label)
		}), nil
	}
	return imageEntry(api, symbol), nil
}

// state is the Go side of one SAState.
type state struct {
	handle C.SAState
	slot   inferenceSlot
}

func initState(api *C.SaAPI, path string, cfg *seatsanalyzer.Config) (seatsanalyzer.State, seatsanalyzer.Status) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	st := &state{}
	var ccfg *C.SaConfig
	if cfg != nil {
		var release func()
		ccfg, release = newConfig(cfg)
		defer release()
		st.slot = inferenceSlot{
			det: cfg.DetInference, detSize: cfg.DetInferenceOutputSize,
			scl: cfg.SclInference, sclSize: cfg.SclInferenceOutputSize,
		}
	}

	var handle C.SAState
	code := st.slot.run(func() C.int {
		return C.sa_init(api, cpath, ccfg, &handle)
	})
	if code != seatsanalyzer.StatusOK {
		return nil, code
	}
	st.handle = handle
	return st, seatsanalyzer.StatusOK
}

// newConfig copies cfg into C memory. Paths stay nil when unset.
func newConfig(cfg *seatsanalyzer.Config) (*C.SaConfig, func()) {
	c := (*C.SaConfig)(C.calloc(1, C.sizeof_SaConfig))
	var strs []*C.char
	str := func(s string) *C.char {
		if s == "" {
			return nil
		}
		cs := C.CString(s)
		strs = append(strs, cs)
		return cs
	}

	c.det_sdk_directory = str(cfg.DetSDKDirectory)
	c.det_config_directory = str(cfg.DetConfigDirectory)
	c.det_config_file = str(cfg.DetConfigFile)
	c.scl_model_directory = str(cfg.SclModelDirectory)
	c.scl_model_filename = str(cfg.SclModelFilename)
	c.scl_model_p_table_filename = str(cfg.SclModelPTableFilename)
	c.computation_mode = C.int(cfg.ComputationMode)
	c.gpu_device_id = C.int(cfg.GPUDeviceID)
	c.num_threads = C.int(cfg.NumThreads)

	if cfg.DetInference != nil {
		c.det_inference_callback = C.fcn_saInferenceCallback(C.sa_go_det_callback)
		c.det_inference_output_buffer_size = C.uint(cfg.DetInferenceOutputSize)
	}
	if cfg.SclInference != nil {
		c.scl_inference_callback = C.fcn_saInferenceCallback(C.sa_go_scl_callback)
		c.scl_inference_output_buffer_size = C.uint(cfg.SclInferenceOutputSize)
	}

	return c, func() {
		for _, s := range strs {
			C.free(unsafe.Pointer(s))
		}
		C.free(unsafe.Pointer(c))
	}
}

// detBuffer is a C SaDetResult.
type detBuffer struct {
	c *C.SaDetResult
}

func (b *detBuffer) Len() int {
	if b.c == nil || b.c.detections == nil || b.c.num_detections < 0 {
		return 0
	}
	return int(b.c.num_detections)
}

func (b *detBuffer) At(i int) seatsanalyzer.Detection {
	d := unsafe.Slice(b.c.detections, b.Len())[i]
	return seatsanalyzer.Detection{
		Confidence: float64(d.confidence),
		Position:   rectFromC(d.position),
		Label:      seatsanalyzer.Label(goLabel(d.label[:])),
	}
}

func runDet(api *C.SaAPI, st seatsanalyzer.State, img *seatsanalyzer.Image, roi *seatsanalyzer.RoI) (seatsanalyzer.DetBuffer, seatsanalyzer.Status) {
	s, ok := st.(*state)
	if !ok {
		return nil, seatsanalyzer.StatusInvalidArgument
	}
	h, ok := img.Native.(*imageHandle)
	if !ok {
		return nil, seatsanalyzer.StatusImageInvalid
	}

	var croi *C.ERRoI
	if roi != nil {
		croi = &C.ERRoI{x: C.int(roi.X), y: C.int(roi.Y), width: C.int(roi.Width), height: C.int(roi.Height)}
	}

	res := (*C.SaDetResult)(C.calloc(1, C.sizeof_SaDetResult))
	code := s.slot.run(func() C.int {
		return C.sa_run_det(api, s.handle, h.c, croi, res)
	})
	if code != seatsanalyzer.StatusOK && res.detections == nil {
		C.free(unsafe.Pointer(res))
		return nil, code
	}
	return &detBuffer{c: res}, code
}

func runScl(api *C.SaAPI, st seatsanalyzer.State, img *seatsanalyzer.Image, pos seatsanalyzer.RotatedRect, label seatsanalyzer.Label) (seatsanalyzer.ClassificationResult, seatsanalyzer.Status) {
	s, ok := st.(*state)
	if !ok {
		return seatsanalyzer.ClassificationResult{}, seatsanalyzer.StatusInvalidArgument
	}
	h, ok := img.Native.(*imageHandle)
	if !ok {
		return seatsanalyzer.ClassificationResult{}, seatsanalyzer.StatusImageInvalid
	}

	// The module reads a full label buffer.
	clabel := (*C.char)(C.calloc(seatsanalyzer.LabelLength, 1))
	defer C.free(unsafe.Pointer(clabel))
	copy(unsafe.Slice((*byte)(unsafe.Pointer(clabel)), seatsanalyzer.LabelLength-1), label)

	cpos := C.ERRotatedRect{x: C.float(pos.X), y: C.float(pos.Y), width: C.float(pos.Width), height: C.float(pos.Height), angle: C.float(pos.Angle)}
	var out C.SaSclResult
	code := s.slot.run(func() C.int {
		return C.sa_run_scl(api, s.handle, h.c, &cpos, clabel, &out)
	})
	if code != seatsanalyzer.StatusOK {
		return seatsanalyzer.ClassificationResult{}, code
	}

	return seatsanalyzer.ClassificationResult{
		Left:   positionFromC(out.left),
		Middle: positionFromC(out.middle),
		Right:  positionFromC(out.right),
	}, seatsanalyzer.StatusOK
}

func rectFromC(r C.ERRotatedRect) seatsanalyzer.RotatedRect {
	return seatsanalyzer.RotatedRect{
		X: float32(r.x), Y: float32(r.y),
		Width: float32(r.width), Height: float32(r.height),
		Angle: float32(r.angle),
	}
}

func positionFromC(p C.SaPosition) seatsanalyzer.Position {
	return seatsanalyzer.Position{
		Quality:  float64(p.quality),
		Occupied: classFromC(p.occupied),
		Driver:   classFromC(p.driver),
		Belt:     classFromC(p.belt),
		Phone:    classFromC(p.phone),
	}
}

func classFromC(c C.SaClass) seatsanalyzer.ClassResult {
	r := seatsanalyzer.ClassResult{
		Result:     goLabel(c.result[:]),
		Confidence: float64(c.confidence),
	}
	for i := range r.Confidences {
		r.Confidences[i] = float64(c.confidences[i])
	}
	return r
}

// goLabel reads a NUL-terminated fixed buffer.
func goLabel(buf []C.char) string {
	b := make([]byte, 0, len(buf))
	for _, c := range buf {
		if c == 0 {
			break
		}
		b = append(b, byte(c))
	}
	return string(b)
}

// imageHandle is the Native value of images this module allocates. c lives
// in C memory; pin keeps wrapped Go buffers in place while the module holds
// them.
type imageHandle struct {
	c   *C.ERImage
	pin runtime.Pinner
}

func newImageHandle() *imageHandle {
	return &imageHandle{c: (*C.ERImage)(C.calloc(1, C.sizeof_ERImage))}
}

func (h *imageHandle) release() {
	h.pin.Unpin()
	C.free(unsafe.Pointer(h.c))
	h.c = nil
}

// describe copies the C header fields into img.
func (h *imageHandle) describe(img *seatsanalyzer.Image) {
	c := h.c
	img.ColorModel = seatsanalyzer.ColorModel(c.color_model)
	img.DataType = seatsanalyzer.DataType(c.data_type)
	img.Width = int(c.width)
	img.Height = int(c.height)
	img.Channels = int(c.num_channels)
	img.Depth = int(c.depth)
	img.Step = int(c.step)
	img.Data = nil
	if c.data != nil && c.data_size > 0 {
		img.Data = unsafe.Slice((*byte)(unsafe.Pointer(c.data)), int(c.data_size))
	}
	img.Native = h
}

func imageEntry(api *C.SaAPI, symbol string) any {
	status := func(code C.int) seatsanalyzer.Status { return seatsanalyzer.Status(code) }

	switch symbol {
	case seatsanalyzer.SymImageDataTypeSize:
		return seatsanalyzer.DataTypeSizeFunc(func(dt seatsanalyzer.DataType) int {
			return int(C.sa_image_data_type_size(api, C.int(dt)))
		})
	case seatsanalyzer.SymImageColorModelChannels:
		return seatsanalyzer.ColorModelChannelsFunc(func(cm seatsanalyzer.ColorModel) int {
			return int(C.sa_image_channels(api, C.int(cm)))
		})
	case seatsanalyzer.SymImagePixelDepth:
		return seatsanalyzer.PixelDepthFunc(func(cm seatsanalyzer.ColorModel, dt seatsanalyzer.DataType) int {
			return int(C.sa_image_pixel_depth(api, C.int(cm), C.int(dt)))
		})
	case seatsanalyzer.SymImageAllocateBlank:
		return seatsanalyzer.AllocateBlankFunc(func(img *seatsanalyzer.Image) seatsanalyzer.Status {
			h := newImageHandle()
			if code := C.sa_image_allocate_blank(api, h.c); code != 0 {
				h.release()
				return status(code)
			}
			h.describe(img)
			return seatsanalyzer.StatusOK
		})
	case seatsanalyzer.SymImageAllocate:
		return seatsanalyzer.AllocateFunc(func(img *seatsanalyzer.Image, width, height int, cm seatsanalyzer.ColorModel, dt seatsanalyzer.DataType) seatsanalyzer.Status {
			if width < 0 || height < 0 {
				return seatsanalyzer.StatusInvalidArgument
			}
			h := newImageHandle()
			if code := C.sa_image_allocate(api, h.c, C.uint(width), C.uint(height), C.int(cm), C.int(dt)); code != 0 {
				h.release()
				return status(code)
			}
			h.describe(img)
			return seatsanalyzer.StatusOK
		})
	case seatsanalyzer.SymImageAllocateAndWrap:
		return seatsanalyzer.AllocateAndWrapFunc(func(img *seatsanalyzer.Image, width, height int, cm seatsanalyzer.ColorModel, dt seatsanalyzer.DataType, data []byte, step int) seatsanalyzer.Status {
			if width < 0 || height < 0 || step < 0 || len(data) == 0 {
				return seatsanalyzer.StatusInvalidArgument
			}
			h := newImageHandle()
			h.pin.Pin(&data[0])
			ptr := (*C.uchar)(unsafe.Pointer(&data[0]))
			if code := C.sa_image_wrap(api, h.c, C.uint(width), C.uint(height), C.int(cm), C.int(dt), ptr, C.uint(step)); code != 0 {
				h.release()
				return status(code)
			}
			h.describe(img)
			img.Data = data
			return seatsanalyzer.StatusOK
		})
	case seatsanalyzer.SymImageCopy:
		return seatsanalyzer.CopyFunc(func(src, dst *seatsanalyzer.Image) seatsanalyzer.Status {
			sh, ok := src.Native.(*imageHandle)
			if !ok {
				return seatsanalyzer.StatusImageInvalid
			}
			h := newImageHandle()
			if code := C.sa_image_copy(api, sh.c, h.c); code != 0 {
				h.release()
				return status(code)
			}
			h.describe(dst)
			return seatsanalyzer.StatusOK
		})
	case seatsanalyzer.SymImageRead:
		return seatsanalyzer.ReadFunc(func(img *seatsanalyzer.Image, path string) seatsanalyzer.Status {
			cpath := C.CString(path)
			defer C.free(unsafe.Pointer(cpath))
			h := newImageHandle()
			if code := C.sa_image_read(api, h.c, cpath); code != 0 {
				h.release()
				return status(code)
			}
			h.describe(img)
			return seatsanalyzer.StatusOK
		})
	case seatsanalyzer.SymImageWrite:
		return seatsanalyzer.WriteFunc(func(img *seatsanalyzer.Image, path string) seatsanalyzer.Status {
			h, ok := img.Native.(*imageHandle)
			if !ok {
				return seatsanalyzer.StatusImageInvalid
			}
			cpath := C.CString(path)
			defer C.free(unsafe.Pointer(cpath))
			return status(C.sa_image_write(api, h.c, cpath))
		})
	case seatsanalyzer.SymImageFree:
		return seatsanalyzer.FreeImageFunc(func(img *seatsanalyzer.Image) {
			h, ok := img.Native.(*imageHandle)
			if !ok || h.c == nil {
				return
			}
			C.sa_image_free(api, h.c)
			h.release()
		})
	}
	return nil
}

// ErrModuleClosed is returned by Lookup after Close.
var ErrModuleClosed = errors.New("native module closed")
