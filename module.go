package seatsanalyzer

import "sync"

// Module is an implementation that can be linked into a Table.
//
// Lookup returns the Go function registered under symbol, typed as one of the
// *Func types below, or ErrSymbolNotFound.
type Module interface {
	Name() string
	Lookup(symbol string) (any, error)
}

// Entry point names, as exported by native modules.
const (
	SymVersion       = "saVersion"
	SymInit          = "saInit"
	SymFree          = "saFree"
	SymRunDet        = "saRunDet"
	SymFreeDetResult = "saFreeDetResult"
	SymRunScl        = "saRunScl"

	SymImageDataTypeSize       = "erImageGetDataTypeSize"
	SymImageColorModelChannels = "erImageGetColorModelNumChannels"
	SymImagePixelDepth         = "erImageGetPixelDepth"
	SymImageAllocateBlank      = "erImageAllocateBlank"
	SymImageAllocate           = "erImageAllocate"
	SymImageAllocateAndWrap    = "erImageAllocateAndWrap"
	SymImageCopy               = "erImageCopy"
	SymImageRead               = "erImageRead"
	SymImageWrite              = "erImageWrite"
	SymImageFree               = "erImageFree"
)

// State is a module's opaque per-session value.
type State any

// DetBuffer is module-owned storage behind one detection result.
type DetBuffer interface {
	Len() int
	At(i int) Detection
}

// Entry point signatures.
type (
	VersionFunc       func() string
	InitFunc          func(configPath string, cfg *Config) (State, Status)
	FreeFunc          func(st State)
	RunDetFunc        func(st State, img *Image, roi *RoI) (DetBuffer, Status)
	FreeDetResultFunc func(st State, buf DetBuffer)
	RunSclFunc        func(st State, img *Image, pos RotatedRect, label Label) (ClassificationResult, Status)

	DataTypeSizeFunc       func(dt DataType) int
	ColorModelChannelsFunc func(cm ColorModel) int
	PixelDepthFunc         func(cm ColorModel, dt DataType) int
	AllocateBlankFunc      func(img *Image) Status
	AllocateFunc           func(img *Image, width, height int, cm ColorModel, dt DataType) Status
	AllocateAndWrapFunc    func(img *Image, width, height int, cm ColorModel, dt DataType, data []byte, step int) Status
	CopyFunc               func(src, dst *Image) Status
	ReadFunc               func(img *Image, path string) Status
	WriteFunc              func(img *Image, path string) Status
	FreeImageFunc          func(img *Image)
)

var (
	staticMu     sync.Mutex
	staticModule Module
)

// RegisterStatic records the module linked into the binary at build time.
// Link(nil) uses it. It panics if called twice.
func RegisterStatic(m Module) {
	staticMu.Lock()
	defer staticMu.Unlock()

	if m == nil {
		panic("seatsanalyzer: RegisterStatic module is nil")
	}
	if staticModule != nil {
		panic("seatsanalyzer: RegisterStatic called twice")
	}
	staticModule = m
}

func registeredStatic() Module {
	staticMu.Lock()
	defer staticMu.Unlock()
	return staticModule
}
