//go:build cgo

package native

/*
#include "abi.h"
*/
import "C"

import (
	"sync"
	"unsafe"

	seatsanalyzer "github.com/ironsheep/seats-analyzer"
	"github.com/ironsheep/seats-analyzer/internal/monitoring"
)

// inferenceSlot holds the inferencers of one session.
type inferenceSlot struct {
	det     seatsanalyzer.Inferencer
	detSize int
	scl     seatsanalyzer.Inferencer
	sclSize int
}

// The C callback carries no user pointer, so the inferencers of the session
// inside a module call are published here for the duration of that call.
// Native calls of all sessions are serialized by active.mu.
var active struct {
	mu   sync.Mutex
	slot inferenceSlot
}

// run calls fn with s published as the active slot.
func (s inferenceSlot) run(fn func() C.int) seatsanalyzer.Status {
	active.mu.Lock()
	defer active.mu.Unlock()

	active.slot = s
	defer func() { active.slot = inferenceSlot{} }()
	return seatsanalyzer.Status(fn())
}

//export saGoDetInference
func saGoDetInference(input *C.ERImage, output *C.uchar) C.int {
	return invoke("detection", active.slot.det, active.slot.detSize, input, output)
}

//export saGoSclInference
func saGoSclInference(input *C.ERImage, output *C.uchar) C.int {
	return invoke("classification", active.slot.scl, active.slot.sclSize, input, output)
}

func invoke(stage string, inf seatsanalyzer.Inferencer, size int, input *C.ERImage, output *C.uchar) C.int {
	if inf == nil || input == nil || output == nil || size <= 0 {
		monitoring.Logf("native: %s callback invoked without an active inferencer", stage)
		return C.int(seatsanalyzer.StatusCallbackFailed)
	}

	img := transientImage(input)
	out := unsafe.Slice((*byte)(unsafe.Pointer(output)), size)
	if err := seatsanalyzer.RunInference(inf, img, out); err != nil {
		monitoring.Debugf("native: %s callback failed: %v", stage, err)
		return C.int(seatsanalyzer.StatusCallbackFailed)
	}
	return 0
}

// transientImage views a module-owned input image. It is valid only during
// the callback.
func transientImage(c *C.ERImage) *seatsanalyzer.Image {
	img := &seatsanalyzer.Image{
		ColorModel: seatsanalyzer.ColorModel(c.color_model),
		DataType:   seatsanalyzer.DataType(c.data_type),
		Width:      int(c.width),
		Height:     int(c.height),
		Channels:   int(c.num_channels),
		Depth:      int(c.depth),
		Step:       int(c.step),
	}
	if c.data != nil && c.data_size > 0 {
		img.Data = unsafe.Slice((*byte)(unsafe.Pointer(c.data)), int(c.data_size))
	}
	return img
}
