//go:build cgo && seatsanalyzer_static

package native

/*
#cgo LDFLAGS: -lseatsanalyzer
#include <stdlib.h>
#include "abi.h"

int saLinkAPI(void *handle, SaAPI *api);

static int sa_link_static(SaAPI *api) { return saLinkAPI(NULL, api); }
*/
import "C"

import (
	"unsafe"

	seatsanalyzer "github.com/ironsheep/seats-analyzer"
	"github.com/ironsheep/seats-analyzer/internal/monitoring"
)

// The library is linked into the binary; saLinkAPI with a nil handle maps
// its own entry points.
func init() {
	api := newAPI()
	if code := C.sa_link_static(api); code != 0 {
		C.free(unsafe.Pointer(api))
		monitoring.Logf("native: static %s returned %d, no static module registered", LinkSymbol, int(code))
		return
	}
	seatsanalyzer.RegisterStatic(&Module{name: StaticName, api: api})
}
