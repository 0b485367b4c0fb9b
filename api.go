package seatsanalyzer

import (
	"fmt"
	"path/filepath"
	"reflect"

	"github.com/ironsheep/seats-analyzer/internal/monitoring"
)

// Table is the resolved capability table of one module. It is built once by
// Link and never changes, so it may be shared freely.
type Table struct {
	module string

	version       VersionFunc
	init          InitFunc
	free          FreeFunc
	runDet        RunDetFunc
	freeDetResult FreeDetResultFunc
	runScl        RunSclFunc

	dataTypeSize       DataTypeSizeFunc
	colorModelChannels ColorModelChannelsFunc
	pixelDepth         PixelDepthFunc
	allocateBlank      AllocateBlankFunc
	allocate           AllocateFunc
	allocateAndWrap    AllocateAndWrapFunc
	copyImage          CopyFunc
	readImage          ReadFunc
	writeImage         WriteFunc
	freeImage          FreeImageFunc
}

// Link resolves every entry point of m into a new Table. A nil m selects the
// module registered with RegisterStatic.
//
// Required entries that are missing or have the wrong type fail the whole
// link with a *LinkError naming the symbol. Optional image entries
// (erImageGetDataTypeSize, erImageGetColorModelNumChannels,
// erImageGetPixelDepth, erImageAllocateBlank, erImageCopy, erImageWrite) may
// be absent; calling them then returns a *LinkError.
func Link(m Module) (*Table, error) {
	if m == nil {
		m = registeredStatic()
		if m == nil {
			return nil, &LinkError{Module: "static", Err: ErrNoStaticModule}
		}
	}

	t := &Table{module: m.Name()}
	steps := []error{
		resolve(m, SymVersion, true, &t.version),
		resolve(m, SymInit, true, &t.init),
		resolve(m, SymFree, true, &t.free),
		resolve(m, SymRunDet, true, &t.runDet),
		resolve(m, SymFreeDetResult, true, &t.freeDetResult),
		resolve(m, SymRunScl, true, &t.runScl),
		resolve(m, SymImageDataTypeSize, false, &t.dataTypeSize),
		resolve(m, SymImageColorModelChannels, false, &t.colorModelChannels),
		resolve(m, SymImagePixelDepth, false, &t.pixelDepth),
		resolve(m, SymImageAllocateBlank, false, &t.allocateBlank),
		resolve(m, SymImageAllocate, true, &t.allocate),
		resolve(m, SymImageAllocateAndWrap, true, &t.allocateAndWrap),
		resolve(m, SymImageCopy, false, &t.copyImage),
		resolve(m, SymImageRead, true, &t.readImage),
		resolve(m, SymImageWrite, false, &t.writeImage),
		resolve(m, SymImageFree, true, &t.freeImage),
	}
	for _, err := range steps {
		if err != nil {
			return nil, err
		}
	}

	monitoring.Debugf("linked module %s (version %s)", t.module, t.version())
	return t, nil
}

func resolve[F any](m Module, symbol string, required bool, dst *F) error {
	v, err := m.Lookup(symbol)
	if err == nil && v == nil {
		err = ErrSymbolNotFound
	}
	if err != nil {
		if required {
			return &LinkError{Module: m.Name(), Symbol: symbol, Err: err}
		}
		return nil
	}

	f, ok := v.(F)
	if !ok {
		var want F
		return &LinkError{Module: m.Name(), Symbol: symbol, Err: fmt.Errorf("got %T, want %T", v, want)}
	}
	if rv := reflect.ValueOf(f); rv.Kind() == reflect.Func && rv.IsNil() {
		if required {
			return &LinkError{Module: m.Name(), Symbol: symbol, Err: ErrSymbolNotFound}
		}
		return nil
	}
	*dst = f
	return nil
}

// Module returns the name of the linked module.
func (t *Table) Module() string {
	return t.module
}

// Version returns the module's version string.
func (t *Table) Version() string {
	return t.version()
}

// Initialize creates a session from the configuration file at configPath,
// overlaid with the non-zero fields of cfg. cfg may be nil.
//
// cfg is checked before the module sees it: Validate, then CheckPaths with
// paths resolved against the configuration file's directory. The module
// receives a copy, so cfg is never modified.
func (t *Table) Initialize(configPath string, cfg *Config) (*Session, error) {
	if configPath == "" || len(configPath) >= MaxPath {
		return nil, &InitError{Path: configPath, Code: StatusInvalidArgument, Err: fmt.Errorf("configuration path must be 1 to %d bytes", MaxPath-1)}
	}

	var override *Config
	if cfg != nil {
		if err := cfg.Validate(); err != nil {
			return nil, &InitError{Path: configPath, Code: StatusConfigInvalid, Err: err}
		}
		if err := cfg.CheckPaths(filepath.Dir(configPath)); err != nil {
			return nil, &InitError{Path: configPath, Code: StatusAssetMissing, Err: err}
		}
		c := *cfg
		override = &c
	}

	st, code := t.init(configPath, override)
	if code != StatusOK {
		return nil, &InitError{Path: configPath, Code: code}
	}

	s := newSession(t, st)
	monitoring.Debugf("session %s initialized from %s", s.id, configPath)
	return s, nil
}

func (t *Table) missing(symbol string) error {
	return &LinkError{Module: t.module, Symbol: symbol, Err: ErrSymbolNotFound}
}
