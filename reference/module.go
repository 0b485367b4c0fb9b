// Package reference is a pure-Go seats analyzer module. It implements every
// entry point of the module contract with simple image heuristics, so
// hosts and tests can run the whole pipeline without the native SDK.
//
// The heuristics make no accuracy claim. Windshields are found as dark,
// wide rectangles; seats are the left, middle and right thirds of the
// windshield and are scored from edge density, tone and diagonal lines.
//
// Usage:
//
//	table, err := seatsanalyzer.Link(reference.New())
//	session, err := table.Initialize("testdata/config.yaml", nil)
package reference

import (
	"errors"
	"path/filepath"
	"runtime"
	"sync/atomic"

	seatsanalyzer "github.com/ironsheep/seats-analyzer"
	"github.com/ironsheep/seats-analyzer/internal/detection"
	"github.com/ironsheep/seats-analyzer/internal/monitoring"
)

// Name is the module name reported by Module.Name.
const Name = "reference"

// Version is returned by the saVersion entry point.
const Version = "1.0.0-reference"

// Module is the reference implementation. The zero value is not usable; call
// New. One Module may back any number of tables and sessions.
type Module struct {
	states  atomic.Int64
	results atomic.Int64
	images  atomic.Int64
}

// New returns a reference module.
func New() *Module {
	return &Module{}
}

// Stats counts the module allocations that are still live.
type Stats struct {
	States  int64 `json:"states"`
	Results int64 `json:"results"`
	Images  int64 `json:"images"`
}

// Stats returns the live allocation counters.
func (m *Module) Stats() Stats {
	return Stats{
		States:  m.states.Load(),
		Results: m.results.Load(),
		Images:  m.images.Load(),
	}
}

// Name implements seatsanalyzer.Module.
func (m *Module) Name() string {
	return Name
}

// Lookup implements seatsanalyzer.Module.
func (m *Module) Lookup(symbol string) (any, error) {
	switch symbol {
	case seatsanalyzer.SymVersion:
		return seatsanalyzer.VersionFunc(m.version), nil
	case seatsanalyzer.SymInit:
		return seatsanalyzer.InitFunc(m.init), nil
	case seatsanalyzer.SymFree:
		return seatsanalyzer.FreeFunc(m.free), nil
	case seatsanalyzer.SymRunDet:
		return seatsanalyzer.RunDetFunc(m.runDet), nil
	case seatsanalyzer.SymFreeDetResult:
		return seatsanalyzer.FreeDetResultFunc(m.freeDetResult), nil
	case seatsanalyzer.SymRunScl:
		return seatsanalyzer.RunSclFunc(m.runScl), nil
	case seatsanalyzer.SymImageDataTypeSize:
		return seatsanalyzer.DataTypeSizeFunc(dataTypeSize), nil
	case seatsanalyzer.SymImageColorModelChannels:
		return seatsanalyzer.ColorModelChannelsFunc(colorModelChannels), nil
	case seatsanalyzer.SymImagePixelDepth:
		return seatsanalyzer.PixelDepthFunc(pixelDepth), nil
	case seatsanalyzer.SymImageAllocateBlank:
		return seatsanalyzer.AllocateBlankFunc(m.allocateBlank), nil
	case seatsanalyzer.SymImageAllocate:
		return seatsanalyzer.AllocateFunc(m.allocate), nil
	case seatsanalyzer.SymImageAllocateAndWrap:
		return seatsanalyzer.AllocateAndWrapFunc(m.allocateAndWrap), nil
	case seatsanalyzer.SymImageCopy:
		return seatsanalyzer.CopyFunc(m.copyImage), nil
	case seatsanalyzer.SymImageRead:
		return seatsanalyzer.ReadFunc(m.readImage), nil
	case seatsanalyzer.SymImageWrite:
		return seatsanalyzer.WriteFunc(writeImage), nil
	case seatsanalyzer.SymImageFree:
		return seatsanalyzer.FreeImageFunc(m.freeImage), nil
	}
	return nil, seatsanalyzer.ErrSymbolNotFound
}

func (m *Module) version() string {
	return Version
}

// state is the per-session value handed out by init.
type state struct {
	cfg     FileConfig
	assets  *assets
	workers int

	detInf  seatsanalyzer.Inferencer
	detSize int
	sclInf  seatsanalyzer.Inferencer
	sclSize int

	freed bool
}

func (m *Module) init(configPath string, override *seatsanalyzer.Config) (seatsanalyzer.State, seatsanalyzer.Status) {
	cfg := FileConfig{}
	if err := readYAML(configPath, &cfg); err != nil {
		monitoring.Logf("reference: %v", err)
		return nil, seatsanalyzer.StatusConfigUnreadable
	}
	cfg.apply(override)
	if err := cfg.Validate(); err != nil {
		monitoring.Logf("reference: invalid configuration %s: %v", configPath, err)
		return nil, seatsanalyzer.StatusConfigInvalid
	}

	mode, _ := cfg.Mode()
	if mode != seatsanalyzer.ModeCPU {
		monitoring.Logf("reference: computation mode %s is not supported", mode)
		return nil, seatsanalyzer.StatusUnsupportedMode
	}

	a, err := cfg.loadAssets(filepath.Dir(configPath))
	if err != nil {
		monitoring.Logf("reference: %v", err)
		var ae *assetError
		if errors.As(err, &ae) && ae.missing {
			return nil, seatsanalyzer.StatusAssetMissing
		}
		return nil, seatsanalyzer.StatusConfigInvalid
	}

	st := &state{cfg: cfg, assets: a, workers: cfg.NumThreads}
	if st.workers == 0 {
		st.workers = runtime.GOMAXPROCS(0)
	}
	st.assets.params.Workers = st.workers

	if override != nil {
		if override.DetInference != nil {
			if override.DetInferenceOutputSize < DetRecordSize {
				monitoring.Logf("reference: detection output buffer of %d bytes holds no record", override.DetInferenceOutputSize)
				return nil, seatsanalyzer.StatusConfigInvalid
			}
			st.detInf, st.detSize = override.DetInference, override.DetInferenceOutputSize
		}
		if override.SclInference != nil {
			if override.SclInferenceOutputSize < SclOutputSize {
				monitoring.Logf("reference: classification output buffer needs %d bytes, got %d", SclOutputSize, override.SclInferenceOutputSize)
				return nil, seatsanalyzer.StatusConfigInvalid
			}
			st.sclInf, st.sclSize = override.SclInference, override.SclInferenceOutputSize
		}
	}

	m.states.Add(1)
	monitoring.Debugf("reference: initialized from %s (%d workers)", configPath, st.workers)
	return st, seatsanalyzer.StatusOK
}

func (m *Module) free(st seatsanalyzer.State) {
	s, ok := st.(*state)
	if !ok || s.freed {
		return
	}
	s.freed = true
	m.states.Add(-1)
}

// sessionState recovers the module's state, rejecting foreign and freed
// values.
func sessionState(st seatsanalyzer.State) (*state, bool) {
	s, ok := st.(*state)
	if !ok || s == nil || s.freed {
		return nil, false
	}
	return s, true
}

// detectionParams returns the detector tuning of s.
func (s *state) detectionParams() detection.Params {
	return s.assets.params
}
