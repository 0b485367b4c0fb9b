package seatsanalyzer

// fakeModule is a scriptable Module for the lifecycle tests.
type fakeModule struct {
	name string
	syms map[string]any

	initStatus Status
	detStatus  Status
	// detPartial makes a failing detection still hand back a buffer.
	detPartial bool
	sclStatus  Status
	freePanics bool

	lastConfig *Config
	inits      int
	states     int
	buffers    int
	images     int
}

type fakeState struct{ id int }

type fakeBuffer struct{ dets []Detection }

func (b *fakeBuffer) Len() int           { return len(b.dets) }
func (b *fakeBuffer) At(i int) Detection { return b.dets[i] }

func (f *fakeModule) Name() string { return f.name }

func (f *fakeModule) without(sym string) *fakeModule {
	delete(f.syms, sym)
	return f
}

func (f *fakeModule) Lookup(symbol string) (any, error) {
	if v, ok := f.syms[symbol]; ok {
		return v, nil
	}
	return nil, ErrSymbolNotFound
}

// newFakeModule returns a module providing every entry point.
func newFakeModule() *fakeModule {
	f := &fakeModule{name: "fake"}
	f.syms = map[string]any{
		SymVersion: VersionFunc(func() string { return "fake-1.0" }),
		SymInit: InitFunc(func(path string, cfg *Config) (State, Status) {
			f.inits++
			f.lastConfig = cfg
			if f.initStatus != StatusOK {
				return nil, f.initStatus
			}
			f.states++
			return &fakeState{id: f.states}, StatusOK
		}),
		SymFree: FreeFunc(func(st State) {
			if f.freePanics {
				panic("free exploded")
			}
			f.states--
		}),
		SymRunDet: RunDetFunc(func(st State, img *Image, roi *RoI) (DetBuffer, Status) {
			if f.detStatus != StatusOK {
				if f.detPartial {
					f.buffers++
					return &fakeBuffer{dets: []Detection{{Label: LabelWindow}}}, f.detStatus
				}
				return nil, f.detStatus
			}
			f.buffers++
			return &fakeBuffer{dets: []Detection{
				{Confidence: 0.9, Position: RotatedRect{X: 5, Y: 5, Width: 4, Height: 2}, Label: LabelWindow},
				{Confidence: 0.4, Position: RotatedRect{X: 1, Y: 1, Width: 1, Height: 1}, Label: "plate"},
			}}, StatusOK
		}),
		SymFreeDetResult: FreeDetResultFunc(func(st State, buf DetBuffer) {
			f.buffers--
		}),
		SymRunScl: RunSclFunc(func(st State, img *Image, pos RotatedRect, label Label) (ClassificationResult, Status) {
			if f.sclStatus != StatusOK {
				return ClassificationResult{}, f.sclStatus
			}
			if label != LabelWindow {
				return ClassificationResult{}, StatusUnsupportedLabel
			}
			var res ClassificationResult
			res.Left.Occupied = ClassResult{Result: OutcomeTrue, Confidence: 0.8, Confidences: [3]float64{0.1, 0.8, 0.1}}
			return res, StatusOK
		}),
		SymImageAllocate: AllocateFunc(func(img *Image, w, h int, cm ColorModel, dt DataType) Status {
			ch := map[ColorModel]int{ColorModelGray: 1, ColorModelBGR: 3, ColorModelBGRA: 4}[cm]
			if w < 1 || h < 1 || ch == 0 || dt != DataTypeUChar {
				return StatusInvalidArgument
			}
			*img = Image{ColorModel: cm, DataType: dt, Width: w, Height: h, Channels: ch, Depth: ch, Step: w * ch, Data: make([]byte, w*h*ch)}
			f.images++
			return StatusOK
		}),
		SymImageAllocateAndWrap: AllocateAndWrapFunc(func(img *Image, w, h int, cm ColorModel, dt DataType, data []byte, step int) Status {
			*img = Image{ColorModel: cm, DataType: dt, Width: w, Height: h, Channels: 1, Depth: 1, Step: step, Data: data}
			f.images++
			return StatusOK
		}),
		SymImageRead: ReadFunc(func(img *Image, path string) Status {
			return StatusImageIO
		}),
		SymImageFree: FreeImageFunc(func(img *Image) {
			f.images--
		}),
	}
	return f
}

// resetStatic clears the module registered with RegisterStatic.
func resetStatic() {
	staticMu.Lock()
	defer staticMu.Unlock()
	staticModule = nil
}
