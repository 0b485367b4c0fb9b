package seatsanalyzer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig creates an empty configuration file in a temp dir
func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(path, []byte("[sdk]\n"), 0o644))
	return path
}

func TestLink(t *testing.T) {
	table, err := Link(newFakeModule())
	require.NoError(t, err)

	assert.Equal(t, "fake", table.Module())
	assert.Equal(t, "fake-1.0", table.Version())
}

func TestLink_MissingRequiredNamesSymbol(t *testing.T) {
	required := []string{SymVersion, SymInit, SymFree, SymRunDet, SymFreeDetResult, SymRunScl,
		SymImageAllocate, SymImageAllocateAndWrap, SymImageRead, SymImageFree}

	for _, sym := range required {
		t.Run(sym, func(t *testing.T) {
			table, err := Link(newFakeModule().without(sym))
			assert.Nil(t, table)

			var le *LinkError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, sym, le.Symbol)
			assert.Equal(t, "fake", le.Module)
			assert.ErrorIs(t, err, ErrSymbolNotFound)
			assert.Contains(t, err.Error(), sym)
		})
	}
}

func TestLink_WrongType(t *testing.T) {
	m := newFakeModule()
	m.syms[SymVersion] = func() string { return "untyped" }

	_, err := Link(m)

	var le *LinkError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, SymVersion, le.Symbol)
	assert.Contains(t, err.Error(), "want seatsanalyzer.VersionFunc")
}

func TestLink_NilFunction(t *testing.T) {
	m := newFakeModule()
	m.syms[SymRunScl] = RunSclFunc(nil)

	_, err := Link(m)

	var le *LinkError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, SymRunScl, le.Symbol)
}

func TestLink_OptionalEntriesFailAtCallTime(t *testing.T) {
	table, err := Link(newFakeModule())
	require.NoError(t, err)

	img, err := table.AllocateImage(2, 2, ColorModelGray, DataTypeUChar)
	require.NoError(t, err)
	defer table.FreeImage(img)

	calls := map[string]func() error{
		SymImageDataTypeSize:       func() error { _, err := table.DataTypeSize(DataTypeUChar); return err },
		SymImageColorModelChannels: func() error { _, err := table.ColorModelChannels(ColorModelBGR); return err },
		SymImagePixelDepth:         func() error { _, err := table.PixelDepth(ColorModelBGR, DataTypeUChar); return err },
		SymImageAllocateBlank:      func() error { _, err := table.BlankImage(); return err },
		SymImageCopy:               func() error { _, err := table.CopyImage(img); return err },
		SymImageWrite:              func() error { return table.WriteImage(img, "out.png") },
	}

	for sym, call := range calls {
		t.Run(sym, func(t *testing.T) {
			var le *LinkError
			require.ErrorAs(t, call(), &le)
			assert.Equal(t, sym, le.Symbol)
			assert.ErrorIs(t, le, ErrSymbolNotFound)
		})
	}
}

func TestLink_Static(t *testing.T) {
	resetStatic()
	defer resetStatic()

	_, err := Link(nil)
	assert.ErrorIs(t, err, ErrNoStaticModule)

	RegisterStatic(newFakeModule())
	table, err := Link(nil)
	require.NoError(t, err)
	assert.Equal(t, "fake", table.Module())

	assert.Panics(t, func() { RegisterStatic(newFakeModule()) })
	assert.Panics(t, func() { RegisterStatic(nil) })
}

func TestInitialize(t *testing.T) {
	m := newFakeModule()
	table, err := Link(m)
	require.NoError(t, err)

	cfg := &Config{NumThreads: 2}
	session, err := table.Initialize(writeConfig(t), cfg)
	require.NoError(t, err)

	assert.NotEmpty(t, session.ID())
	assert.Same(t, table, session.Table())
	require.NotNil(t, m.lastConfig)
	assert.NotSame(t, cfg, m.lastConfig, "the module gets a copy")
	assert.Equal(t, 2, m.lastConfig.NumThreads)

	require.NoError(t, session.Close())
	assert.Equal(t, 0, m.states)
}

func TestInitialize_Errors(t *testing.T) {
	inf := InferenceFunc(func(*Image, []byte) error { return nil })

	tests := []struct {
		name       string
		path       string
		cfg        *Config
		initStatus Status
		want       Status
		reachInit  bool
	}{
		{"empty path", "", nil, StatusOK, StatusInvalidArgument, false},
		{"path too long", strings.Repeat("a", MaxPath), nil, StatusOK, StatusInvalidArgument, false},
		{"bad threads", "config.ini", &Config{NumThreads: -1}, StatusOK, StatusConfigInvalid, false},
		{"callback without size", "config.ini", &Config{DetInference: inf}, StatusOK, StatusConfigInvalid, false},
		{"missing asset", "config.ini", &Config{SclModelDirectory: "no-such-dir"}, StatusOK, StatusAssetMissing, false},
		{"module rejects", "config.ini", nil, StatusConfigUnreadable, StatusConfigUnreadable, true},
		{"vendor status", "config.ini", nil, Status(42), Status(42), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newFakeModule()
			m.initStatus = tt.initStatus
			table, err := Link(m)
			require.NoError(t, err)

			path := tt.path
			if path == "config.ini" {
				path = writeConfig(t)
			}

			session, err := table.Initialize(path, tt.cfg)
			assert.Nil(t, session)

			var ie *InitError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.want, ie.Code)
			assert.Equal(t, tt.reachInit, m.inits > 0)
			assert.Equal(t, 0, m.states)
		})
	}
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "unsupported label", StatusUnsupportedLabel.String())
	assert.Equal(t, "status(42)", Status(42).String())
}

func TestErrors_Unwrap(t *testing.T) {
	cause := errors.New("cause")

	errs := []error{
		&LinkError{Module: "m", Symbol: "s", Err: cause},
		&InitError{Path: "p", Code: StatusConfigInvalid, Err: cause},
		&DetectError{Code: StatusImageInvalid, Err: cause},
		&ClassifyError{Label: "window", Code: StatusInferenceFailed, Err: cause},
		&ImageError{Op: "read", Path: "p", Code: StatusImageIO, Err: cause},
	}

	for _, err := range errs {
		assert.ErrorIs(t, err, cause)
		assert.NotEmpty(t, err.Error())
	}
}
