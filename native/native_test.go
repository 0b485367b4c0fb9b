package native

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	seatsanalyzer "github.com/ironsheep/seats-analyzer"
	"github.com/ironsheep/seats-analyzer/internal/dynlib"
)

func TestDefaultLibraryPath(t *testing.T) {
	if dynlib.Target() == "" {
		t.Skip("no naming convention for this architecture")
	}

	path := DefaultLibraryPath("/opt/sdk", LibraryOptions{})
	assert.Equal(t, filepath.Join("/opt/sdk", "lib"), filepath.Dir(path))

	name := filepath.Base(path)
	assert.True(t, strings.HasPrefix(name, dynlib.LibPrefix+Product+"-"), name)
	assert.True(t, strings.HasSuffix(name, dynlib.Target()+dynlib.LibExt), name)

	debug, err := LibraryName(LibraryOptions{Suffix: ".unsecured", Debug: true})
	require.NoError(t, err)
	assert.Equal(t, dynlib.LibPrefix+"seatsanalyzer.unsecured-"+dynlib.Target()+"d"+dynlib.LibExt, debug)

	assert.Equal(t, filepath.Join("/opt/sdk", "config.ini"), DefaultConfigPath("/opt/sdk"))
}

func TestOpen_MissingLibrary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "libseatsanalyzer-missing.so")

	mod, err := Open(path)
	assert.Nil(t, mod)
	require.Error(t, err)

	if errors.Is(err, ErrCgoRequired) {
		return
	}
	var openErr *dynlib.OpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, path, openErr.Path)
}

// TestLibrary runs the pipeline against a real library named by
// SEATS_ANALYZER_LIBRARY, with SEATS_ANALYZER_CONFIG and
// SEATS_ANALYZER_TEST_IMAGE.
func TestLibrary(t *testing.T) {
	libPath := os.Getenv("SEATS_ANALYZER_LIBRARY")
	configPath := os.Getenv("SEATS_ANALYZER_CONFIG")
	imagePath := os.Getenv("SEATS_ANALYZER_TEST_IMAGE")
	if libPath == "" || configPath == "" || imagePath == "" {
		t.Skip("SEATS_ANALYZER_LIBRARY, SEATS_ANALYZER_CONFIG and SEATS_ANALYZER_TEST_IMAGE not set")
	}
	if _, err := os.Stat(libPath); err != nil {
		t.Skipf("library not available: %v", err)
	}

	mod, err := Open(libPath)
	require.NoError(t, err)
	defer mod.Close()

	table, err := seatsanalyzer.Link(mod)
	require.NoError(t, err)
	assert.NotEmpty(t, table.Version())

	session, err := table.Initialize(configPath, nil)
	require.NoError(t, err)
	defer session.Close()

	img, err := table.ReadImage(imagePath)
	require.NoError(t, err)
	defer table.FreeImage(img)

	out, err := session.Analyze(img, nil)
	require.NoError(t, err)
	for _, a := range out {
		if a.Detection.Label != seatsanalyzer.LabelWindow {
			continue
		}
		assert.NoError(t, a.Err)
		if a.Classification != nil {
			assert.True(t, a.Classification.Left.Occupied.Implemented())
		}
	}

	_, err = session.Classify(img, seatsanalyzer.RotatedRect{Width: 10, Height: 10}, "plate")
	var ce *seatsanalyzer.ClassifyError
	require.ErrorAs(t, err, &ce)
	assert.NotEqual(t, seatsanalyzer.StatusOK, ce.Code)
}
