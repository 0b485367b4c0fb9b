// Package native binds the seats analyzer C library.
//
// Deferred linkage loads the library at run time and hands it to its own
// saLinkAPI entry:
//
//	mod, err := native.Open(native.DefaultLibraryPath("/opt/seats-sdk", native.LibraryOptions{}))
//	tbl, err := seatsanalyzer.Link(mod)
//
// Static linkage builds the package with the seatsanalyzer_static tag, which
// links -lseatsanalyzer and registers the module at init; seatsanalyzer.Link(nil)
// then finds it.
//
// Inference callbacks reach Go through exported trampolines. Because the C
// callback signature has no user pointer, calls into the library are
// serialized process-wide while a session's inferencers are published.
package native

import (
	"path/filepath"

	"github.com/ironsheep/seats-analyzer/internal/dynlib"
)

// Product is the library's base name.
const Product = "seatsanalyzer"

// LinkSymbol is the one entry resolved by name.
const LinkSymbol = "saLinkAPI"

// StaticName names the module registered by static builds.
const StaticName = "static"

// LibraryOptions selects a library variant.
type LibraryOptions struct {
	// Suffix follows the product name, e.g. ".unsecured".
	Suffix string
	Debug  bool
}

// LibraryName returns the platform file name of the library.
func LibraryName(opts LibraryOptions) (string, error) {
	return dynlib.ModuleName(Product, dynlib.NameOptions{Suffix: opts.Suffix, Debug: opts.Debug})
}

// DefaultLibraryPath returns <sdkDir>/lib/<library name>, or "" on a
// platform without a naming convention.
func DefaultLibraryPath(sdkDir string, opts LibraryOptions) string {
	name, err := LibraryName(opts)
	if err != nil {
		return ""
	}
	return filepath.Join(sdkDir, "lib", name)
}

// DefaultConfigPath returns <sdkDir>/config.ini.
func DefaultConfigPath(sdkDir string) string {
	return filepath.Join(sdkDir, "config.ini")
}
