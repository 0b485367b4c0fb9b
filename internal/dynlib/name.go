package dynlib

import "fmt"

// DebugSuffix is inserted before the extension of debug builds.
const DebugSuffix = "d"

// NameOptions tweaks ModuleName.
type NameOptions struct {
	// Suffix follows the product name, e.g. ".unsecured".
	Suffix string
	// Debug selects the debug build of the module.
	Debug bool
}

// ModuleName builds the platform file name of a module:
//
//	prefix + product + suffix + "-" + target [+ "d"] + ext
//
// e.g. "libseatsanalyzer-x86_64.so" or "seatsanalyzer-x64.dll".
func ModuleName(product string, opts NameOptions) (string, error) {
	target := Target()
	if target == "" {
		return "", ErrUnsupportedPlatform
	}
	if product == "" {
		return "", fmt.Errorf("dynlib: empty product name")
	}

	debug := ""
	if opts.Debug {
		debug = DebugSuffix
	}
	return LibPrefix + product + opts.Suffix + "-" + target + debug + LibExt, nil
}

// Target returns the architecture tag of the running build, or "" when the
// architecture has none.
func Target() string {
	return libTarget
}
