//go:build !windows && !darwin

package dynlib

// Shared library affixes.
const (
	LibPrefix = "lib"
	LibExt    = ".so"
)
