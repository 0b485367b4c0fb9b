package dynlib

// Shared library affixes.
const (
	LibPrefix = "lib"
	LibExt    = ".dylib"
)
