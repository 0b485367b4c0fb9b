package dynlib

// Shared library affixes.
const (
	LibPrefix = ""
	LibExt    = ".dll"
)
