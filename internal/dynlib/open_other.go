//go:build !darwin && !freebsd && !linux && !windows

package dynlib

func openLibrary(string) (uintptr, error) {
	return 0, ErrUnsupportedPlatform
}

func lookupSymbol(uintptr, string) (uintptr, error) {
	return 0, ErrUnsupportedPlatform
}

func closeLibrary(uintptr) error {
	return nil
}
