// Package dynlib maps shared implementation modules into the process and
// resolves their entry points.
//
// The platform backend is chosen at compile time: Unix builds use purego's
// dlopen bindings and Windows builds use LoadLibrary through x/sys/windows.
// Callers only see Library and the two error types.
package dynlib

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnsupportedPlatform is returned on an OS or architecture for which no
// module naming or loading convention exists.
var ErrUnsupportedPlatform = errors.New("dynlib: unsupported platform")

// ErrClosed is returned by Symbol after Close.
var ErrClosed = errors.New("dynlib: library closed")

// OpenError reports a module that could not be mapped. Err carries the
// platform loader's own message.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("failed to load library %q: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// SymbolError reports an entry point that the module does not export.
type SymbolError struct {
	Path string
	Name string
	Err  error
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("failed to load function %q from %q: %v", e.Name, e.Path, e.Err)
}

func (e *SymbolError) Unwrap() error { return e.Err }

// Library is an open shared module.
type Library struct {
	path string

	mu     sync.Mutex
	handle uintptr
	closed bool
}

// Open maps the module at path. The path is handed to the platform loader
// unchanged, so bare names follow the loader's search rules.
func Open(path string) (*Library, error) {
	h, err := openLibrary(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	return &Library{path: path, handle: h}, nil
}

// Path returns the path the library was opened with.
func (l *Library) Path() string {
	return l.path
}

// Handle returns the platform handle (a dlopen handle or an HMODULE). Modules
// that link their own entry points receive it.
func (l *Library) Handle() uintptr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0
	}
	return l.handle
}

// Symbol returns the address of the named entry point.
func (l *Library) Symbol(name string) (uintptr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0, &SymbolError{Path: l.path, Name: name, Err: ErrClosed}
	}
	addr, err := lookupSymbol(l.handle, name)
	if err != nil {
		return 0, &SymbolError{Path: l.path, Name: name, Err: err}
	}
	if addr == 0 {
		return 0, &SymbolError{Path: l.path, Name: name, Err: errors.New("symbol resolved to nil")}
	}
	return addr, nil
}

// Close unmaps the module. Addresses obtained from Symbol are invalid
// afterwards. Closing twice is a no-op.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	if err := closeLibrary(l.handle); err != nil {
		return fmt.Errorf("failed to unload library %q: %w", l.path, err)
	}
	return nil
}
