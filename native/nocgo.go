//go:build !cgo

package native

import (
	"errors"

	seatsanalyzer "github.com/ironsheep/seats-analyzer"
)

// ErrCgoRequired is returned by Open in builds without cgo.
var ErrCgoRequired = errors.New("native modules require a cgo build")

// ErrModuleClosed is returned by Lookup after Close.
var ErrModuleClosed = errors.New("native module closed")

// Module is unavailable without cgo.
type Module struct{}

// Open always fails without cgo.
func Open(path string) (*Module, error) {
	return nil, ErrCgoRequired
}

func (m *Module) Name() string { return "" }

func (m *Module) Lookup(string) (any, error) { return nil, seatsanalyzer.ErrSymbolNotFound }

func (m *Module) Close() error { return nil }
