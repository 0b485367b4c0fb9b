package dynlib

import (
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestOpenMissingLibrary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "libdoes-not-exist"+LibExt)

	lib, err := Open(path)
	if err == nil {
		lib.Close()
		t.Fatal("Expected error opening a missing library")
	}

	var openErr *OpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("Expected *OpenError, got %T", err)
	}
	if openErr.Path != path {
		t.Errorf("OpenError.Path: got %q, want %q", openErr.Path, path)
	}
	if openErr.Err == nil || openErr.Err.Error() == "" {
		t.Error("OpenError should carry the loader's message")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("Error text %q should name the path", err.Error())
	}
}

func TestOpenSystemLibrary(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("system library name is Linux specific")
	}

	lib, err := Open("libc.so.6")
	if err != nil {
		t.Skipf("libc not loadable here: %v", err)
	}

	addr, err := lib.Symbol("strlen")
	if err != nil {
		t.Fatalf("Symbol(strlen) failed: %v", err)
	}
	if addr == 0 {
		t.Error("Symbol(strlen) returned nil address")
	}

	_, err = lib.Symbol("saLinkAPI")
	var symErr *SymbolError
	if !errors.As(err, &symErr) {
		t.Fatalf("Expected *SymbolError for a missing symbol, got %v", err)
	}
	if symErr.Name != "saLinkAPI" {
		t.Errorf("SymbolError.Name: got %q, want %q", symErr.Name, "saLinkAPI")
	}

	if lib.Handle() == 0 {
		t.Error("Handle of an open library should be non-zero")
	}

	if err := lib.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if lib.Handle() != 0 {
		t.Error("Handle after Close should be zero")
	}
	if err := lib.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}
	if _, err := lib.Symbol("strlen"); !errors.Is(err, ErrClosed) {
		t.Errorf("Symbol after Close: got %v, want ErrClosed", err)
	}
}
