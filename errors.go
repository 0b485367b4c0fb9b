package seatsanalyzer

import (
	"errors"
	"fmt"
)

// Status is the integer outcome of a module entry point. Zero is success.
type Status int

const (
	StatusOK               Status = 0
	StatusInvalidArgument  Status = 1
	StatusConfigUnreadable Status = 2
	StatusConfigInvalid    Status = 3
	StatusAssetMissing     Status = 4
	StatusUnsupportedMode  Status = 5
	StatusImageInvalid     Status = 6
	StatusInferenceFailed  Status = 7
	StatusCallbackFailed   Status = 8
	StatusUnsupportedLabel Status = 9
	StatusAllocationFailed Status = 10
	StatusImageIO          Status = 11
)

var statusText = map[Status]string{
	StatusOK:               "ok",
	StatusInvalidArgument:  "invalid argument",
	StatusConfigUnreadable: "configuration unreadable",
	StatusConfigInvalid:    "configuration invalid",
	StatusAssetMissing:     "asset missing",
	StatusUnsupportedMode:  "unsupported computation mode",
	StatusImageInvalid:     "image invalid",
	StatusInferenceFailed:  "inference failed",
	StatusCallbackFailed:   "inference callback failed",
	StatusUnsupportedLabel: "unsupported label",
	StatusAllocationFailed: "allocation failed",
	StatusImageIO:          "image I/O failed",
}

func (s Status) String() string {
	if t, ok := statusText[s]; ok {
		return t
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Sentinel errors.
var (
	ErrSymbolNotFound = errors.New("symbol not found")
	ErrNoStaticModule = errors.New("no statically linked module registered")
	ErrSessionClosed  = errors.New("session closed")
	ErrSessionBusy    = errors.New("session in use by another goroutine")
	ErrResultReleased = errors.New("detection result already released")
	ErrForeignResult  = errors.New("detection result belongs to another session")
	ErrForeignImage   = errors.New("image was allocated by another table")
	ErrImageFreed     = errors.New("image already freed")
)

// LinkError reports a module whose capability table cannot be built, or a
// call through an optional entry the module does not provide.
type LinkError struct {
	Module string
	Symbol string
	Err    error
}

func (e *LinkError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("failed to link module %q: %v", e.Module, e.Err)
	}
	return fmt.Sprintf("failed to link %q from module %q: %v", e.Symbol, e.Module, e.Err)
}

func (e *LinkError) Unwrap() error { return e.Err }

// InitError reports a failed Initialize.
type InitError struct {
	Path string
	Code Status
	Err  error
}

func (e *InitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to initialize from %q: %s: %v", e.Path, e.Code, e.Err)
	}
	return fmt.Sprintf("failed to initialize from %q: %s", e.Path, e.Code)
}

func (e *InitError) Unwrap() error { return e.Err }

// DetectError reports a failed Detect. The session remains usable.
type DetectError struct {
	Code Status
	Err  error
}

func (e *DetectError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("detection failed: %s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("detection failed: %s", e.Code)
}

func (e *DetectError) Unwrap() error { return e.Err }

// ClassifyError reports a failed Classify. The session remains usable.
type ClassifyError struct {
	Label Label
	Code  Status
	Err   error
}

func (e *ClassifyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("classification of %q failed: %s: %v", e.Label, e.Code, e.Err)
	}
	return fmt.Sprintf("classification of %q failed: %s", e.Label, e.Code)
}

func (e *ClassifyError) Unwrap() error { return e.Err }

// ImageError reports a failed image operation.
type ImageError struct {
	Op   string
	Path string
	Code Status
	Err  error
}

func (e *ImageError) Error() string {
	msg := "image " + e.Op
	if e.Path != "" {
		msg += " " + fmt.Sprintf("%q", e.Path)
	}
	msg += " failed: " + e.Code.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ImageError) Unwrap() error { return e.Err }
