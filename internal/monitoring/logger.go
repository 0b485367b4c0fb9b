// Package monitoring holds the diagnostic logging hook shared by the SDK
// packages. Nothing in the SDK writes to stdout; everything goes through Logf.
package monitoring

import (
	"log"
	"os"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// debug is read once; SetDebug overrides it.
var debug = os.Getenv("SEATS_ANALYZER_LOG_LEVEL") == "debug"

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetDebug turns Debugf output on or off.
func SetDebug(on bool) {
	debug = on
}

// DebugEnabled reports whether Debugf forwards to Logf.
func DebugEnabled() bool {
	return debug
}

// Debugf logs through Logf only when debug logging is enabled.
func Debugf(format string, v ...interface{}) {
	if debug {
		Logf("[debug] "+format, v...)
	}
}
