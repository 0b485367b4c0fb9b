//go:build !windows

package dynlib

const libTarget = "armv7l"
