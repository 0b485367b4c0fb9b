//go:build !windows

package dynlib

const libTarget = "i686"
