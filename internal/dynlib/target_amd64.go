//go:build !windows

package dynlib

const libTarget = "x86_64"
