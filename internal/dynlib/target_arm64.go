//go:build !windows

package dynlib

const libTarget = "aarch64"
