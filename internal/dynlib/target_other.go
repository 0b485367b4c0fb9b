//go:build (!amd64 && !386 && !arm && !arm64) || (windows && !amd64 && !386)

package dynlib

const libTarget = ""
