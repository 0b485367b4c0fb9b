package dynlib

const libTarget = "Win32"
