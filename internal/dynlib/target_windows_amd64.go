package dynlib

const libTarget = "x64"
