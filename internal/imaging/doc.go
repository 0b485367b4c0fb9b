// Package imaging holds the pixel-level helpers of the reference module:
// file decoding and encoding, rotated-region cropping, network input
// packing, Canny edge maps and tonal statistics.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Angles are in degrees, clockwise
//
// # Supported Formats
//
// Load decodes PNG, JPEG, GIF, BMP, TIFF and WebP. Save encodes PNG, JPEG,
// GIF, BMP and TIFF, chosen by file extension.
//
// # Thread Safety
//
// All functions are stateless and safe for concurrent use. The workers
// argument of the edge functions bounds the goroutines used inside one call.
package imaging
