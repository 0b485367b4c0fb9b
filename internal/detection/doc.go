// Package detection finds the shapes the reference module reasons about:
// windshield-like rectangles in a vehicle image and straight lines inside a
// seat region.
//
// # Algorithm Overview
//
// Both detectors start from the same binary edge map:
//
//  1. Grayscale conversion (bild, BT.601 weights)
//  2. Gradient threshold: a pixel is an edge when it differs from its right
//     or lower neighbour by more than a threshold
//  3. Shape-specific analysis: contour grouping and rectangularity for
//     windshields, a Hough transform for lines
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
package detection
