package detection

import (
	"math"
	"sort"
)

// Line represents a detected line segment.
type Line struct {
	Start        Point   `json:"start"`
	End          Point   `json:"end"`
	Length       float64 `json:"length"`
	AngleDegrees float64 `json:"angle_degrees"`
}

// Diagonal reports whether the line runs between 25 and 65 degrees from the
// horizontal in either direction, the way a fastened belt crosses a torso.
func (l Line) Diagonal() bool {
	a := math.Mod(math.Abs(l.AngleDegrees), 180)
	return (a >= 25 && a <= 65) || (a >= 115 && a <= 155)
}

// DetectLines finds line segments in an edge map using a Hough transform.
// At most maxLines segments of at least minLength pixels are returned,
// strongest first.
func DetectLines(edges [][]bool, minLength, maxLines int) []Line {
	height := len(edges)
	if height == 0 || minLength < 1 || maxLines < 1 {
		return nil
	}
	width := len(edges[0])

	// Hough transform parameters
	maxDist := int(math.Sqrt(float64(width*width+height*height))) + 1
	numAngles := 180
	accumulator := make([][]int, maxDist*2)
	for i := range accumulator {
		accumulator[i] = make([]int, numAngles)
	}

	cosT := make([]float64, numAngles)
	sinT := make([]float64, numAngles)
	for theta := 0; theta < numAngles; theta++ {
		angle := float64(theta) * math.Pi / 180.0
		cosT[theta] = math.Cos(angle)
		sinT[theta] = math.Sin(angle)
	}

	// Vote in Hough space
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !edges[y][x] {
				continue
			}
			for theta := 0; theta < numAngles; theta++ {
				rho := float64(x)*cosT[theta] + float64(y)*sinT[theta]
				rhoIdx := int(math.Round(rho)) + maxDist
				if rhoIdx >= 0 && rhoIdx < maxDist*2 {
					accumulator[rhoIdx][theta]++
				}
			}
		}
	}

	type peak struct {
		rho   int
		theta int
		votes int
	}
	peaks := make([]peak, 0)
	threshold := max(minLength/2, 2)

	for rhoIdx := 0; rhoIdx < maxDist*2; rhoIdx++ {
		for theta := 0; theta < numAngles; theta++ {
			votes := accumulator[rhoIdx][theta]
			if votes < threshold {
				continue
			}
			isMax := true
			for dr := -2; dr <= 2 && isMax; dr++ {
				for dt := -2; dt <= 2 && isMax; dt++ {
					if dr == 0 && dt == 0 {
						continue
					}
					nr := rhoIdx + dr
					nt := (theta + dt + numAngles) % numAngles
					if nr >= 0 && nr < maxDist*2 && accumulator[nr][nt] > votes {
						isMax = false
					}
				}
			}
			if isMax {
				peaks = append(peaks, peak{rho: rhoIdx - maxDist, theta: theta, votes: votes})
			}
		}
	}

	sort.Slice(peaks, func(i, j int) bool {
		return peaks[i].votes > peaks[j].votes
	})

	lines := make([]Line, 0)
	for _, pk := range peaks {
		if len(lines) >= maxLines {
			break
		}

		cosA, sinA := cosT[pk.theta], sinT[pk.theta]
		rho := float64(pk.rho)

		// Endpoints are the extreme projections onto the line direction,
		// which is perpendicular to the (cos, sin) normal.
		var start, end Point
		lo, hi := math.MaxFloat64, -math.MaxFloat64
		count := 0
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				if !edges[y][x] {
					continue
				}
				if math.Abs(float64(x)*cosA+float64(y)*sinA-rho) >= 1.5 {
					continue
				}
				count++
				d := -float64(x)*sinA + float64(y)*cosA
				if d < lo {
					lo = d
					start = Point{X: x, Y: y}
				}
				if d > hi {
					hi = d
					end = Point{X: x, Y: y}
				}
			}
		}
		if count < minLength {
			continue
		}

		dx := float64(end.X - start.X)
		dy := float64(end.Y - start.Y)
		length := math.Sqrt(dx*dx + dy*dy)
		if length < float64(minLength) {
			continue
		}

		lines = append(lines, Line{
			Start:        start,
			End:          end,
			Length:       math.Round(length*10) / 10,
			AngleDegrees: math.Round(math.Atan2(dy, dx)*180/math.Pi*10) / 10,
		})
	}
	return lines
}

// DiagonalScore is the share of total line length carried by diagonal
// lines, 0 when there are no lines.
func DiagonalScore(lines []Line) float64 {
	var total, diagonal float64
	for _, l := range lines {
		total += l.Length
		if l.Diagonal() {
			diagonal += l.Length
		}
	}
	if total == 0 {
		return 0
	}
	return diagonal / total
}
