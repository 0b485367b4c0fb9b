package seatsanalyzer

import (
	"fmt"
	"image"
	"math"
)

// Fixed buffer bounds of the module ABI.
const (
	// LabelLength is the size of a label buffer including its terminator.
	LabelLength = 255
	// MaxPath is the longest path, terminator included, a module accepts.
	MaxPath = 4096
	// NumConfOutputs is the number of per-outcome confidences of a task.
	NumConfOutputs = 3
)

// ComputationMode is a hint telling the module where to run inference.
type ComputationMode int

const (
	ModeCPU ComputationMode = 0
	ModeGPU ComputationMode = 1
	ModeTPU ComputationMode = 2
)

func (m ComputationMode) String() string {
	switch m {
	case ModeCPU:
		return "cpu"
	case ModeGPU:
		return "gpu"
	case ModeTPU:
		return "tpu"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Valid reports whether m is one of the defined modes.
func (m ComputationMode) Valid() bool {
	return m >= ModeCPU && m <= ModeTPU
}

// ParseComputationMode accepts "cpu", "gpu" or "tpu".
func ParseComputationMode(s string) (ComputationMode, error) {
	switch s {
	case "cpu", "CPU":
		return ModeCPU, nil
	case "gpu", "GPU":
		return ModeGPU, nil
	case "tpu", "TPU":
		return ModeTPU, nil
	}
	return 0, fmt.Errorf("unknown computation mode %q", s)
}

// Label names a detection category.
type Label string

// LabelWindow is the windshield category, the only one classification
// accepts.
const LabelWindow Label = "window"

// Validate checks that l is non-empty and fits a label buffer.
func (l Label) Validate() error {
	if l == "" {
		return fmt.Errorf("empty label")
	}
	if len(l) >= LabelLength {
		return fmt.Errorf("label is %d bytes, limit is %d", len(l), LabelLength-1)
	}
	return nil
}

// RoI is an axis-aligned detection search area. A negative Width or Height
// selects the full image extent in that dimension.
type RoI struct {
	X      int
	Y      int
	Width  int
	Height int
}

// FullImage is a RoI covering the whole image.
var FullImage = RoI{Width: -1, Height: -1}

// Rect resolves r against an image of the given size and clips it to the
// image. The result may be empty when r lies outside the image.
func (r RoI) Rect(width, height int) image.Rectangle {
	x0, x1 := r.X, r.X+r.Width
	if r.Width < 0 {
		x0, x1 = 0, width
	}
	y0, y1 := r.Y, r.Y+r.Height
	if r.Height < 0 {
		y0, y1 = 0, height
	}
	return image.Rect(x0, y0, x1, y1).Intersect(image.Rect(0, 0, width, height))
}

// Point is a 2D point in image coordinates.
type Point struct {
	X float32
	Y float32
}

// RotatedRect is a rectangle given by its centre, size and clockwise rotation
// in degrees.
type RotatedRect struct {
	X      float32
	Y      float32
	Width  float32
	Height float32
	Angle  float32
}

// Points returns the corners clockwise, starting with the top-left one.
func (r RotatedRect) Points() [4]Point {
	rad := float64(r.Angle) * math.Pi / 180
	sin, cos := math.Sincos(rad)
	hw, hh := float64(r.Width)/2, float64(r.Height)/2
	offsets := [4][2]float64{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}

	var pts [4]Point
	for i, o := range offsets {
		pts[i] = Point{
			X: r.X + float32(o[0]*cos-o[1]*sin),
			Y: r.Y + float32(o[0]*sin+o[1]*cos),
		}
	}
	return pts
}

// Bounds returns the smallest integer rectangle containing r.
func (r RotatedRect) Bounds() image.Rectangle {
	pts := r.Points()
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX = math.Min(minX, float64(p.X))
		minY = math.Min(minY, float64(p.Y))
		maxX = math.Max(maxX, float64(p.X))
		maxY = math.Max(maxY, float64(p.Y))
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}

// RectFromBounds returns the upright RotatedRect covering b.
func RectFromBounds(b image.Rectangle) RotatedRect {
	return RotatedRect{
		X:      float32(b.Min.X) + float32(b.Dx())/2,
		Y:      float32(b.Min.Y) + float32(b.Dy())/2,
		Width:  float32(b.Dx()),
		Height: float32(b.Dy()),
	}
}

// Detection is one object found by the detection stage.
type Detection struct {
	Confidence float64     `json:"confidence"`
	Position   RotatedRect `json:"position"`
	Label      Label       `json:"label"`
}

// Classification outcomes.
const (
	OutcomeFalse   = "0"
	OutcomeTrue    = "1"
	OutcomeUnknown = "?"
)

// ClassResult is the answer to one binary classification task. Confidences
// holds the scores of false, true and undetermined in that order. An empty
// Result marks a task the module does not implement for the position.
type ClassResult struct {
	Result      string                  `json:"result"`
	Confidence  float64                 `json:"confidence"`
	Confidences [NumConfOutputs]float64 `json:"confidences"`
}

// Implemented reports whether the task produced a result.
func (c ClassResult) Implemented() bool {
	return c.Result != ""
}

// Task enumerates the per-seat classification tasks.
type Task int

const (
	TaskOccupied Task = iota
	TaskDriver
	TaskBelt
	TaskPhone
)

// Tasks lists every task in result order.
var Tasks = []Task{TaskOccupied, TaskDriver, TaskBelt, TaskPhone}

func (t Task) String() string {
	switch t {
	case TaskOccupied:
		return "occupied"
	case TaskDriver:
		return "driver"
	case TaskBelt:
		return "belt"
	case TaskPhone:
		return "phone"
	default:
		return fmt.Sprintf("task(%d)", int(t))
	}
}

// Seat enumerates the positions seen through a windshield, from the camera's
// point of view.
type Seat int

const (
	SeatLeft Seat = iota
	SeatMiddle
	SeatRight
)

// Seats lists every seat in result order.
var Seats = []Seat{SeatLeft, SeatMiddle, SeatRight}

func (s Seat) String() string {
	switch s {
	case SeatLeft:
		return "left"
	case SeatMiddle:
		return "middle"
	case SeatRight:
		return "right"
	default:
		return fmt.Sprintf("seat(%d)", int(s))
	}
}

// TaskImplemented reports whether modules produce a result for task at seat:
// left has occupied, driver and belt; middle has occupied; right has all four.
func TaskImplemented(seat Seat, task Task) bool {
	switch seat {
	case SeatLeft:
		return task == TaskOccupied || task == TaskDriver || task == TaskBelt
	case SeatMiddle:
		return task == TaskOccupied
	case SeatRight:
		return task >= TaskOccupied && task <= TaskPhone
	}
	return false
}

// Position holds the results for one seat.
type Position struct {
	Quality  float64     `json:"quality"`
	Occupied ClassResult `json:"occupied"`
	Driver   ClassResult `json:"driver"`
	Belt     ClassResult `json:"belt"`
	Phone    ClassResult `json:"phone"`
}

// Task returns the slot for t, or nil for an unknown task.
func (p *Position) Task(t Task) *ClassResult {
	switch t {
	case TaskOccupied:
		return &p.Occupied
	case TaskDriver:
		return &p.Driver
	case TaskBelt:
		return &p.Belt
	case TaskPhone:
		return &p.Phone
	}
	return nil
}

// ClassificationResult is the fixed three-seat answer of Classify.
type ClassificationResult struct {
	Left   Position `json:"left"`
	Middle Position `json:"middle"`
	Right  Position `json:"right"`
}

// Seat returns the position for s, or nil for an unknown seat.
func (r *ClassificationResult) Seat(s Seat) *Position {
	switch s {
	case SeatLeft:
		return &r.Left
	case SeatMiddle:
		return &r.Middle
	case SeatRight:
		return &r.Right
	}
	return nil
}
