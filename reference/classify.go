package reference

import (
	"encoding/binary"
	"image"
	"math"

	seatsanalyzer "github.com/ironsheep/seats-analyzer"
	"github.com/ironsheep/seats-analyzer/internal/detection"
	"github.com/ironsheep/seats-analyzer/internal/imaging"
	"github.com/ironsheep/seats-analyzer/internal/monitoring"
)

// Classification inference input, packed BGR.
const (
	SclInputWidth  = 384
	SclInputHeight = 128
)

// sclValuesPerSeat is quality followed by three confidences for each of the
// four tasks.
const sclValuesPerSeat = 1 + 4*seatsanalyzer.NumConfOutputs

// SclOutputSize is the size of the classification inference output: for
// left, middle and right, little-endian float32 values quality, occupied×3,
// driver×3, belt×3, phone×3. Confidences are ordered false, true,
// undetermined. Values of tasks a seat does not implement are ignored.
const SclOutputSize = 3 * sclValuesPerSeat * 4

// defaultMargin is used when the configuration sets no undetermined margin.
const defaultMargin = 0.1

func (m *Module) runScl(st seatsanalyzer.State, img *seatsanalyzer.Image, pos seatsanalyzer.RotatedRect, label seatsanalyzer.Label) (seatsanalyzer.ClassificationResult, seatsanalyzer.Status) {
	var res seatsanalyzer.ClassificationResult

	s, ok := sessionState(st)
	if !ok {
		return res, seatsanalyzer.StatusInvalidArgument
	}
	if label != seatsanalyzer.LabelWindow {
		return res, seatsanalyzer.StatusUnsupportedLabel
	}
	if !(pos.Width > 0) || !(pos.Height > 0) {
		return res, seatsanalyzer.StatusInvalidArgument
	}

	src, err := img.ToGo()
	if err != nil {
		monitoring.Debugf("reference: classification input: %v", err)
		return res, seatsanalyzer.StatusImageInvalid
	}
	crop, err := imaging.CropRotated(src, float64(pos.X), float64(pos.Y), float64(pos.Width), float64(pos.Height), float64(pos.Angle))
	if err != nil {
		monitoring.Debugf("reference: classification region: %v", err)
		return res, seatsanalyzer.StatusInvalidArgument
	}

	if s.sclInf != nil {
		return s.classifyExternal(crop)
	}
	return s.classifyBuiltin(crop), seatsanalyzer.StatusOK
}

// classifyBuiltin scores each third of the windshield crop.
func (s *state) classifyBuiltin(crop image.Image) seatsanalyzer.ClassificationResult {
	var res seatsanalyzer.ClassificationResult
	strips := imaging.SplitColumns(crop, len(seatsanalyzer.Seats))
	margin := s.margin()
	model := s.assets.model

	for i, seat := range seatsanalyzer.Seats {
		f := s.features(strips[i])
		pos := res.Seat(seat)
		pos.Quality = clamp01(0.6*f.stats.Contrast + 0.4*clamp01(f.density/(model.EdgeDensityScale/2)))

		occupied := s.assets.ptable.Apply(clamp01(
			0.5*clamp01(f.density/model.EdgeDensityScale) +
				0.3*clamp01(f.stats.LightnessStdDev/0.2) +
				0.2*clamp01(f.stats.SkinRatio/0.2)))

		for _, task := range seatsanalyzer.Tasks {
			if !seatsanalyzer.TaskImplemented(seat, task) {
				continue
			}
			var p float64
			switch task {
			case seatsanalyzer.TaskOccupied:
				p = occupied
			case seatsanalyzer.TaskDriver:
				p = occupied * 0.1
				if seat.String() == model.DriverSide {
					p = occupied * 0.9
				}
			case seatsanalyzer.TaskBelt:
				p = occupied * f.diagonal
			case seatsanalyzer.TaskPhone:
				p = occupied * clamp01(f.stats.SkinRatio*1.5)
			}
			*pos.Task(task) = decide(p, margin)
		}
	}
	return res
}

type seatFeatures struct {
	stats    imaging.Stats
	density  float64
	diagonal float64
}

func (s *state) features(strip image.Image) seatFeatures {
	f := seatFeatures{
		stats:   imaging.RegionStats(strip),
		density: imaging.EdgeDensity(strip, s.workers),
	}

	h := strip.Bounds().Dy()
	minLen := max(int(float64(h)*s.assets.model.BeltMinLineRatio), 3)
	threshold := s.detectionParams().EdgeThreshold
	if threshold <= 0 {
		threshold = detection.DefaultParams().EdgeThreshold
	}
	edges := detection.EdgeMap(strip, threshold, s.workers)
	f.diagonal = detection.DiagonalScore(detection.DetectLines(edges, minLen, 20))
	return f
}

func (s *state) margin() float64 {
	if m := s.cfg.Classification.UndeterminedMargin; m > 0 {
		return m
	}
	return defaultMargin
}

// decide turns the probability p of "true" into a task result. The
// undetermined share grows as p approaches 0.5 and is 1 at p = 0.5; the
// three confidences sum to 1 and the result is the largest of them.
func decide(p, margin float64) seatsanalyzer.ClassResult {
	p = clamp01(p)
	u := clamp01(1 - math.Abs(2*p-1)/(2*margin))
	conf := [seatsanalyzer.NumConfOutputs]float64{(1 - p) * (1 - u), p * (1 - u), u}
	return fromConfidences(conf)
}

var outcomes = [seatsanalyzer.NumConfOutputs]string{
	seatsanalyzer.OutcomeFalse,
	seatsanalyzer.OutcomeTrue,
	seatsanalyzer.OutcomeUnknown,
}

func fromConfidences(conf [seatsanalyzer.NumConfOutputs]float64) seatsanalyzer.ClassResult {
	best := 0
	for i := 1; i < len(conf); i++ {
		if conf[i] > conf[best] {
			best = i
		}
	}
	return seatsanalyzer.ClassResult{
		Result:      outcomes[best],
		Confidence:  conf[best],
		Confidences: conf,
	}
}

// classifyExternal runs the host's inferencer on the windshield crop.
func (s *state) classifyExternal(crop image.Image) (seatsanalyzer.ClassificationResult, seatsanalyzer.Status) {
	var res seatsanalyzer.ClassificationResult

	input := packedInput(crop, SclInputWidth, SclInputHeight)
	output := make([]byte, s.sclSize)
	if err := seatsanalyzer.RunInference(s.sclInf, input, output); err != nil {
		monitoring.Logf("reference: classification callback failed: %v", err)
		return res, seatsanalyzer.StatusCallbackFailed
	}

	value := func(i int) float64 {
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(output[4*i:])))
	}

	for si, seat := range seatsanalyzer.Seats {
		base := si * sclValuesPerSeat
		pos := res.Seat(seat)
		pos.Quality = value(base)
		if !finite(pos.Quality) {
			return seatsanalyzer.ClassificationResult{}, seatsanalyzer.StatusInferenceFailed
		}

		for ti, task := range seatsanalyzer.Tasks {
			if !seatsanalyzer.TaskImplemented(seat, task) {
				continue
			}
			var conf [seatsanalyzer.NumConfOutputs]float64
			for k := range conf {
				conf[k] = value(base + 1 + ti*seatsanalyzer.NumConfOutputs + k)
				if !finite(conf[k]) {
					return seatsanalyzer.ClassificationResult{}, seatsanalyzer.StatusInferenceFailed
				}
			}
			*pos.Task(task) = fromConfidences(conf)
		}
	}
	return res, seatsanalyzer.StatusOK
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
