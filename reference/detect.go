package reference

import (
	"encoding/binary"
	"image"
	"math"
	"sort"

	"github.com/disintegration/imaging"

	seatsanalyzer "github.com/ironsheep/seats-analyzer"
	"github.com/ironsheep/seats-analyzer/internal/detection"
	seatsimaging "github.com/ironsheep/seats-analyzer/internal/imaging"
	"github.com/ironsheep/seats-analyzer/internal/monitoring"
)

// Detection inference input, packed BGR.
const (
	DetInputWidth  = 320
	DetInputHeight = 192
)

// DetRecordSize is the size of one detection record in the inference
// output: six little-endian float32 values score, cx, cy, w, h, angle in
// input coordinates. A record with score <= 0 ends the list.
const DetRecordSize = 24

// detBuffer is the storage behind one detection result.
type detBuffer struct {
	dets  []seatsanalyzer.Detection
	freed bool
}

func (b *detBuffer) Len() int { return len(b.dets) }

func (b *detBuffer) At(i int) seatsanalyzer.Detection { return b.dets[i] }

func (m *Module) runDet(st seatsanalyzer.State, img *seatsanalyzer.Image, roi *seatsanalyzer.RoI) (seatsanalyzer.DetBuffer, seatsanalyzer.Status) {
	s, ok := sessionState(st)
	if !ok {
		return nil, seatsanalyzer.StatusInvalidArgument
	}

	src, err := img.ToGo()
	if err != nil {
		monitoring.Debugf("reference: detection input: %v", err)
		return nil, seatsanalyzer.StatusImageInvalid
	}

	area := seatsanalyzer.FullImage
	if roi != nil {
		area = *roi
	}
	rect := area.Rect(img.Width, img.Height)
	if rect.Empty() {
		return nil, seatsanalyzer.StatusInvalidArgument
	}
	region := imaging.Crop(src, rect)

	var dets []seatsanalyzer.Detection
	if s.detInf != nil {
		var code seatsanalyzer.Status
		dets, code = s.detectExternal(region)
		if code != seatsanalyzer.StatusOK {
			return nil, code
		}
	} else {
		dets = s.detectBuiltin(region)
	}

	dets = s.filter(dets)
	for i := range dets {
		dets[i].Position.X += float32(rect.Min.X)
		dets[i].Position.Y += float32(rect.Min.Y)
	}

	m.results.Add(1)
	return &detBuffer{dets: dets}, seatsanalyzer.StatusOK
}

func (m *Module) freeDetResult(_ seatsanalyzer.State, buf seatsanalyzer.DetBuffer) {
	b, ok := buf.(*detBuffer)
	if !ok || b.freed {
		return
	}
	b.freed = true
	b.dets = nil
	m.results.Add(-1)
}

// detectBuiltin looks for windshield rectangles in region.
func (s *state) detectBuiltin(region image.Image) []seatsanalyzer.Detection {
	candidates := detection.FindWindshields(region, s.detectionParams())
	dets := make([]seatsanalyzer.Detection, 0, len(candidates))
	for _, c := range candidates {
		dets = append(dets, seatsanalyzer.Detection{
			Confidence: c.Confidence,
			Position:   seatsanalyzer.RectFromBounds(c.Bounds),
			Label:      seatsanalyzer.LabelWindow,
		})
	}
	return dets
}

// detectExternal runs the host's inferencer on region and decodes its
// records back into region coordinates.
func (s *state) detectExternal(region image.Image) ([]seatsanalyzer.Detection, seatsanalyzer.Status) {
	input := packedInput(region, DetInputWidth, DetInputHeight)
	output := make([]byte, s.detSize)
	if err := seatsanalyzer.RunInference(s.detInf, input, output); err != nil {
		monitoring.Logf("reference: detection callback failed: %v", err)
		return nil, seatsanalyzer.StatusCallbackFailed
	}

	b := region.Bounds()
	sx := float64(b.Dx()) / DetInputWidth
	sy := float64(b.Dy()) / DetInputHeight

	dets := make([]seatsanalyzer.Detection, 0)
	for off := 0; off+DetRecordSize <= len(output); off += DetRecordSize {
		var rec [6]float64
		for i := range rec {
			rec[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(output[off+4*i:])))
		}
		if !(rec[0] > 0) {
			break
		}
		for _, v := range rec {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				monitoring.Logf("reference: detection callback returned a non-finite value")
				return nil, seatsanalyzer.StatusInferenceFailed
			}
		}
		dets = append(dets, seatsanalyzer.Detection{
			Confidence: math.Min(rec[0], 1),
			Position: seatsanalyzer.RotatedRect{
				X:      float32(rec[1] * sx),
				Y:      float32(rec[2] * sy),
				Width:  float32(rec[3] * sx),
				Height: float32(rec[4] * sy),
				Angle:  float32(rec[5]),
			},
			Label: seatsanalyzer.LabelWindow,
		})
	}
	return dets, seatsanalyzer.StatusOK
}

// filter applies min_confidence and max_detections, strongest first.
func (s *state) filter(dets []seatsanalyzer.Detection) []seatsanalyzer.Detection {
	kept := dets[:0]
	for _, d := range dets {
		if d.Confidence >= s.cfg.Detection.MinConfidence {
			kept = append(kept, d)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Confidence > kept[j].Confidence
	})
	if n := s.cfg.Detection.MaxDetections; n > 0 && len(kept) > n {
		kept = kept[:n]
	}
	return kept
}

// packedInput builds the transient BGR image handed to an inferencer.
func packedInput(img image.Image, width, height int) *seatsanalyzer.Image {
	return &seatsanalyzer.Image{
		ColorModel: seatsanalyzer.ColorModelBGR,
		DataType:   seatsanalyzer.DataTypeUChar,
		Width:      width,
		Height:     height,
		Channels:   3,
		Depth:      3,
		Step:       width * 3,
		Data:       seatsimaging.PackBGR(img, width, height),
	}
}
