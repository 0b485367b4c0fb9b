package seatsanalyzer

// Analysis pairs a detection with its classification. Classification is nil
// for detections that are not windshields, and Err holds a failed
// classification.
type Analysis struct {
	Detection      Detection             `json:"detection"`
	Classification *ClassificationResult `json:"classification,omitempty"`
	Err            error                 `json:"-"`
}

// Analyze runs detection on img, classifies every windshield found and
// releases the detection result before returning.
func (s *Session) Analyze(img *Image, roi *RoI) ([]Analysis, error) {
	dets, err := s.Detect(img, roi)
	if err != nil {
		return nil, err
	}

	out := make([]Analysis, 0, dets.Len())
	for _, d := range dets.Detections() {
		a := Analysis{Detection: d}
		if d.Label == LabelWindow {
			res, err := s.Classify(img, d.Position, d.Label)
			if err != nil {
				a.Err = err
			} else {
				a.Classification = &res
			}
		}
		out = append(out, a)
	}

	if err := dets.Release(); err != nil {
		return out, err
	}
	return out, nil
}
