package seatsanalyzer

// DetectionResult is the list of detections returned by Detect. It owns
// module storage and must be released exactly once.
type DetectionResult struct {
	session    *Session
	buf        DetBuffer
	detections []Detection

	released  bool
	reclaimed bool
}

// newDetectionResult copies buf out. A module may report success with a nil
// buffer, which is an empty result.
func newDetectionResult(s *Session, buf DetBuffer) *DetectionResult {
	if buf == nil {
		return &DetectionResult{session: s}
	}
	n := buf.Len()
	if n < 0 {
		n = 0
	}
	dets := make([]Detection, n)
	for i := range dets {
		dets[i] = buf.At(i)
	}
	return &DetectionResult{session: s, buf: buf, detections: dets}
}

// Len returns the number of detections. It is 0 for a nil or released
// result.
func (r *DetectionResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.detections)
}

// Detections returns a copy of the detections, or nil after release.
func (r *DetectionResult) Detections() []Detection {
	if r == nil || r.detections == nil {
		return nil
	}
	out := make([]Detection, len(r.detections))
	copy(out, r.detections)
	return out
}

// At returns detection i. It panics when i is out of range.
func (r *DetectionResult) At(i int) Detection {
	return r.detections[i]
}

// Released reports whether the result has been released, either directly
// or by closing its session.
func (r *DetectionResult) Released() bool {
	return r == nil || r.released
}

// Release frees the result. A second Release returns ErrResultReleased;
// releasing after the session closed returns ErrSessionClosed.
func (r *DetectionResult) Release() error {
	if r == nil {
		return nil
	}
	return r.session.FreeDetections(r)
}

func (r *DetectionResult) drop() {
	r.released = true
	r.buf = nil
	r.detections = nil
}
