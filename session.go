package seatsanalyzer

import (
	"sync"

	"github.com/google/uuid"

	"github.com/ironsheep/seats-analyzer/internal/monitoring"
)

// Session is one initialized pipeline instance. It serves one call at a time:
// a call that overlaps another fails with ErrSessionBusy.
type Session struct {
	id    string
	table *Table

	mu          sync.Mutex
	state       State
	closed      bool
	outstanding map[*DetectionResult]struct{}
}

func newSession(t *Table, st State) *Session {
	return &Session{
		id:          uuid.NewString(),
		table:       t,
		state:       st,
		outstanding: make(map[*DetectionResult]struct{}),
	}
}

// ID identifies the session in log output.
func (s *Session) ID() string {
	return s.id
}

// Table returns the table the session was created from.
func (s *Session) Table() *Table {
	return s.table
}

// Outstanding returns the number of detection results not yet released.
func (s *Session) Outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outstanding)
}

// acquire takes the call guard. The caller must unlock s.mu when err is nil.
func (s *Session) acquire() error {
	if !s.mu.TryLock() {
		return ErrSessionBusy
	}
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	return nil
}

// Detect runs the detection stage on img, restricted to roi when it is not
// nil. The result must be released with Release or FreeDetections.
//
// On failure Detect returns a nil result, whose Len is 0, and a
// *DetectError. The session stays usable.
func (s *Session) Detect(img *Image, roi *RoI) (*DetectionResult, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	if err := s.table.checkImage(img); err != nil {
		return nil, &DetectError{Code: StatusImageInvalid, Err: err}
	}

	var r *RoI
	if roi != nil {
		c := *roi
		r = &c
	}

	buf, code := s.table.runDet(s.state, img, r)
	if code != StatusOK {
		s.freeBuffer(buf)
		monitoring.Debugf("session %s: detection failed: %s", s.id, code)
		return nil, &DetectError{Code: code}
	}

	res := newDetectionResult(s, buf)
	s.outstanding[res] = struct{}{}
	return res, nil
}

// FreeDetections releases r, which must come from this session. It is the
// same as r.Release().
func (s *Session) FreeDetections(r *DetectionResult) error {
	if r == nil {
		return nil
	}
	if r.session != s {
		return ErrForeignResult
	}
	if !s.mu.TryLock() {
		return ErrSessionBusy
	}
	defer s.mu.Unlock()

	switch {
	case r.reclaimed:
		return ErrSessionClosed
	case r.released:
		return ErrResultReleased
	}

	s.freeBuffer(r.buf)
	r.drop()
	delete(s.outstanding, r)
	return nil
}

// Classify runs the classification stage on the region pos of img. Only
// LabelWindow is supported; any other label fails with a *ClassifyError
// carrying StatusUnsupportedLabel.
func (s *Session) Classify(img *Image, pos RotatedRect, label Label) (ClassificationResult, error) {
	if err := s.acquire(); err != nil {
		return ClassificationResult{}, err
	}
	defer s.mu.Unlock()

	if err := s.table.checkImage(img); err != nil {
		return ClassificationResult{}, &ClassifyError{Label: label, Code: StatusImageInvalid, Err: err}
	}
	if err := label.Validate(); err != nil {
		return ClassificationResult{}, &ClassifyError{Label: label, Code: StatusInvalidArgument, Err: err}
	}

	res, code := s.table.runScl(s.state, img, pos, label)
	if code != StatusOK {
		monitoring.Debugf("session %s: classification failed: %s", s.id, code)
		return ClassificationResult{}, &ClassifyError{Label: label, Code: code}
	}
	return res, nil
}

// Close releases the session and every detection result still outstanding.
// It waits for a call in progress. Close cannot fail; a second Close
// returns ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true

	if n := len(s.outstanding); n > 0 {
		monitoring.Logf("session %s: releasing %d outstanding detection results", s.id, n)
	}
	for r := range s.outstanding {
		s.freeBuffer(r.buf)
		r.drop()
		r.reclaimed = true
	}
	s.outstanding = nil

	s.teardown()
	monitoring.Debugf("session %s closed", s.id)
	return nil
}

// freeBuffer hands buf back to the module. A nil buffer was never allocated.
func (s *Session) freeBuffer(buf DetBuffer) {
	if buf == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			monitoring.Logf("session %s: module panicked freeing detections: %v", s.id, r)
		}
	}()
	s.table.freeDetResult(s.state, buf)
}

func (s *Session) teardown() {
	defer func() {
		if r := recover(); r != nil {
			monitoring.Logf("session %s: module panicked in teardown: %v", s.id, r)
		}
		s.state = nil
	}()
	s.table.free(s.state)
}
