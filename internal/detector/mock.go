package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/resonance/internal/landmark"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results. It is also the
// fallback when the landmark service is unavailable, in which case every
// frame is empty.
type MockDetector struct {
	mu    sync.Mutex
	snap  landmark.Snapshot
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetSnapshot sets the landmarks that will be returned by Detect.
func (m *MockDetector) SetSnapshot(snap landmark.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
}

// SetHands is a shortcut for a snapshot holding only hands.
func (m *MockDetector) SetHands(hands ...landmark.Hand) {
	m.SetSnapshot(landmark.Snapshot{Hands: hands})
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many frames Detect has seen.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured snapshot or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (landmark.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return landmark.Snapshot{}, m.err
	}
	return m.snap, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}
