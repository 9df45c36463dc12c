package detector

import (
	"context"
	"image/color"
	"math"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	faces []Face
	err   error
	calls int
	mu    sync.Mutex
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetFaces sets the faces that will be returned by Detect.
func (m *MockDetector) SetFaces(faces []Face) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faces = faces
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured faces or error.
func (m *MockDetector) Detect(ctx context.Context, frame gocv.Mat) ([]Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.faces, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// paletteEntry binds a frame colour to the embedding reported for it.
type paletteEntry struct {
	color     color.RGBA
	embedding []float64
}

// PaletteDetector is a deterministic Detector for tests. It reports one face
// whose embedding is chosen by the mean colour of the frame, so solid-colour
// images stand in for photos of different people. Frames whose colour is not
// in the palette have no face.
type PaletteDetector struct {
	entries   []paletteEntry
	tolerance float64
	mu        sync.RWMutex
}

// NewPaletteDetector creates a PaletteDetector with a per-channel tolerance of 12.
func NewPaletteDetector() *PaletteDetector {
	return &PaletteDetector{tolerance: 12}
}

// Add maps frames of colour c to the given embedding.
func (p *PaletteDetector) Add(c color.RGBA, embedding []float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, paletteEntry{color: c, embedding: embedding})
}

// Detect returns the face registered for the frame's mean colour, if any.
func (p *PaletteDetector) Detect(ctx context.Context, frame gocv.Mat) ([]Face, error) {
	if frame.Empty() {
		return nil, nil
	}

	// Mat channels are in BGR order.
	mean := frame.Mean()

	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, e := range p.entries {
		if near(mean.Val3, e.color.R, p.tolerance) &&
			near(mean.Val2, e.color.G, p.tolerance) &&
			near(mean.Val1, e.color.B, p.tolerance) {
			embedding := make([]float64, len(e.embedding))
			copy(embedding, e.embedding)
			return []Face{{Embedding: embedding, Score: 0.99}}, nil
		}
	}
	return nil, nil
}

// Close is a no-op for the palette detector.
func (p *PaletteDetector) Close() error {
	return nil
}

func near(v float64, c uint8, tolerance float64) bool {
	return math.Abs(v-float64(c)) <= tolerance
}
