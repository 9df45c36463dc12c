package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

const (
	// motionWidth is the width frames are scaled to before comparison.
	motionWidth = 320
	// blurSize is the Gaussian kernel size applied before differencing.
	blurSize = 21
	// pixelDelta is the grey-level change that counts a pixel as changed.
	pixelDelta = 25
)

// MotionGate decides whether a frame differs enough from the previous one to
// be worth sending to the face detector. Someone stepping in front of the
// kiosk opens the gate; an empty or static scene keeps it closed.
type MotionGate struct {
	threshold float64
	prev      gocv.Mat
	primed    bool
	mu        sync.Mutex
}

// NewMotionGate creates a MotionGate. threshold is the percentage of pixels
// that must change; values <= 0 select 1%.
func NewMotionGate(threshold float64) *MotionGate {
	if threshold <= 0 {
		threshold = 1.0
	}
	return &MotionGate{threshold: threshold, prev: gocv.NewMat()}
}

// Check compares frame with the previous one and returns whether the change
// exceeds the threshold, and the percentage of changed pixels. The first
// frame only primes the gate.
func (g *MotionGate) Check(frame gocv.Mat) (bool, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if frame.Empty() {
		return false, 0
	}

	cur := prepare(frame)
	defer cur.Close()

	if !g.primed || cur.Rows() != g.prev.Rows() || cur.Cols() != g.prev.Cols() {
		cur.CopyTo(&g.prev)
		g.primed = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(cur, g.prev, &diff)
	gocv.Threshold(diff, &diff, pixelDelta, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100
	cur.CopyTo(&g.prev)

	return changed > g.threshold, changed
}

// prepare returns a downscaled, blurred greyscale copy of frame.
func prepare(frame gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	if frame.Channels() > 1 {
		gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	if gray.Cols() > motionWidth {
		h := gray.Rows() * motionWidth / gray.Cols()
		gocv.Resize(gray, &gray, image.Point{X: motionWidth, Y: h}, 0, 0, gocv.InterpolationArea)
	}

	gocv.GaussianBlur(gray, &gray, image.Point{X: blurSize, Y: blurSize}, 0, 0, gocv.BorderDefault)
	return gray
}

// Reset forgets the previous frame.
func (g *MotionGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.primed = false
}

// Close releases the stored frame.
func (g *MotionGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prev.Close()
	g.prev = gocv.NewMat()
	g.primed = false
}
