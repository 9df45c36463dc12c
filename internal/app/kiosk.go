package app

import (
	"context"
	"errors"
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/facemark/internal/capture"
	"github.com/ayusman/facemark/internal/face"
	"github.com/ayusman/facemark/internal/store"
)

// Kiosk timing.
const (
	// IdleFPS is the frame rate while the scene is still.
	IdleFPS = 5
	// ActiveFPS is the frame rate while someone is in front of the camera.
	ActiveFPS = 15
	// IdleTimeout is how long after the last motion the loop stays active.
	IdleTimeout = 2 * time.Second
	// DefaultCooldown is how long a person is ignored after being marked.
	DefaultCooldown = 10 * time.Second
)

// ErrNoCamera is returned when kiosk mode starts without a camera.
var ErrNoCamera = errors.New("no camera configured")

// SetEnabled pauses or resumes kiosk recognition without closing the camera.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled reports whether kiosk recognition is running.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Running reports whether the kiosk loop has been started.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// Snapshot returns the latest camera frame as JPEG, or nil before the kiosk
// loop has read one.
func (a *App) Snapshot() []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot
}

// Start opens the camera and runs the kiosk loop in the background.
// Recognition starts enabled.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}
	if a.camera == nil {
		return ErrNoCamera
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(IdleFPS)

	a.motion = capture.NewMotionGate(a.config.MotionThresh)
	a.enabled = true
	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runKiosk(a.stopCh, a.doneCh)

	log.Println("Kiosk started")
	return nil
}

// Stop halts the kiosk loop and closes the camera.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	a.motion.Close()

	log.Println("Kiosk stopped")
}

// runKiosk reads frames at the idle rate, switches to the active rate while
// the motion gate is open and runs recognition on active frames.
func (a *App) runKiosk(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stopCh
		cancel()
	}()

	frame := gocv.NewMat()
	defer frame.Close()

	active := false
	lastMotion := time.Time{}

	ticker := time.NewTicker(time.Second / IdleFPS)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}

		if !a.IsEnabled() {
			continue
		}

		if err := a.camera.Read(&frame); err != nil {
			if errors.Is(err, capture.ErrNoFrame) {
				continue
			}
			log.Printf("Error reading frame: %v", err)
			continue
		}
		a.publish(frame)

		now := time.Now()
		if moved, _ := a.motion.Check(frame); moved {
			lastMotion = now
			if !active {
				active = true
				a.camera.SetFPS(ActiveFPS)
				ticker.Reset(time.Second / ActiveFPS)
			}
		} else if active && now.Sub(lastMotion) > IdleTimeout {
			active = false
			a.camera.SetFPS(IdleFPS)
			ticker.Reset(time.Second / IdleFPS)
		}

		if active {
			a.step(ctx, frame, now)
		}
	}
}

// step recognizes one frame and marks attendance unless the person was
// marked within the cooldown. It returns the record written, if any.
func (a *App) step(ctx context.Context, frame gocv.Mat, now time.Time) (store.Record, bool) {
	match, err := a.recognizer.Identify(ctx, frame)
	if err != nil {
		switch {
		case errors.Is(err, face.ErrNoFaceDetected), errors.Is(err, face.ErrNoMatch),
			errors.Is(err, face.ErrNoRegisteredFaces):
		default:
			log.Printf("Kiosk recognition error: %v", err)
		}
		return store.Record{}, false
	}

	if !a.claim(match.Identity, now) {
		return store.Record{}, false
	}

	res, err := a.recognizer.Mark(ctx, match)
	if err != nil {
		log.Printf("Kiosk attendance error: %v", err)
		return store.Record{}, false
	}
	return res.Record, true
}

// claim reports whether identity is outside its cooldown, and starts a new
// cooldown if so.
func (a *App) claim(identity string, now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if last, ok := a.lastSeen[identity]; ok && now.Sub(last) < a.config.Cooldown {
		return false
	}
	a.lastSeen[identity] = now
	return true
}

// publish stores frame as the latest JPEG snapshot.
func (a *App) publish(frame gocv.Mat) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	a.mu.Lock()
	a.snapshot = data
	a.mu.Unlock()
}
