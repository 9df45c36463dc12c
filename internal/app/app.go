// Package app wires the face registry, recognizer, attendance ledger and
// hooks into the service used by the CLI, the HTTP server and kiosk mode.
package app

import (
	"context"
	"errors"
	"image"
	"log"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/facemark/internal/capture"
	"github.com/ayusman/facemark/internal/detector"
	"github.com/ayusman/facemark/internal/face"
	"github.com/ayusman/facemark/internal/hook"
	"github.com/ayusman/facemark/internal/store"
)

// Config holds the collaborators and tuning of an App.
type Config struct {
	Store    *store.Store
	Detector detector.Detector

	// Threshold is the match distance limit (default: face.DefaultThreshold).
	Threshold float64

	// HookDir is scanned for attendance hooks; empty disables hooks.
	HookDir     string
	HookTimeout time.Duration

	// Camera is only needed for kiosk mode.
	Camera       capture.Camera
	MotionThresh float64
	// Cooldown suppresses repeated kiosk attendance for the same person.
	Cooldown time.Duration
}

// App is the attendance service.
type App struct {
	config     Config
	store      *store.Store
	detector   detector.Detector
	registry   *face.Registry
	recognizer *face.Recognizer
	hooks      *hook.Manager

	// kiosk state
	camera   capture.Camera
	motion   *capture.MotionGate
	enabled  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	lastSeen map[string]time.Time
	snapshot []byte
	listener func(store.Record)
	mu       sync.RWMutex
}

// New creates an App. Store and Detector are required.
func New(config Config) (*App, error) {
	if config.Store == nil {
		return nil, errors.New("app: store is required")
	}
	if config.Detector == nil {
		return nil, errors.New("app: detector is required")
	}
	if config.Cooldown <= 0 {
		config.Cooldown = DefaultCooldown
	}

	a := &App{
		config:   config,
		store:    config.Store,
		detector: config.Detector,
		registry: face.NewRegistry(config.Store, config.Detector),
		camera:   config.Camera,
		lastSeen: make(map[string]time.Time),
	}
	a.recognizer = face.NewRecognizer(config.Store, config.Detector, face.NewMatcher(config.Threshold))
	a.recognizer.AddHook(listenerHook{a})

	if config.HookDir != "" {
		a.hooks = hook.NewManager(config.HookDir)
		if err := a.hooks.Discover(); err != nil {
			log.Printf("Hook discovery failed: %v", err)
		}
		a.recognizer.AddHook(hook.NewDispatcher(a.hooks, hook.NewExecutor(config.HookTimeout)))
	}

	return a, nil
}

// Register stores img under name and rebuilds the index. A nil img is
// reported as a missing image after the name has been validated.
func (a *App) Register(ctx context.Context, name string, img image.Image) (string, error) {
	if _, err := face.CleanName(name); err != nil {
		return "", err
	}

	frame, err := toFrame(img)
	if err != nil {
		return "", err
	}
	defer frame.Close()

	return a.RegisterFrame(ctx, name, frame)
}

// RegisterFrame is Register for a BGR frame.
func (a *App) RegisterFrame(ctx context.Context, name string, frame gocv.Mat) (string, error) {
	return a.registry.Register(ctx, name, frame)
}

// Recognize identifies the face in img and records attendance for it.
func (a *App) Recognize(ctx context.Context, img image.Image) (face.Result, error) {
	frame, err := toFrame(img)
	if err != nil {
		return face.Result{}, err
	}
	defer frame.Close()

	return a.RecognizeFrame(ctx, frame)
}

// RecognizeFrame is Recognize for a BGR frame.
func (a *App) RecognizeFrame(ctx context.Context, frame gocv.Mat) (face.Result, error) {
	return a.recognizer.Recognize(ctx, frame)
}

// Export returns the path of the attendance ledger.
func (a *App) Export() (string, error) {
	return a.store.Ledger().Export()
}

// Records returns every attendance row.
func (a *App) Records() ([]store.Record, error) {
	return a.store.Ledger().Records()
}

// Names returns the registered identities. It is empty, not an error, before
// the first registration.
func (a *App) Names() ([]string, error) {
	names, err := a.registry.Names()
	if errors.Is(err, store.ErrStoreUnavailable) {
		return []string{}, nil
	}
	return names, err
}

// Rebuild recomputes the embedding index from the registered images.
func (a *App) Rebuild(ctx context.Context, progress store.ProgressFunc) (int, error) {
	entries, err := a.registry.Rebuild(ctx, progress)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Hooks returns the discovered hooks, or nil when hooks are disabled.
func (a *App) Hooks() []*hook.Hook {
	if a.hooks == nil {
		return nil
	}
	return a.hooks.List()
}

// OnAttendance sets a callback invoked after every attendance row.
func (a *App) OnAttendance(fn func(store.Record)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listener = fn
}

// Close releases the detector.
func (a *App) Close() error {
	a.Stop()
	return a.detector.Close()
}

// listenerHook forwards attendance events to the App's callback.
type listenerHook struct {
	app *App
}

func (h listenerHook) AttendanceMarked(ctx context.Context, rec store.Record) {
	h.app.mu.RLock()
	fn := h.app.listener
	h.app.mu.RUnlock()

	if fn != nil {
		fn(rec)
	}
}

// toFrame converts an RGB image into a BGR frame; nil becomes an empty frame.
func toFrame(img image.Image) (gocv.Mat, error) {
	frame, err := detector.FromImage(img)
	if err != nil && !errors.Is(err, detector.ErrEmptyImage) {
		frame.Close()
		return gocv.Mat{}, err
	}
	return frame, nil
}
