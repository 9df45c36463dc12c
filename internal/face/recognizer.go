package face

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/facemark/internal/detector"
	"github.com/ayusman/facemark/internal/store"
)

// AttendanceHook is notified after an attendance row has been written.
type AttendanceHook interface {
	AttendanceMarked(ctx context.Context, rec store.Record)
}

// Result is the outcome of a successful recognition.
type Result struct {
	Match  Match
	Record store.Record
}

// Recognizer identifies the face in a frame and records attendance for it.
type Recognizer struct {
	store    *store.Store
	detector detector.Detector
	matcher  *Matcher
	hooks    []AttendanceHook

	// Now returns the attendance timestamp (default: time.Now).
	Now func() time.Time
}

// NewRecognizer creates a Recognizer backed by s.
func NewRecognizer(s *store.Store, det detector.Detector, m *Matcher) *Recognizer {
	if m == nil {
		m = NewMatcher(DefaultThreshold)
	}
	return &Recognizer{
		store:    s,
		detector: det,
		matcher:  m,
		Now:      time.Now,
	}
}

// AddHook registers a hook fired after each attendance append.
func (r *Recognizer) AddHook(h AttendanceHook) {
	if h == nil {
		return
	}
	r.hooks = append(r.hooks, h)
}

// Recognize matches the first face in the BGR frame against the index and
// appends an attendance row for the matched identity. ErrNoRegisteredFaces is
// returned without running detection when nothing has been registered.
func (r *Recognizer) Recognize(ctx context.Context, frame gocv.Mat) (Result, error) {
	match, err := r.Identify(ctx, frame)
	if err != nil {
		return Result{}, err
	}
	return r.Mark(ctx, match)
}

// Identify performs the matching half of Recognize without writing anything.
func (r *Recognizer) Identify(ctx context.Context, frame gocv.Mat) (Match, error) {
	if frame.Empty() {
		return Match{}, ErrMissingImage
	}

	entries, err := r.registered()
	if err != nil {
		return Match{}, err
	}

	faces, err := r.detector.Detect(ctx, frame)
	if err != nil {
		return Match{}, fmt.Errorf("detect faces: %w", err)
	}
	if len(faces) == 0 {
		return Match{}, ErrNoFaceDetected
	}

	match, ok := r.matcher.Match(faces[0].Embedding, entries)
	if !ok {
		return Match{}, ErrNoMatch
	}
	return match, nil
}

// Mark appends an attendance row for match and fires the hooks.
func (r *Recognizer) Mark(ctx context.Context, match Match) (Result, error) {
	rec, err := r.store.Ledger().Append(match.Identity, r.Now())
	if err != nil {
		return Result{}, fmt.Errorf("record attendance: %w", err)
	}
	log.Printf("Attendance marked for %s (distance %.3f)", match.Identity, match.Distance)

	for _, h := range r.hooks {
		h.AttendanceMarked(ctx, rec)
	}

	return Result{Match: match, Record: rec}, nil
}

// registered loads the index, reporting ErrNoRegisteredFaces when it has
// not been built or the image directory is empty.
func (r *Recognizer) registered() ([]store.Entry, error) {
	empty, err := r.store.Images().Empty()
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	if empty {
		return nil, ErrNoRegisteredFaces
	}

	entries, err := r.store.Index().Load()
	if err != nil {
		if errors.Is(err, store.ErrStoreUnavailable) {
			return nil, ErrNoRegisteredFaces
		}
		return nil, err
	}
	return entries, nil
}
