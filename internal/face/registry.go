package face

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"gocv.io/x/gocv"
	"golang.org/x/text/unicode/norm"

	"github.com/ayusman/facemark/internal/detector"
	"github.com/ayusman/facemark/internal/store"
)

// CleanName trims and NFC-normalises a registration name. Names that are
// empty, would escape the image directory or start with a dot are rejected
// with ErrInvalidName. Dot files in the image directory are never indexed.
func CleanName(name string) (string, error) {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return "", ErrInvalidName
	}
	return name, nil
}

// Registry stores face images under a name and keeps the embedding index in
// sync with them.
type Registry struct {
	store    *store.Store
	detector detector.Detector
	mu       sync.Mutex
}

// NewRegistry creates a Registry backed by s that embeds faces with det.
func NewRegistry(s *store.Store, det detector.Detector) *Registry {
	return &Registry{store: s, detector: det}
}

// Register validates the name, checks that the BGR frame contains a face,
// stores the frame as the name's image and rebuilds the index. Validation
// failures return before anything is written; a failed rebuild puts back the
// name's previous image. Returns the stored name.
func (r *Registry) Register(ctx context.Context, name string, frame gocv.Mat) (string, error) {
	name, err := CleanName(name)
	if err != nil {
		return "", err
	}
	if frame.Empty() {
		return "", ErrMissingImage
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	faces, err := r.detector.Detect(ctx, frame)
	if err != nil {
		return "", fmt.Errorf("detect faces: %w", err)
	}
	if len(faces) == 0 {
		return "", ErrNoFaceDetected
	}

	restore, err := r.store.Images().Checkpoint(name)
	if err != nil {
		return "", err
	}

	file, err := r.store.Images().Save(name, frame)
	if err != nil {
		return "", err
	}

	entries, err := r.store.Index().Rebuild(ctx, r.detector, nil)
	if err != nil {
		if rerr := restore(); rerr != nil {
			log.Printf("Failed to restore image for %q: %v", name, rerr)
		}
		return "", fmt.Errorf("rebuild index: %w", err)
	}

	log.Printf("Registered face %q as %s (%d faces indexed)", name, file, len(entries))
	return name, nil
}

// Names returns the identities currently in the index, in index order.
func (r *Registry) Names() ([]string, error) {
	entries, err := r.store.Index().Load()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Identity())
	}
	return names, nil
}

// Rebuild recomputes the index from the stored images.
func (r *Registry) Rebuild(ctx context.Context, progress store.ProgressFunc) ([]store.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Index().Rebuild(ctx, r.detector, progress)
}
