// Package store provides file-backed storage for registered face images,
// the embedding index and the attendance ledger.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var (
	// ErrStoreUnavailable is returned when the embedding index has not been built yet.
	ErrStoreUnavailable = errors.New("embedding store unavailable")

	// ErrNoAttendance is returned when the attendance ledger does not exist yet.
	ErrNoAttendance = errors.New("no attendance records")
)

// Config holds the locations of the persisted files.
type Config struct {
	ImageDir   string
	IndexPath  string
	LedgerPath string

	// Location is the timezone attendance timestamps are recorded in (default: UTC).
	Location *time.Location
}

// Store groups the registered-image directory, the embedding index and the
// attendance ledger. Each backing file has a single owner guarding its
// read-modify-write cycle.
type Store struct {
	images *ImageDir
	index  *Index
	ledger *Ledger
}

// New creates a new Store, creating the image directory and the parent
// directories of the index and ledger files.
func New(cfg Config) (*Store, error) {
	if cfg.ImageDir == "" || cfg.IndexPath == "" || cfg.LedgerPath == "" {
		return nil, fmt.Errorf("image dir, index path and ledger path are required")
	}

	dirs := []string{cfg.ImageDir, filepath.Dir(cfg.IndexPath), filepath.Dir(cfg.LedgerPath)}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	images := &ImageDir{dir: cfg.ImageDir}
	return &Store{
		images: images,
		index:  &Index{path: cfg.IndexPath, images: images},
		ledger: &Ledger{path: cfg.LedgerPath, loc: loc},
	}, nil
}

// Images returns the registered-image directory.
func (s *Store) Images() *ImageDir {
	return s.images
}

// Index returns the embedding index.
func (s *Store) Index() *Index {
	return s.index
}

// Ledger returns the attendance ledger.
func (s *Store) Ledger() *Ledger {
	return s.ledger
}
