package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/google/renameio"

	"github.com/ayusman/facemark/internal/detector"
)

const indexVersion = 1

// Entry is one registered image and the embedding computed from it.
type Entry struct {
	File      string    `json:"file"`
	Embedding []float64 `json:"embedding"`
}

// Identity returns the identity the entry belongs to.
func (e Entry) Identity() string {
	return Identity(e.File)
}

// indexFile is the on-disk layout of the index. Entries keep their order so
// that matching iterates them deterministically.
type indexFile struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

// ProgressFunc is called after each image is processed during a rebuild.
type ProgressFunc func(done, total int)

// Index is the persisted mapping from registered image file to embedding.
// It is always rebuilt in full from the image directory, which stays the
// source of truth.
type Index struct {
	path   string
	images *ImageDir
	mu     sync.RWMutex
}

// Path returns the index file path.
func (x *Index) Path() string {
	return x.path
}

// Rebuild recomputes the embedding of every stored image and replaces the
// persisted index, even when no entries remain. Images that cannot be decoded
// or that contain no face are skipped. Only the first face of an image is used.
func (x *Index) Rebuild(ctx context.Context, det detector.Detector, progress ProgressFunc) ([]Entry, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	files, err := x.images.List()
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	entries := make([]Entry, 0, len(files))
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry, ok, err := x.embed(ctx, det, file)
		if err != nil {
			return nil, err
		}
		if ok {
			entries = append(entries, entry)
		}

		if progress != nil {
			progress(i+1, len(files))
		}
	}

	if err := x.write(entries); err != nil {
		return nil, err
	}

	log.Printf("Rebuilt embedding index: %d of %d images", len(entries), len(files))
	return entries, nil
}

// embed computes the entry for a single image file. ok is false when the
// image is skipped.
func (x *Index) embed(ctx context.Context, det detector.Detector, file string) (Entry, bool, error) {
	frame := x.images.Read(file)
	defer frame.Close()

	if frame.Empty() {
		return Entry{}, false, nil
	}

	faces, err := det.Detect(ctx, frame)
	if err != nil {
		return Entry{}, false, fmt.Errorf("detect faces in %s: %w", file, err)
	}
	if len(faces) == 0 {
		return Entry{}, false, nil
	}

	return Entry{File: file, Embedding: faces[0].Embedding}, true, nil
}

func (x *Index) write(entries []Entry) error {
	data, err := json.Marshal(indexFile{Version: indexVersion, Entries: entries})
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := renameio.WriteFile(x.path, data, 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// Load reads the persisted index. Returns ErrStoreUnavailable if it has not
// been built yet.
func (x *Index) Load() ([]Entry, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	data, err := os.ReadFile(x.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrStoreUnavailable
		}
		return nil, fmt.Errorf("read index: %w", err)
	}

	var f indexFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	return f.Entries, nil
}

// Exists reports whether the index file has been written.
func (x *Index) Exists() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()

	_, err := os.Stat(x.path)
	return err == nil
}
