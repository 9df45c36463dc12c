package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"
	"gocv.io/x/gocv"
)

// ImageExt is the extension every registered face image is stored with.
const ImageExt = ".jpg"

// ImageDir is the directory of registered face images. A file's name without
// its extension is the identity it belongs to.
type ImageDir struct {
	dir string
}

// Path returns the directory path.
func (d *ImageDir) Path() string {
	return d.dir
}

// FileName returns the file name an identity's image is stored under.
func FileName(name string) string {
	return name + ImageExt
}

// Identity recovers the identity from a stored image file name.
func Identity(file string) string {
	return strings.TrimSuffix(file, filepath.Ext(file))
}

// Save encodes the BGR frame as JPEG and writes it for the given identity,
// replacing any previous image. Returns the file name written.
func (d *ImageDir) Save(name string, frame gocv.Mat) (string, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}
	defer buf.Close()

	file := FileName(name)
	if err := renameio.WriteFile(filepath.Join(d.dir, file), buf.GetBytes(), 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return file, nil
}

// Checkpoint captures the current image stored for name. The returned
// function puts it back, or removes the file if name had no image.
func (d *ImageDir) Checkpoint(name string) (func() error, error) {
	path := filepath.Join(d.dir, FileName(name))

	prev, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read image: %w", err)
		}
		return func() error {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			return nil
		}, nil
	}
	return func() error {
		return renameio.WriteFile(path, prev, 0o644)
	}, nil
}

// Read decodes a stored image as a BGR frame. The returned Mat is empty when
// the file cannot be read or decoded. The caller must close it.
func (d *ImageDir) Read(file string) gocv.Mat {
	return gocv.IMRead(filepath.Join(d.dir, file), gocv.IMReadColor)
}

// List returns the names of the files in the directory in sorted order.
// Subdirectories and hidden files are ignored.
func (d *ImageDir) List() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files = append(files, e.Name())
	}
	return files, nil
}

// Empty reports whether the directory holds no images.
func (d *ImageDir) Empty() (bool, error) {
	files, err := d.List()
	if err != nil {
		return false, err
	}
	return len(files) == 0, nil
}
