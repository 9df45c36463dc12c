// Package facetest provides image and embedding fixtures for tests.
//
// People are represented by solid-colour images; a detector.PaletteDetector
// maps each colour to a one-hot embedding, so distinct people are sqrt(2)
// apart and identical people are 0 apart.
package facetest

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/facemark/internal/detector"
)

// Dim is the embedding dimensionality used by the fixtures.
const Dim = 8

// Person is a fixture identity: an image colour and its embedding axis.
type Person struct {
	Name  string
	Color color.RGBA
	Axis  int
}

// Fixture people. Stranger is never registered by the helpers.
var (
	Alice    = Person{Name: "alice", Color: color.RGBA{R: 220, G: 40, B: 40, A: 255}, Axis: 0}
	Bob      = Person{Name: "bob", Color: color.RGBA{R: 40, G: 40, B: 220, A: 255}, Axis: 1}
	Carol    = Person{Name: "carol", Color: color.RGBA{R: 40, G: 200, B: 40, A: 255}, Axis: 2}
	Stranger = Person{Name: "stranger", Color: color.RGBA{R: 200, G: 200, B: 40, A: 255}, Axis: 3}
)

// Faceless is a colour no palette maps to a face.
var Faceless = color.RGBA{R: 128, G: 128, B: 128, A: 255}

// Image returns the person's image.
func (p Person) Image() *image.RGBA {
	return SolidImage(p.Color)
}

// Embedding returns the person's unit embedding.
func (p Person) Embedding() []float64 {
	return OneHot(p.Axis)
}

// SolidImage returns a 64x64 image filled with c.
func SolidImage(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// OneHot returns a Dim-length unit vector along axis.
func OneHot(axis int) []float64 {
	v := make([]float64, Dim)
	v[axis%Dim] = 1
	return v
}

// Blend returns the normalized vector (1-w)*a + w*b.
func Blend(a, b []float64, w float64) []float64 {
	v := make([]float64, len(a))
	for i := range v {
		v[i] = (1-w)*a[i] + w*b[i]
	}
	return detector.Normalize(v)
}

// Palette returns a detector that recognizes all fixture people, including Stranger.
func Palette() *detector.PaletteDetector {
	p := detector.NewPaletteDetector()
	for _, person := range []Person{Alice, Bob, Carol, Stranger} {
		p.Add(person.Color, person.Embedding())
	}
	return p
}

// EncodeJPEG returns the JPEG encoding of img.
func EncodeJPEG(tb testing.TB, img image.Image) []byte {
	tb.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		tb.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// WriteFile writes data to dir/name, bypassing the store.
func WriteFile(tb testing.TB, dir, name string, data []byte) string {
	tb.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	return path
}
