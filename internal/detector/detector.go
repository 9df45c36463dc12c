// Package detector provides face detection and embedding extraction for face recognition.
package detector

import (
	"context"
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
)

// EmbeddingSize is the dimensionality of embeddings produced by the buffalo_l model.
const EmbeddingSize = 512

// Detector defines the interface for face detection implementations.
type Detector interface {
	// Detect analyzes a BGR frame and returns the detected faces in detection order.
	// Returns an empty slice if no faces are detected.
	Detect(ctx context.Context, frame gocv.Mat) ([]Face, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Face is a single detected face with its identity embedding.
type Face struct {
	Embedding []float64       `json:"embedding"` // L2-normalized
	Score     float64         `json:"score"`
	Box       image.Rectangle `json:"box"`
}

// Detector kinds accepted by New.
const (
	KindInsightFace = "insightface"
	KindRemote      = "remote"
)

// Config holds configuration options for face detection.
type Config struct {
	// Kind selects the implementation: "insightface" (default) or "remote".
	Kind string

	// Python is the interpreter used for the subprocess detector.
	// Empty means a venv interpreter if one is found, else python3.
	Python string

	// Script is the path to the face service script. Empty means search the usual locations.
	Script string

	// URL is the base URL of a remote embedding server.
	URL string

	// DetSize is the square input size passed to the face detector (default: 640).
	DetSize int
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Kind:    KindInsightFace,
		DetSize: 640,
	}
}

// Normalize scales v to unit L2 length in place and returns it.
// Zero vectors are returned unchanged.
func Normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}

	norm := math.Sqrt(sum)
	if norm < 1e-12 {
		return v
	}

	for i := range v {
		v[i] /= norm
	}
	return v
}

// New constructs the detector selected by config.Kind.
func New(config Config) (Detector, error) {
	switch config.Kind {
	case "", KindInsightFace:
		d, err := NewInsightFaceDetector(config)
		if err != nil {
			return nil, err
		}
		return d, nil
	case KindRemote:
		d, err := NewRemoteDetector(config.URL)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown detector kind %q", config.Kind)
	}
}
