package face

import (
	"math"
	"testing"

	"github.com/ayusman/facemark/internal/facetest"
	"github.com/ayusman/facemark/internal/store"
)

func entry(file string, v []float64) store.Entry {
	return store.Entry{File: file, Embedding: v}
}

func TestMatcher_Match(t *testing.T) {
	matcher := NewMatcher(DefaultThreshold)

	entries := []store.Entry{
		entry("alice.jpg", facetest.Alice.Embedding()),
		entry("bob.jpg", facetest.Bob.Embedding()),
	}

	m, ok := matcher.Match(facetest.Alice.Embedding(), entries)
	if !ok {
		t.Fatal("expected a match for an identical embedding")
	}
	if m.Identity != "alice" {
		t.Errorf("expected alice, got %q", m.Identity)
	}
	if m.File != "alice.jpg" {
		t.Errorf("expected file alice.jpg, got %q", m.File)
	}
	if m.Distance != 0 {
		t.Errorf("expected distance 0, got %f", m.Distance)
	}
}

func TestMatcher_NoMatch(t *testing.T) {
	matcher := NewMatcher(DefaultThreshold)

	entries := []store.Entry{
		entry("alice.jpg", facetest.Alice.Embedding()),
		entry("bob.jpg", facetest.Bob.Embedding()),
	}

	// Orthogonal unit vectors are sqrt(2) apart, above the threshold.
	if m, ok := matcher.Match(facetest.Stranger.Embedding(), entries); ok {
		t.Errorf("expected no match, got %+v", m)
	}
}

func TestMatcher_PicksNearestUnderThreshold(t *testing.T) {
	matcher := NewMatcher(DefaultThreshold)

	a := facetest.Alice.Embedding()
	b := facetest.Bob.Embedding()
	query := facetest.Blend(a, b, 0.4) // closer to alice

	entries := []store.Entry{
		entry("bob.jpg", b),
		entry("alice.jpg", a),
	}

	m, ok := matcher.Match(query, entries)
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Identity != "alice" {
		t.Errorf("expected nearest identity alice, got %q", m.Identity)
	}
}

func TestMatcher_ThresholdIsStrict(t *testing.T) {
	query := []float64{0, 0}
	entries := []store.Entry{entry("edge.jpg", []float64{1.2, 0})}

	if _, ok := NewMatcher(1.2).Match(query, entries); ok {
		t.Error("distance equal to the threshold must not match")
	}
	if _, ok := NewMatcher(1.2000001).Match(query, entries); !ok {
		t.Error("distance just below the threshold must match")
	}
}

func TestMatcher_TieKeepsFirst(t *testing.T) {
	matcher := NewMatcher(DefaultThreshold)
	v := facetest.Carol.Embedding()

	entries := []store.Entry{
		entry("carol.jpg", v),
		entry("carol2.jpg", v),
	}

	m, ok := matcher.Match(v, entries)
	if !ok || m.File != "carol.jpg" {
		t.Errorf("expected first entry carol.jpg, got %+v (ok=%v)", m, ok)
	}
}

func TestMatcher_SkipsDimensionMismatch(t *testing.T) {
	matcher := NewMatcher(DefaultThreshold)

	entries := []store.Entry{
		entry("short.jpg", []float64{1, 0}),
		entry("alice.jpg", facetest.Alice.Embedding()),
	}

	m, ok := matcher.Match(facetest.Alice.Embedding(), entries)
	if !ok || m.Identity != "alice" {
		t.Errorf("expected alice after skipping mismatched entry, got %+v (ok=%v)", m, ok)
	}
}

func TestMatcher_UnknownIsAName(t *testing.T) {
	matcher := NewMatcher(DefaultThreshold)
	entries := []store.Entry{entry("Unknown.jpg", facetest.Bob.Embedding())}

	m, ok := matcher.Match(facetest.Bob.Embedding(), entries)
	if !ok || m.Identity != "Unknown" {
		t.Errorf("expected identity Unknown to match, got %+v (ok=%v)", m, ok)
	}
}

func TestMatcher_EmptyInputs(t *testing.T) {
	matcher := NewMatcher(0)
	if matcher.Threshold != DefaultThreshold {
		t.Errorf("expected default threshold, got %f", matcher.Threshold)
	}

	if _, ok := matcher.Match(nil, []store.Entry{entry("a.jpg", []float64{1})}); ok {
		t.Error("empty query must not match")
	}
	if _, ok := matcher.Match(facetest.Alice.Embedding(), nil); ok {
		t.Error("empty index must not match")
	}
}

func TestMatcher_Distance(t *testing.T) {
	matcher := NewMatcher(2)
	entries := []store.Entry{entry("bob.jpg", facetest.Bob.Embedding())}

	m, ok := matcher.Match(facetest.Alice.Embedding(), entries)
	if !ok {
		t.Fatal("expected a match with a loose threshold")
	}
	if math.Abs(m.Distance-math.Sqrt2) > 1e-9 {
		t.Errorf("expected distance sqrt(2), got %f", m.Distance)
	}
}
