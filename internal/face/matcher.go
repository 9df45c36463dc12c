// Package face registers named faces and recognizes captured faces against
// them.
package face

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/ayusman/facemark/internal/store"
)

// DefaultThreshold is the Euclidean distance a candidate must stay strictly
// below to be accepted as a match.
const DefaultThreshold = 1.2

// Match is a successful recognition result.
type Match struct {
	Identity string  // Registered name
	File     string  // Index key the match came from
	Distance float64 // Euclidean distance between query and stored embedding
}

// Matcher finds the nearest registered embedding to a query.
type Matcher struct {
	Threshold float64
}

// NewMatcher creates a Matcher. A non-positive threshold selects DefaultThreshold.
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{Threshold: threshold}
}

// Match scans entries in order and returns the closest one whose distance is
// below the threshold. Ties keep the earlier entry. Entries of a different
// dimension than the query are ignored. ok is false when nothing qualifies.
func (m *Matcher) Match(query []float64, entries []store.Entry) (Match, bool) {
	if len(query) == 0 {
		return Match{}, false
	}

	best := math.Inf(1)
	var result Match
	var ok bool

	for _, e := range entries {
		if len(e.Embedding) != len(query) {
			continue
		}

		d := floats.Distance(query, e.Embedding, 2)
		if d < best && d < m.Threshold {
			best = d
			result = Match{Identity: e.Identity(), File: e.File, Distance: d}
			ok = true
		}
	}

	return result, ok
}
