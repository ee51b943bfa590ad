// Package similarity scores the closeness of two text fragments on a [0,1]
// scale. Used by the cross-content linker to detect near-duplicate segments.
package similarity

import (
	"github.com/agnivade/levenshtein"
)

// Scorer returns a normalized similarity score in [0,1] for two strings.
// 1 means identical, 0 means nothing in common.
type Scorer interface {
	Similarity(a, b string) float64
}

// Levenshtein scores strings by normalized edit distance:
// 1 - distance/max(len). Operates on runes, not bytes.
type Levenshtein struct{}

var _ Scorer = Levenshtein{}

// Similarity implements Scorer.
func (Levenshtein) Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la := len([]rune(a))
	lb := len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
