// Package dedup drops passages that lexically repeat an already accepted one.
package dedup

import (
	"strings"

	"ai-study-assistant-be/pkg/store"
)

const DefaultThreshold = 0.85

type tokenSet map[string]struct{}

func tokenize(text string) tokenSet {
	set := make(tokenSet)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		set[tok] = struct{}{}
	}
	return set
}

func jaccard(a, b tokenSet) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Jaccard compares the whitespace-token sets of two texts, case-insensitively.
func Jaccard(a, b string) float64 {
	return jaccard(tokenize(a), tokenize(b))
}

// Set is the accepted list of one selection pass.
type Set struct {
	threshold float64
	accepted  []tokenSet
}

func NewSet(threshold float64) *Set {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Set{threshold: threshold}
}

// IsDuplicate reports whether text exceeds the threshold against any accepted item.
func (s *Set) IsDuplicate(text string) bool {
	return s.isDuplicate(tokenize(text))
}

func (s *Set) isDuplicate(tokens tokenSet) bool {
	for _, acc := range s.accepted {
		if jaccard(tokens, acc) > s.threshold {
			return true
		}
	}
	return false
}

// Add records text as accepted without checking it.
func (s *Set) Add(text string) {
	s.accepted = append(s.accepted, tokenize(text))
}

// Accept adds text unless it duplicates an accepted item.
func (s *Set) Accept(text string) bool {
	tokens := tokenize(text)
	if s.isDuplicate(tokens) {
		return false
	}
	s.accepted = append(s.accepted, tokens)
	return true
}

func (s *Set) Len() int {
	return len(s.accepted)
}

// Filter keeps candidates in the given order, dropping near-duplicates of earlier survivors.
func Filter(candidates []store.ScoredSource, threshold float64) []store.ScoredSource {
	set := NewSet(threshold)
	out := make([]store.ScoredSource, 0, len(candidates))
	for _, c := range candidates {
		if set.Accept(c.Text) {
			out = append(out, c)
		}
	}
	return out
}
