// Package scoring ranks candidate passages lexically. Scores are request-scoped.
package scoring

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"ai-study-assistant-be/pkg/store"
)

// MinSignificantWords filters out headings and fragments.
const MinSignificantWords = 5

var significantWordRe = regexp.MustCompile(`\p{L}{4,}`)

type Weights struct {
	Primary   float64
	Secondary float64
	Kind      map[store.Kind]float64
}

func DefaultWeights() Weights {
	return Weights{
		Primary:   3,
		Secondary: 1,
		Kind: map[store.Kind]float64{
			store.KindNote: 1.5,
		},
	}
}

func (w Weights) kindWeight(k store.Kind) float64 {
	if v, ok := w.Kind[k]; ok {
		return v
	}
	return 1
}

type Keywords struct {
	Primary   []string
	Secondary []string
}

func (k Keywords) Empty() bool {
	return len(clean(k.Primary)) == 0 && len(clean(k.Secondary)) == 0
}

// SignificantWords returns lowercase alphabetic tokens of length >= 4.
func SignificantWords(text string) []string {
	return significantWordRe.FindAllString(strings.ToLower(text), -1)
}

// ScoreDocument scores every paragraph of one document by term-frequency density:
// the sum of document-wide frequencies of its significant words divided by
// ln(count+2).
func ScoreDocument(paragraphs []string) []float64 {
	words := make([][]string, len(paragraphs))
	freq := make(map[string]int)
	for i, p := range paragraphs {
		words[i] = SignificantWords(p)
		for _, w := range words[i] {
			freq[w]++
		}
	}

	scores := make([]float64, len(paragraphs))
	for i, ws := range words {
		if len(ws) < MinSignificantWords {
			continue
		}
		raw := 0
		for _, w := range ws {
			raw += freq[w]
		}
		scores[i] = float64(raw) / math.Log(float64(len(ws)+2))
	}
	return scores
}

type Scorer struct {
	weights Weights
}

func NewScorer(weights Weights) *Scorer {
	return &Scorer{weights: weights}
}

// Score applies the multi-source retrieval formula to a single source.
func (s *Scorer) Score(src store.Source, kw Keywords) float64 {
	return s.score(src, compile(kw.Primary), compile(kw.Secondary))
}

func (s *Scorer) score(src store.Source, primary, secondary []*regexp.Regexp) float64 {
	if len(SignificantWords(src.Text)) < MinSignificantWords {
		return 0
	}
	score := s.weights.Primary*float64(countMatches(src.Text, primary)) +
		s.weights.Secondary*float64(countMatches(src.Text, secondary))
	return score * s.weights.kindWeight(src.Kind)
}

// ScoreAll scores sources in place order; OriginalIndex is the input position.
func (s *Scorer) ScoreAll(sources []store.Source, kw Keywords) []store.ScoredSource {
	primary, secondary := compile(kw.Primary), compile(kw.Secondary)
	out := make([]store.ScoredSource, len(sources))
	for i, src := range sources {
		out[i] = store.ScoredSource{
			Source:        src,
			Score:         s.score(src, primary, secondary),
			OriginalIndex: i,
		}
	}
	return out
}

// Rank returns a copy sorted by descending score; ties keep input order.
func Rank(candidates []store.ScoredSource) []store.ScoredSource {
	ranked := make([]store.ScoredSource, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func compile(keywords []string) []*regexp.Regexp {
	cleaned := clean(keywords)
	out := make([]*regexp.Regexp, 0, len(cleaned))
	for _, kw := range cleaned {
		out = append(out, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(kw)))
	}
	return out
}

// countMatches counts whole-word hits. RE2's \b only knows ASCII word
// characters, so boundaries are checked against Unicode letters and digits.
func countMatches(text string, patterns []*regexp.Regexp) int {
	n := 0
	for _, re := range patterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if wordBoundaryAt(text, loc[0], loc[1]) {
				n++
			}
		}
	}
	return n
}

func wordBoundaryAt(text string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

func clean(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}
