// Package selector assembles a bounded prompt context out of scored sources.
package selector

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"ai-study-assistant-be/pkg/rag/dedup"
	"ai-study-assistant-be/pkg/rag/scoring"
	"ai-study-assistant-be/pkg/store"
)

// NoRelevantMaterial replaces an empty context so the model is told explicitly.
const NoRelevantMaterial = "No high-relevance material was found in the provided sources."

const (
	DefaultMaxChars        = 12000
	DefaultNoiseFloorChars = 1000
	DefaultColdStartCount  = 3

	blockSeparator = "\n\n"
)

type Config struct {
	Budget         store.ContextBudget
	DedupThreshold float64
	// Zero-score candidates are skipped once this much context is accumulated.
	NoiseFloorChars int
	ColdStartCount  int
}

func DefaultConfig() Config {
	return Config{
		Budget:          store.ContextBudget{MaxChars: DefaultMaxChars},
		DedupThreshold:  dedup.DefaultThreshold,
		NoiseFloorChars: DefaultNoiseFloorChars,
		ColdStartCount:  DefaultColdStartCount,
	}
}

type Selector struct {
	cfg Config
}

func New(cfg Config) *Selector {
	def := DefaultConfig()
	if cfg.Budget.MaxChars <= 0 {
		cfg.Budget = def.Budget
	}
	if cfg.DedupThreshold <= 0 {
		cfg.DedupThreshold = def.DedupThreshold
	}
	if cfg.NoiseFloorChars <= 0 {
		cfg.NoiseFloorChars = def.NoiseFloorChars
	}
	if cfg.ColdStartCount <= 0 {
		cfg.ColdStartCount = def.ColdStartCount
	}
	return &Selector{cfg: cfg}
}

func (s *Selector) Budget() store.ContextBudget {
	return s.cfg.Budget
}

// Select picks sources for the prompt. Without keywords the first few sources are
// taken as-is; otherwise selection is greedy by score with the anchor reserved first.
// The emitted order always follows OriginalIndex.
func (s *Selector) Select(candidates []store.ScoredSource, keywordsSupplied bool) store.SelectionResult {
	asm := &assembly{maxChars: s.cfg.Budget.MaxChars}

	if !keywordsSupplied {
		for _, c := range candidates {
			if len(asm.accepted) == s.cfg.ColdStartCount {
				break
			}
			if strings.TrimSpace(c.Text) == "" {
				continue
			}
			if !asm.fits(c) {
				break
			}
			asm.add(c)
		}
		return asm.result(false)
	}

	ranked := scoring.Rank(candidates)
	seen := dedup.NewSet(s.cfg.DedupThreshold)
	anyPositive := false

	anchorIdx := -1
	for i, c := range ranked {
		if c.Score > 0 {
			anyPositive = true
		}
		if c.Anchor && anchorIdx < 0 {
			anchorIdx = i
		}
	}

	if anchorIdx >= 0 {
		if anchor, ok := fitAnchor(ranked[anchorIdx], s.cfg.Budget.MaxChars); ok {
			asm.add(anchor)
			seen.Add(anchor.Text)
		}
	}

	for i, c := range ranked {
		if i == anchorIdx || strings.TrimSpace(c.Text) == "" {
			continue
		}
		if c.Score <= 0 && asm.chars > s.cfg.NoiseFloorChars {
			continue
		}
		if seen.IsDuplicate(c.Text) {
			continue
		}
		if !asm.fits(c) {
			break
		}
		asm.add(c)
		seen.Add(c.Text)
	}

	return asm.result(anyPositive)
}

type assembly struct {
	maxChars int
	chars    int
	accepted []store.ScoredSource
}

func (a *assembly) cost(c store.ScoredSource) int {
	n := utf8.RuneCountInString(block(c))
	if len(a.accepted) > 0 {
		n += len(blockSeparator)
	}
	return n
}

func (a *assembly) fits(c store.ScoredSource) bool {
	return a.chars+a.cost(c) <= a.maxChars
}

func (a *assembly) add(c store.ScoredSource) {
	a.chars += a.cost(c)
	a.accepted = append(a.accepted, c)
}

func (a *assembly) result(anyPositive bool) store.SelectionResult {
	if len(a.accepted) == 0 {
		res := store.SelectionResult{Accepted: []store.ScoredSource{}}
		if !anyPositive {
			res.Context = NoRelevantMaterial
		}
		return res
	}

	sort.SliceStable(a.accepted, func(i, j int) bool {
		return a.accepted[i].OriginalIndex < a.accepted[j].OriginalIndex
	})

	blocks := make([]string, len(a.accepted))
	for i, c := range a.accepted {
		blocks[i] = block(c)
	}
	return store.SelectionResult{
		Accepted: a.accepted,
		Context:  strings.Join(blocks, blockSeparator),
	}
}

func tag(c store.ScoredSource) string {
	return fmt.Sprintf("[%s:%s]\n", c.Kind, c.ID)
}

func block(c store.ScoredSource) string {
	return tag(c) + c.Text
}

// fitAnchor truncates an oversized anchor so that it alone fits the budget.
func fitAnchor(c store.ScoredSource, maxChars int) (store.ScoredSource, bool) {
	if strings.TrimSpace(c.Text) == "" {
		return c, false
	}
	room := maxChars - utf8.RuneCountInString(tag(c))
	if room <= 0 {
		return c, false
	}
	if utf8.RuneCountInString(c.Text) > room {
		c.Text = string([]rune(c.Text)[:room])
	}
	return c, true
}
