package store

// Kind identifies where a candidate passage came from.
type Kind string

const (
	KindNote         Kind = "note"
	KindConversation Kind = "conversation"
	KindAchievement  Kind = "achievement"
	KindParagraph    Kind = "paragraph"
)

func (k Kind) Valid() bool {
	switch k {
	case KindNote, KindConversation, KindAchievement, KindParagraph:
		return true
	}
	return false
}

// Source is a single candidate passage, built per request.
type Source struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// ScoredSource is request-scoped and must not be cached across queries.
type ScoredSource struct {
	Source
	Score         float64 `json:"score"`
	OriginalIndex int     `json:"original_index"`
	// Anchor marks the first paragraph of the primary document.
	Anchor bool `json:"anchor,omitempty"`
}

// ContextBudget bounds the assembled context. Tokens are approximated as chars/4.
type ContextBudget struct {
	MaxChars int
}

const CharsPerToken = 4

func (b ContextBudget) Tokens() int {
	return b.MaxChars / CharsPerToken
}

func BudgetFromTokens(tokens int) ContextBudget {
	return ContextBudget{MaxChars: tokens * CharsPerToken}
}

type SelectionResult struct {
	Accepted []ScoredSource `json:"accepted"`
	Context  string         `json:"context"`
}

// Tags returns the "kind:id" label of each accepted source in emitted order.
func (r SelectionResult) Tags() []string {
	tags := make([]string, 0, len(r.Accepted))
	for _, s := range r.Accepted {
		tags = append(tags, string(s.Kind)+":"+s.ID)
	}
	return tags
}

type Chunk struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Position int    `json:"position"`
}
