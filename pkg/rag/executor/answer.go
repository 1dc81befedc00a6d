package executor

import (
	"context"
	"fmt"
	"strings"

	"ai-study-assistant-be/internal/pkg/logger"
	"ai-study-assistant-be/pkg/apperror"
	"ai-study-assistant-be/pkg/llm"
	"ai-study-assistant-be/pkg/llm/orchestrator"
	"ai-study-assistant-be/pkg/llm/structured"
	"ai-study-assistant-be/pkg/rag/normalize"
	"ai-study-assistant-be/pkg/rag/prompt"
	"ai-study-assistant-be/pkg/rag/scoring"
	"ai-study-assistant-be/pkg/rag/selector"
	"ai-study-assistant-be/pkg/store"
)

type AnswerInput struct {
	Question string
	// Explicit keywords; when both are empty they are extracted from Question.
	Keywords          []string
	SecondaryKeywords []string
	Structured        bool
	// Material is the anchor document; its first paragraph is always kept.
	Material string
	Sources  []store.Source
}

type AnswerResult struct {
	Text             string                     `json:"text"`
	ProviderUsed     llm.Tier                   `json:"provider_used"`
	Sources          []string                   `json:"sources"`
	Sections         *structured.AnswerSections `json:"sections,omitempty"`
	SectionsFallback bool                       `json:"sections_fallback,omitempty"`
}

type AnswerExecutor struct {
	gen      Generator
	scorer   *scoring.Scorer
	selector *selector.Selector
	stop     scoring.StopList
	logger   logger.ILogger
}

func NewAnswerExecutor(gen Generator, scorer *scoring.Scorer, sel *selector.Selector, stop scoring.StopList, log logger.ILogger) *AnswerExecutor {
	return &AnswerExecutor{gen: gen, scorer: scorer, selector: sel, stop: stop, logger: log}
}

// Candidates lays out the anchor document paragraphs first, then the extra sources.
func Candidates(material string, sources []store.Source) []store.Source {
	paragraphs := normalize.Paragraphs(normalize.Normalize(material))
	out := make([]store.Source, 0, len(paragraphs)+len(sources))
	for i, p := range paragraphs {
		out = append(out, store.Source{ID: fmt.Sprintf("p-%d", i+1), Kind: store.KindParagraph, Text: p})
	}
	for _, s := range sources {
		if strings.TrimSpace(s.Text) == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Prepare scores and selects context for the question and builds the request.
func (e *AnswerExecutor) Prepare(in AnswerInput, streaming bool) (llm.GenerationRequest, store.SelectionResult, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return llm.GenerationRequest{}, store.SelectionResult{}, apperror.Validation("question is required")
	}

	kw := scoring.Keywords{Primary: in.Keywords, Secondary: in.SecondaryKeywords}
	if kw.Empty() {
		kw.Primary = e.stop.ExtractKeywords(question)
	}

	candidates := Candidates(in.Material, in.Sources)
	scored := e.scorer.ScoreAll(candidates, kw)
	// Material that normalizes to nothing has no anchor paragraph.
	if len(scored) > 0 && scored[0].Kind == store.KindParagraph {
		scored[0].Anchor = true
	}

	sel := e.selector.Select(scored, !kw.Empty())
	e.logger.Debug("StudyService", "Context selected", map[string]interface{}{
		"candidates": len(candidates),
		"accepted":   len(sel.Accepted),
		"chars":      len([]rune(sel.Context)),
		"keywords":   kw.Primary,
	})

	return prompt.Answer(question, sel.Context, in.Structured, streaming), sel, nil
}

// Answer runs a blocking grounded answer.
func (e *AnswerExecutor) Answer(ctx context.Context, in AnswerInput) (*AnswerResult, error) {
	req, sel, err := e.Prepare(in, false)
	if err != nil {
		return nil, err
	}
	gen, err := e.gen.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return e.finish(gen, sel, in.Structured), nil
}

// Stream relays the answer fragment by fragment; the result carries the full text.
func (e *AnswerExecutor) Stream(ctx context.Context, in AnswerInput, sink orchestrator.Sink) (*AnswerResult, error) {
	req, sel, err := e.Prepare(in, true)
	if err != nil {
		return nil, err
	}
	gen, err := e.gen.Stream(ctx, req, sink)
	if err != nil {
		return nil, err
	}
	return e.finish(gen, sel, in.Structured), nil
}

func (e *AnswerExecutor) finish(gen *llm.GenerationResult, sel store.SelectionResult, wantSections bool) *AnswerResult {
	res := &AnswerResult{
		Text:         gen.Text,
		ProviderUsed: gen.ProviderUsed,
		Sources:      sel.Tags(),
	}
	if wantSections {
		parsed := structured.ParseOr(gen.Text, func() structured.AnswerSections {
			return structured.AnswerFallback(gen.Text)
		})
		res.Sections = &parsed.Value
		res.SectionsFallback = parsed.Fallback
	}
	return res
}
