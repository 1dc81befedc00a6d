package executor

import (
	"context"
	"fmt"
	"strings"

	"ai-study-assistant-be/internal/pkg/logger"
	"ai-study-assistant-be/pkg/apperror"
	"ai-study-assistant-be/pkg/llm/structured"
	"ai-study-assistant-be/pkg/rag/normalize"
	"ai-study-assistant-be/pkg/rag/prompt"
	"ai-study-assistant-be/pkg/rag/scoring"
	"ai-study-assistant-be/pkg/rag/selector"
	"ai-study-assistant-be/pkg/store"
)

const focusTermCount = 8

type QuizExecutor struct {
	gen      Generator
	selector *selector.Selector
	stop     scoring.StopList
	logger   logger.ILogger
}

func NewQuizExecutor(gen Generator, sel *selector.Selector, stop scoring.StopList, log logger.ILogger) *QuizExecutor {
	return &QuizExecutor{gen: gen, selector: sel, stop: stop, logger: log}
}

// QuizContext ranks the unit's own notes first, then the material paragraphs by
// document term frequency.
func (e *QuizExecutor) QuizContext(unit structured.StudyUnit, material string) string {
	paragraphs := normalize.Paragraphs(normalize.Normalize(material))
	scores := scoring.ScoreDocument(paragraphs)

	candidates := make([]store.ScoredSource, 0, len(paragraphs)+1)
	candidates = append(candidates, store.ScoredSource{
		Source: store.Source{ID: "unit", Kind: store.KindNote, Text: unit.Content},
		Anchor: true,
	})
	for i, p := range paragraphs {
		candidates = append(candidates, store.ScoredSource{
			Source:        store.Source{ID: fmt.Sprintf("p-%d", i+1), Kind: store.KindParagraph, Text: p},
			Score:         scores[i],
			OriginalIndex: i + 1,
		})
	}
	return e.selector.Select(candidates, true).Context
}

// Generate produces a validated five-question quiz. There is no fallback quiz:
// parse errors are returned with the raw output attached.
func (e *QuizExecutor) Generate(ctx context.Context, unit structured.StudyUnit, material string) (*structured.Quiz, error) {
	if strings.TrimSpace(unit.Topic) == "" && strings.TrimSpace(unit.Content) == "" {
		return nil, apperror.Validation("study unit is empty")
	}

	quizContext := e.QuizContext(unit, material)
	focus := e.stop.TopTerms(normalize.Paragraphs(unit.Content), focusTermCount)

	out, err := e.gen.Generate(ctx, prompt.Quiz(unit.Topic, focus, quizContext, structured.TaxonomyLevels))
	if err != nil {
		return nil, err
	}

	quiz, err := structured.Parse[structured.Quiz](out.Text)
	if err != nil {
		e.logger.Warn("StudyService", "Quiz output rejected", map[string]interface{}{
			"topic": unit.Topic,
			"error": err,
			"raw":   truncate(out.Text, 200),
		})
		return nil, err
	}
	return &quiz, nil
}
