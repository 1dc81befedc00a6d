// Package executor runs the multi-pass study flows on top of the generation
// orchestrator: material synthesis, grounded answering and quiz generation.
package executor

import (
	"context"

	"ai-study-assistant-be/pkg/llm"
	"ai-study-assistant-be/pkg/llm/orchestrator"
)

// Generator is the slice of the orchestrator the pipelines depend on.
type Generator interface {
	Generate(ctx context.Context, req llm.GenerationRequest, opts ...llm.Option) (*llm.GenerationResult, error)
	Stream(ctx context.Context, req llm.GenerationRequest, sink orchestrator.Sink, opts ...llm.Option) (*llm.GenerationResult, error)
}

var _ Generator = (*orchestrator.Orchestrator)(nil)

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
