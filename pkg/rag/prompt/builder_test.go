package prompt

import (
	"strings"
	"testing"

	"ai-study-assistant-be/pkg/llm/structured"
	"ai-study-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

func TestBuilders(t *testing.T) {
	chunks := []store.Chunk{
		{ID: "chunk-1", Text: "Cells divide by mitosis.", Position: 0},
		{ID: "chunk-2", Text: strings.Repeat("meiosis ", 100), Position: 1},
	}

	tests := []struct {
		name     string
		build    func() string
		contains []string
	}{
		{
			name:     "extraction wraps chunk",
			build:    func() string { return Extraction(chunks[0]).UserPrompt },
			contains: []string{`<material id="chunk-1">`, "Cells divide by mitosis."},
		},
		{
			name:     "synthesis asks for units json",
			build:    func() string { return Synthesis("- mitosis").UserPrompt },
			contains: []string{"<notes>\n- mitosis\n</notes>", `"units"`},
		},
		{
			name:     "outline lists topics and chunk ids",
			build:    func() string { return Outline([]string{"Mitosis"}, chunks).UserPrompt },
			contains: []string{"1. Mitosis", "[chunk-1] Cells divide", "[chunk-2] meiosis", "...", `"relevant_chunks"`},
		},
		{
			name:     "quiz names every level",
			build:    func() string { return Quiz("Mitosis", []string{"spindle"}, "ctx", structured.TaxonomyLevels).UserPrompt },
			contains: []string{"<focus_terms>\nspindle\n</focus_terms>", "Remembering, Understanding, Applying, Analyzing, Evaluating", "exactly 5"},
		},
		{
			name:     "structured answer asks for sections",
			build:    func() string { return Answer("What is mitosis?", "[note:1]\nx", true, false).UserPrompt },
			contains: []string{"<user_question>\nWhat is mitosis?\n</user_question>", `"key_points"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.build()
			for _, s := range tt.contains {
				assert.Contains(t, got, s)
			}
		})
	}
}

func TestAnswer_PlainAndStreaming(t *testing.T) {
	req := Answer("q", "ctx", false, true)
	assert.True(t, req.Streaming)
	assert.NotContains(t, req.UserPrompt, "output_format")
	assert.NotEmpty(t, req.SystemInstruction)
	assert.True(t, strings.HasPrefix(req.Prompt(), "SYSTEM:\n"))
}
