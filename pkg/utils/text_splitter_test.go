package utils

import (
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunkTexts(text string, maxChars int) []string {
	chunks := ChunkText(text, maxChars)
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

func TestChunkText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxChars int
		want     []string
	}{
		{"flush before overflow", "AAAA\n\nBBBB", 6, []string{"AAAA", "BBBB"}},
		{"fits together", "AAAA\n\nBBBB", 10, []string{"AAAA\n\nBBBB"}},
		{"empty", "", 10, nil},
		{"whitespace only", " \n\n \n", 10, nil},
		{"oversized paragraph alone", "AB\n\nCCCCCCCCCC\n\nDE", 5, []string{"AB", "CCCCCCCCCC", "DE"}},
		{"unbounded", "one\n\ntwo\n\nthree", 0, []string{"one\n\ntwo\n\nthree"}},
		{"line breaks inside a paragraph stay", "line one\nline two\n\nnext", 100, []string{"line one\nline two\n\nnext"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chunkTexts(tt.text, tt.maxChars)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChunkText_IdsAndBound(t *testing.T) {
	var paragraphs []string
	for i := 0; i < 40; i++ {
		paragraphs = append(paragraphs, strings.Repeat("é", 10+i*7))
	}
	text := strings.Join(paragraphs, "\n\n")
	maxChars := 120

	chunks := ChunkText(text, maxChars)
	require.NotEmpty(t, chunks)

	oversized := 0
	for i, c := range chunks {
		assert.Equal(t, i, c.Position)
		assert.Equal(t, "chunk-"+strconv.Itoa(i), c.ID)
		if utf8.RuneCountInString(c.Text) > maxChars {
			oversized++
			assert.NotContains(t, c.Text, "\n\n", "only a lone paragraph may exceed the bound")
		}
	}
	assert.Greater(t, oversized, 0)

	// Nothing lost.
	var rebuilt []string
	for _, c := range chunks {
		rebuilt = append(rebuilt, c.Text)
	}
	assert.Equal(t, text, strings.Join(rebuilt, "\n\n"))
}

func TestSplitText(t *testing.T) {
	assert.Equal(t, []string{"short"}, SplitText("short", 10, 2))
	assert.Equal(t, []string{"abcd", "cdef", "efgh"}, SplitText("abcdefgh", 4, 2))
	assert.Equal(t, []string{"abc", "def", "g"}, SplitText("abcdefg", 3, 5))
}
