package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"ai-study-assistant-be/pkg/store"
)

var paragraphBreakRe = regexp.MustCompile(`\n[ \t]*\n`)

const paragraphJoin = "\n\n"

// ChunkText groups blank-line separated paragraphs into chunks of at most maxChars
// runes. Paragraphs are never split: one longer than maxChars becomes its own chunk.
// maxChars <= 0 disables the bound.
func ChunkText(text string, maxChars int) []store.Chunk {
	var (
		chunks  []store.Chunk
		current strings.Builder
		size    int
	)

	flush := func() {
		if size == 0 {
			return
		}
		pos := len(chunks)
		chunks = append(chunks, store.Chunk{
			ID:       fmt.Sprintf("chunk-%d", pos),
			Text:     current.String(),
			Position: pos,
		})
		current.Reset()
		size = 0
	}

	for _, p := range paragraphBreakRe.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n := utf8.RuneCountInString(p)

		if size > 0 && maxChars > 0 && size+len(paragraphJoin)+n > maxChars {
			flush()
		}
		if size > 0 {
			current.WriteString(paragraphJoin)
			size += len(paragraphJoin)
		}
		current.WriteString(p)
		size += n
	}
	flush()

	return chunks
}

// SplitText cuts text into fixed windows of chunkSize runes overlapping by overlap.
// Used for previews where paragraph boundaries do not matter.
func SplitText(text string, chunkSize int, overlap int) []string {
	runes := []rune(text)
	if chunkSize <= 0 || len(runes) <= chunkSize {
		return []string{text}
	}

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}

	var windows []string
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end >= len(runes) {
			windows = append(windows, string(runes[start:]))
			break
		}
		windows = append(windows, string(runes[start:end]))
	}
	return windows
}
