// Package normalize cleans text produced by extraction before it is scored or chunked.
package normalize

import (
	"regexp"
	"strings"
)

var (
	hyphenBreakRe  = regexp.MustCompile(`(\p{L})-[ \t]*\n[ \t]*(\p{L})`)
	blankRunRe     = regexp.MustCompile(`\n(?:[ \t]*\n){2,}`)
	horizontalWsRe = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	lineEdgeRe     = regexp.MustCompile(`(?m)^ +| +$`)
	pageLineRe     = regexp.MustCompile(`(?mi)^[ \t]*(?:-[ \t]*)?(?:page[ \t]+)?\d+(?:[ \t]+of[ \t]+\d+)?(?:[ \t]*-)?[ \t]*$`)
	pageMarkerRe   = regexp.MustCompile(`(?i)\bpage[ \t]+\d+(?:[ \t]+of[ \t]+\d+)?\b`)
	paragraphSepRe = regexp.MustCompile(`\n[ \t]*\n`)

	lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// maxPasses bounds the fixed-point loop; every pass only shortens or keeps the text.
const maxPasses = 8

// Normalize never fails. Running it twice yields the same result.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = lineEndings.Replace(text)
	for i := 0; i < maxPasses; i++ {
		next := normalizePass(text)
		if next == text {
			break
		}
		text = next
	}
	return text
}

// normalizePass is one round of cleanup. Removing a page marker or merging a
// hyphen can expose another break, so Normalize repeats it until nothing changes.
func normalizePass(text string) string {
	text = collapseHorizontal(text)
	text = mergeHyphenBreaks(text)
	text = collapseBlankLines(text)

	// Page artifacts leave holes behind, so whitespace is collapsed again.
	text = pageLineRe.ReplaceAllString(text, "")
	text = pageMarkerRe.ReplaceAllString(text, "")
	text = collapseHorizontal(text)
	text = collapseBlankLines(text)

	return strings.TrimSpace(text)
}

// mergeHyphenBreaks rejoins words split across lines. Each match consumes the
// letter after the break, so chained splits like "a-\nb-\nc" need another round.
func mergeHyphenBreaks(text string) string {
	for {
		next := hyphenBreakRe.ReplaceAllString(text, "$1$2")
		if next == text {
			return text
		}
		text = next
	}
}

func collapseBlankLines(text string) string {
	return blankRunRe.ReplaceAllString(text, "\n\n")
}

func collapseHorizontal(text string) string {
	text = horizontalWsRe.ReplaceAllString(text, " ")
	return lineEdgeRe.ReplaceAllString(text, "")
}

// Paragraphs splits on blank-line separators and drops empty blocks.
func Paragraphs(text string) []string {
	parts := paragraphSepRe.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
