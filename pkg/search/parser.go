package search

import (
	"strings"
)

// QueryDirectives holds the keyword directives pulled out of a question and
// the remaining clean question.
type QueryDirectives struct {
	Keywords          []string
	SecondaryKeywords []string
	Question          string
}

// ParseQuery extracts slash commands from the raw question.
// Supported:
// /kw:<term>[,<term>] OR /focus:<term> -> primary keywords
// /also:<term>[,<term>] -> secondary keywords
// <text> -> the question that is sent to the model
func ParseQuery(raw string) QueryDirectives {
	d := QueryDirectives{}
	parts := strings.Fields(raw)
	var cleanParts []string

	for _, part := range parts {
		lowerPart := strings.ToLower(part)

		if strings.HasPrefix(lowerPart, "/kw:") {
			d.Keywords = appendTerms(d.Keywords, strings.TrimPrefix(lowerPart, "/kw:"))
		} else if strings.HasPrefix(lowerPart, "/focus:") {
			// Alias for /kw:
			d.Keywords = appendTerms(d.Keywords, strings.TrimPrefix(lowerPart, "/focus:"))
		} else if strings.HasPrefix(lowerPart, "/also:") {
			d.SecondaryKeywords = appendTerms(d.SecondaryKeywords, strings.TrimPrefix(lowerPart, "/also:"))
		} else {
			cleanParts = append(cleanParts, part)
		}
	}

	d.Question = strings.Join(cleanParts, " ")
	return d
}

// HasKeywords reports whether any keyword directive was given.
func (d QueryDirectives) HasKeywords() bool {
	return len(d.Keywords) > 0 || len(d.SecondaryKeywords) > 0
}

func appendTerms(dst []string, list string) []string {
	for _, term := range strings.Split(list, ",") {
		if term = strings.TrimSpace(term); term != "" {
			dst = append(dst, term)
		}
	}
	return dst
}
