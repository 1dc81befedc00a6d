package scoring

import (
	"sort"
	"strings"
)

// DefaultStopWords covers the English and Indonesian filler our users type into questions.
var DefaultStopWords = []string{
	"the", "a", "an", "is", "are", "was", "were", "be", "been", "and", "or", "but",
	"what", "which", "who", "whom", "when", "where", "why", "how", "does", "did", "do",
	"my", "your", "our", "their", "i", "me", "you", "we", "they", "it", "its",
	"this", "that", "these", "those", "of", "in", "on", "at", "to", "for", "with",
	"from", "about", "into", "can", "could", "should", "would", "will", "please",
	"explain", "tell", "describe", "give", "some", "any", "there", "here", "than", "then",
	"apa", "yang", "saya", "aku", "kamu", "ini", "itu", "di", "ke", "dari",
	"untuk", "dengan", "adalah", "ada", "sudah", "udah", "ya", "dong", "nih",
	"bagaimana", "mengapa", "kenapa", "jelaskan",
}

type StopList map[string]bool

func NewStopList(words []string) StopList {
	s := make(StopList, len(words))
	for _, w := range words {
		s[strings.ToLower(strings.TrimSpace(w))] = true
	}
	return s
}

// ExtractKeywords pulls content words out of a free-form question, in order of appearance.
func (s StopList) ExtractKeywords(question string) []string {
	seen := make(map[string]bool)
	keywords := make([]string, 0)
	for _, word := range strings.Fields(strings.ToLower(question)) {
		word = strings.Trim(word, ".,?!;:\"'()[]{}")
		if len(word) <= 2 || s[word] || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
	}
	return keywords
}

// TopTerms returns the n most frequent significant words that are not stop words.
// Ties keep first-appearance order.
func (s StopList) TopTerms(paragraphs []string, n int) []string {
	freq := make(map[string]int)
	order := make([]string, 0)
	for _, p := range paragraphs {
		for _, w := range SignificantWords(p) {
			if s[w] {
				continue
			}
			if freq[w] == 0 {
				order = append(order, w)
			}
			freq[w]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})
	if n < len(order) {
		order = order[:n]
	}
	return order
}
