package structured

import (
	"fmt"
	"strings"
)

// Bloom levels, one quiz question each.
var TaxonomyLevels = []string{"Remembering", "Understanding", "Applying", "Analyzing", "Evaluating"}

type QuizQuestion struct {
	Question    string   `json:"question" validate:"required"`
	Options     []string `json:"options" validate:"len=4,dive,required"`
	Answer      string   `json:"answer" validate:"required"`
	Taxonomy    string   `json:"taxonomy" validate:"oneof=Remembering Understanding Applying Analyzing Evaluating"`
	Explanation string   `json:"explanation"`
}

type Quiz struct {
	Questions []QuizQuestion `json:"questions" validate:"len=5,dive"`
}

func (q *Quiz) Normalize() {
	for i := range q.Questions {
		qq := &q.Questions[i]
		qq.Question = strings.TrimSpace(qq.Question)
		qq.Answer = strings.TrimSpace(qq.Answer)
		for _, level := range TaxonomyLevels {
			if strings.EqualFold(strings.TrimSpace(qq.Taxonomy), level) {
				qq.Taxonomy = level
			}
		}
	}
}

func (q Quiz) Validate() error {
	seen := make(map[string]bool, len(q.Questions))
	for i, qq := range q.Questions {
		if seen[qq.Taxonomy] {
			return fmt.Errorf("question %d repeats taxonomy level %s", i+1, qq.Taxonomy)
		}
		seen[qq.Taxonomy] = true

		found := false
		for _, opt := range qq.Options {
			if strings.EqualFold(strings.TrimSpace(opt), qq.Answer) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("question %d: answer is not one of the options", i+1)
		}
	}
	return nil
}

// StudyUnit is one battle unit: a topic with its markdown notes.
type StudyUnit struct {
	Topic   string `json:"topic" validate:"required"`
	Content string `json:"content" validate:"required"`
}

type Synthesis struct {
	Units []StudyUnit `json:"units" validate:"min=1,dive"`
}

func SynthesisFallback(mergedNotes string) Synthesis {
	return Synthesis{Units: []StudyUnit{{Topic: "Study Notes", Content: mergedNotes}}}
}

type OutlineTopic struct {
	Topic          string   `json:"topic" validate:"required"`
	RelevantChunks []string `json:"relevant_chunks"`
}

type Outline struct {
	Outline []OutlineTopic `json:"outline" validate:"min=1,dive"`
}

func OutlineFallback(chunkIDs []string) Outline {
	ids := make([]string, len(chunkIDs))
	copy(ids, chunkIDs)
	return Outline{Outline: []OutlineTopic{{Topic: "Overview", RelevantChunks: ids}}}
}

// AnswerSections is the optional structured shape of an answer.
type AnswerSections struct {
	Answer    string   `json:"answer" validate:"required"`
	KeyPoints []string `json:"key_points"`
}

func AnswerFallback(raw string) AnswerSections {
	return AnswerSections{Answer: strings.TrimSpace(raw)}
}
