// Package prompt assembles the system/user pairs for every generation pass.
package prompt

import (
	"fmt"
	"strings"

	"ai-study-assistant-be/pkg/llm"
	"ai-study-assistant-be/pkg/store"
)

const tutorPersona = "You are a patient study tutor helping a student learn from their own material."

func section(b *strings.Builder, tag, body string) {
	b.WriteString("<" + tag + ">\n")
	b.WriteString(strings.TrimSpace(body))
	b.WriteString("\n</" + strings.Fields(tag)[0] + ">\n\n")
}

func request(system string, user *strings.Builder, streaming bool) llm.GenerationRequest {
	return llm.GenerationRequest{
		SystemInstruction: system,
		UserPrompt:        strings.TrimSpace(user.String()),
		Streaming:         streaming,
	}
}

// Extraction asks for the key facts of one chunk as markdown notes.
func Extraction(chunk store.Chunk) llm.GenerationRequest {
	var b strings.Builder
	section(&b, "material id=\""+chunk.ID+"\"", chunk.Text)
	b.WriteString("<task>\n")
	b.WriteString("Extract the key concepts, definitions, facts and examples from the material above.\n")
	b.WriteString("- Write concise markdown bullet points grouped under short headings\n")
	b.WriteString("- Keep terminology exactly as it appears in the material\n")
	b.WriteString("- Do not add information that is not in the material\n")
	b.WriteString("</task>")

	return request(tutorPersona+" You turn raw course material into clean study notes.", &b, false)
}

// Synthesis merges per-chunk notes into battle units.
func Synthesis(mergedNotes string) llm.GenerationRequest {
	var b strings.Builder
	section(&b, "notes", mergedNotes)
	b.WriteString("<task>\n")
	b.WriteString("Organise the notes above into a small number of self-contained study topics.\n")
	b.WriteString("Each topic must have a short title and markdown content that a student can revise from.\n")
	b.WriteString("</task>\n\n")
	b.WriteString("<output_format>\n")
	b.WriteString(`Respond with JSON only: {"units":[{"topic":"...","content":"..."}]}`)
	b.WriteString("\n</output_format>")

	return request(tutorPersona+" You always answer with valid JSON.", &b, false)
}

// Outline maps synthesized topics back onto source chunk ids.
func Outline(units []string, chunks []store.Chunk) llm.GenerationRequest {
	var b strings.Builder
	b.WriteString("<topics>\n")
	for i, u := range units {
		fmt.Fprintf(&b, "%d. %s\n", i+1, u)
	}
	b.WriteString("</topics>\n\n")

	b.WriteString("<chunks>\n")
	for _, c := range chunks {
		fmt.Fprintf(&b, "[%s] %s\n", c.ID, preview(c.Text, 300))
	}
	b.WriteString("</chunks>\n\n")

	b.WriteString("<task>\n")
	b.WriteString("Build a study outline: for every topic list the ids of the chunks that cover it.\n")
	b.WriteString("</task>\n\n")
	b.WriteString("<output_format>\n")
	b.WriteString(`Respond with JSON only: {"outline":[{"topic":"...","relevant_chunks":["chunk-1"]}]}`)
	b.WriteString("\n</output_format>")

	return request(tutorPersona+" You always answer with valid JSON.", &b, false)
}

// Quiz asks for five multiple-choice questions, one per Bloom level.
func Quiz(topic string, focus []string, context string, levels []string) llm.GenerationRequest {
	var b strings.Builder
	section(&b, "topic", topic)
	if len(focus) > 0 {
		section(&b, "focus_terms", strings.Join(focus, ", "))
	}
	section(&b, "material", context)
	b.WriteString("<task>\n")
	b.WriteString("Write exactly 5 multiple-choice questions about the topic, based only on the material.\n")
	fmt.Fprintf(&b, "Use each Bloom taxonomy level exactly once: %s.\n", strings.Join(levels, ", "))
	b.WriteString("Every question has 4 options and the answer must be copied verbatim from the options.\n")
	b.WriteString("</task>\n\n")
	b.WriteString("<output_format>\n")
	b.WriteString(`Respond with JSON only: {"questions":[{"question":"...","options":["...","...","...","..."],"answer":"...","taxonomy":"Remembering","explanation":"..."}]}`)
	b.WriteString("\n</output_format>")

	return request(tutorPersona+" You write fair exam questions and always answer with valid JSON.", &b, false)
}

// Answer grounds a question in the selected context.
func Answer(question, context string, structured, streaming bool) llm.GenerationRequest {
	var b strings.Builder
	section(&b, "reference_material", context)

	b.WriteString("<guidelines>\n")
	b.WriteString("1. Base your answer strictly on the reference material provided\n")
	b.WriteString("2. Passages are tagged [kind:id]; prefer note passages when sources disagree\n")
	b.WriteString("3. If the material doesn't contain what's being asked, say so honestly\n")
	b.WriteString("</guidelines>\n\n")

	section(&b, "user_question", question)

	if structured {
		b.WriteString("<output_format>\n")
		b.WriteString(`Respond with JSON only: {"answer":"...","key_points":["..."]}`)
		b.WriteString("\n</output_format>")
	} else {
		b.WriteString("Now provide your complete response based on the reference material:")
	}

	return request(tutorPersona, &b, streaming)
}

func preview(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
