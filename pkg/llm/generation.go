package llm

import "strings"

type Tier string

const (
	TierPrimary   Tier = "primary"
	TierSecondary Tier = "secondary"
)

type GenerationRequest struct {
	SystemInstruction string
	UserPrompt        string
	Streaming         bool
}

type GenerationResult struct {
	Text         string `json:"text"`
	ProviderUsed Tier   `json:"provider_used"`
}

// FormatPrompt renders the three-section prompt every backend receives.
func FormatPrompt(systemInstruction, userPrompt string) string {
	var b strings.Builder
	b.WriteString("SYSTEM:\n")
	b.WriteString(systemInstruction)
	b.WriteString("\n\nUSER:\n")
	b.WriteString(userPrompt)
	b.WriteString("\n\nASSISTANT:\n")
	return b.String()
}

func (r GenerationRequest) Prompt() string {
	return FormatPrompt(r.SystemInstruction, r.UserPrompt)
}
