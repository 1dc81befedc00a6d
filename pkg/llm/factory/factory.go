package factory

import (
	"fmt"
	"strings"

	"ai-study-assistant-be/pkg/llm"
	"ai-study-assistant-be/pkg/llm/gemini"
	"ai-study-assistant-be/pkg/llm/huggingface"
	"ai-study-assistant-be/pkg/llm/ollama"
	"ai-study-assistant-be/pkg/llm/openai"
)

type ProviderConfig struct {
	Type    string // "ollama", "openai", "huggingface", "gemini"
	Model   string
	BaseURL string
	APIKey  string
}

func NewLLMProvider(cfg ProviderConfig) (llm.LLMProvider, error) {
	switch strings.ToLower(cfg.Type) {
	case "ollama":
		return ollama.NewOllamaProvider(cfg.BaseURL, cfg.Model), nil
	case "openai":
		return openai.NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "huggingface", "hf":
		if cfg.APIKey == "" && cfg.BaseURL == "" {
			return nil, fmt.Errorf("huggingface provider requires an API key")
		}
		return huggingface.NewHuggingFaceProvider(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		return gemini.NewGeminiProvider(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Type)
	}
}
