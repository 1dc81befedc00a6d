package factory

import (
	"testing"

	"ai-study-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	tests := []struct {
		name      string
		cfg       ProviderConfig
		wantName  string
		streaming bool
		wantErr   bool
	}{
		{"ollama", ProviderConfig{Type: "ollama", Model: "llama3"}, "ollama", true, false},
		{"openai upper case", ProviderConfig{Type: "OpenAI", APIKey: "sk"}, "openai", true, false},
		{"huggingface", ProviderConfig{Type: "hf", APIKey: "hf_x"}, "huggingface", false, false},
		{"huggingface without key", ProviderConfig{Type: "huggingface"}, "", false, true},
		{"gemini", ProviderConfig{Type: "gemini", APIKey: "g"}, "gemini", false, false},
		{"unknown", ProviderConfig{Type: "bard"}, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewLLMProvider(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
			_, ok := p.(llm.StreamingProvider)
			assert.Equal(t, tt.streaming, ok)
		})
	}
}
