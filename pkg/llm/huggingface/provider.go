package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ai-study-assistant-be/pkg/llm"
)

const DefaultBaseURL = "https://router.huggingface.co/v1"

// HuggingFaceProvider talks to either the OpenAI-compatible router or a classic
// inference endpoint (a base URL containing "/models/").
type HuggingFaceProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

var _ llm.LLMProvider = &HuggingFaceProvider{}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens,omitempty"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	GeneratedText string `json:"generated_text"`
	Error         any    `json:"error,omitempty"`
}

func NewHuggingFaceProvider(apiKey, baseURL, model string) *HuggingFaceProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HuggingFaceProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  &http.Client{},
	}
}

func (p *HuggingFaceProvider) Name() string {
	return "huggingface"
}

func (p *HuggingFaceProvider) inferenceMode() bool {
	return strings.Contains(p.baseURL, "/models/")
}

func (p *HuggingFaceProvider) buildRequest(prompt string, opts llm.Options) (string, []byte, error) {
	if p.inferenceMode() {
		body, err := json.Marshal(inferenceRequest{
			Inputs: prompt,
			Parameters: inferenceParameters{
				MaxNewTokens: opts.MaxTokens,
				Temperature:  opts.Temperature,
			},
		})
		return p.baseURL, body, err
	}

	model := p.model
	if opts.Model != "" {
		model = opts.Model
	}
	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
	return p.baseURL + "/chat/completions", body, err
}

// ParseResponse accepts the router shape (choices), the inference array shape
// ([{"generated_text"}]) and the single-object inference shape.
func ParseResponse(body []byte) (string, error) {
	trimmed := bytes.TrimSpace(body)

	var text string
	if bytes.HasPrefix(trimmed, []byte("[")) {
		var items []chatResponse
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return "", fmt.Errorf("failed to decode response: %w", err)
		}
		if len(items) > 0 {
			text = items[0].GeneratedText
		}
	} else {
		var resp chatResponse
		if err := json.Unmarshal(trimmed, &resp); err != nil {
			return "", fmt.Errorf("failed to decode response: %w", err)
		}
		if resp.Error != nil {
			return "", fmt.Errorf("huggingface api returned error: %v", resp.Error)
		}
		if len(resp.Choices) > 0 {
			text = resp.Choices[0].Message.Content
		} else {
			text = resp.GeneratedText
		}
	}

	if strings.TrimSpace(text) == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

func (p *HuggingFaceProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	opts := llm.ApplyOptions(append([]llm.Option{llm.WithMaxTokens(500)}, options...)...)

	url, payload, err := p.buildRequest(prompt, opts)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("huggingface api error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	return ParseResponse(bodyBytes)
}
