package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned by adapters when the backend answered with no text.
var ErrEmptyResponse = errors.New("llm: empty response")

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// ApplyOptions resolves opts over the adapter defaults.
func ApplyOptions(opts ...Option) Options {
	options := Options{Temperature: 0.7}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// LLMProvider is one text-generation backend. Implementations map their own
// response shape to plain text and return ErrEmptyResponse rather than "".
type LLMProvider interface {
	Name() string
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}

// StreamingProvider delivers text incrementally. The fragment channel is closed when
// the response ends; at most one error is sent. Cancelling ctx must abort the
// underlying request.
type StreamingProvider interface {
	LLMProvider
	Stream(ctx context.Context, prompt string, options ...Option) (<-chan string, <-chan error)
}
