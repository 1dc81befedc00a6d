package llm

import (
	"context"
	"sync"
)

// MockProvider is a scripted backend for tests.
type MockProvider struct {
	ProviderName string
	// GenerateFunc takes precedence over Response/Err when set.
	GenerateFunc func(ctx context.Context, prompt string) (string, error)
	Response     string
	Err          error

	// Fragments are streamed in order; StreamErr is sent after them.
	Fragments []string
	StreamErr error

	mu      sync.Mutex
	prompts []string
	streams int
}

var _ StreamingProvider = (*MockProvider)(nil)

func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

func (m *MockProvider) Generate(ctx context.Context, prompt string, _ ...Option) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

func (m *MockProvider) Stream(ctx context.Context, prompt string, _ ...Option) (<-chan string, <-chan error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.streams++
	m.mu.Unlock()

	out := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		for _, f := range m.Fragments {
			select {
			case out <- f:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
		if m.StreamErr != nil {
			errCh <- m.StreamErr
		}
	}()

	return out, errCh
}

func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func (m *MockProvider) StreamCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streams
}

func (m *MockProvider) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
