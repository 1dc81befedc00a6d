package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ai-study-assistant-be/internal/pkg/logger"
	"ai-study-assistant-be/pkg/apperror"
	"ai-study-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNetwork = errors.New("dial tcp 127.0.0.1:11434: connect: connection refused")

func newOrchestrator(primary, secondary llm.LLMProvider, opts ...Option) *Orchestrator {
	return New(primary, secondary, logger.NewNopLogger(), opts...)
}

func req() llm.GenerationRequest {
	return llm.GenerationRequest{SystemInstruction: "Answer briefly.", UserPrompt: "Capital of France?"}
}

func TestGenerate_PrimarySuccessNeverCallsSecondary(t *testing.T) {
	primary := &llm.MockProvider{Response: "Paris"}
	secondary := &llm.MockProvider{Response: "Lyon"}

	res, err := newOrchestrator(primary, secondary).Generate(context.Background(), req())
	require.NoError(t, err)

	assert.Equal(t, "Paris", res.Text)
	assert.Equal(t, llm.TierPrimary, res.ProviderUsed)
	assert.Equal(t, 0, secondary.Calls())
	assert.Equal(t, []string{"SYSTEM:\nAnswer briefly.\n\nUSER:\nCapital of France?\n\nASSISTANT:\n"}, primary.Prompts())
}

func TestGenerate_Fallback(t *testing.T) {
	tests := []struct {
		name    string
		primary *llm.MockProvider
	}{
		{"network error", &llm.MockProvider{Err: errNetwork}},
		{"empty text", &llm.MockProvider{Response: "  \n"}},
		{"empty response error", &llm.MockProvider{Err: llm.ErrEmptyResponse}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secondary := &llm.MockProvider{Response: "Paris"}

			res, err := newOrchestrator(tt.primary, secondary).Generate(context.Background(), req())
			require.NoError(t, err)
			assert.Equal(t, "Paris", res.Text)
			assert.Equal(t, llm.TierSecondary, res.ProviderUsed)
			assert.Equal(t, 1, tt.primary.Calls())
			assert.Equal(t, 1, secondary.Calls())
		})
	}
}

func TestGenerate_TerminalFailure(t *testing.T) {
	primary := &llm.MockProvider{Err: errNetwork}
	secondary := &llm.MockProvider{Err: errors.New("status 503")}

	res, err := newOrchestrator(primary, secondary).Generate(context.Background(), req())
	assert.Nil(t, res)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllProvidersUnavailable)
	assert.Equal(t, apperror.KindUnavailable, apperror.KindOf(err))
	assert.Equal(t, 1, primary.Calls())
	assert.Equal(t, 1, secondary.Calls())
}

func TestGenerate_NoSecondary(t *testing.T) {
	_, err := newOrchestrator(&llm.MockProvider{Err: errNetwork}, nil).Generate(context.Background(), req())
	assert.ErrorIs(t, err, ErrAllProvidersUnavailable)
}

func TestGenerate_EmptyPromptIsValidationError(t *testing.T) {
	primary := &llm.MockProvider{Response: "x"}
	_, err := newOrchestrator(primary, nil).Generate(context.Background(), llm.GenerationRequest{UserPrompt: "  "})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Equal(t, 0, primary.Calls())
}

func TestGenerate_CallTimeoutFallsBack(t *testing.T) {
	primary := &llm.MockProvider{GenerateFunc: func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	secondary := &llm.MockProvider{Response: "Paris"}

	res, err := newOrchestrator(primary, secondary, WithCallTimeout(20*time.Millisecond)).Generate(context.Background(), req())
	require.NoError(t, err)
	assert.Equal(t, llm.TierSecondary, res.ProviderUsed)
}

func TestGenerate_CallerCancelledSkipsSecondary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	primary := &llm.MockProvider{GenerateFunc: func(ctx context.Context, _ string) (string, error) {
		cancel()
		return "", ctx.Err()
	}}
	secondary := &llm.MockProvider{Response: "Paris"}

	_, err := newOrchestrator(primary, secondary).Generate(ctx, req())
	require.Error(t, err)
	assert.Equal(t, 0, secondary.Calls())
}

type collector struct {
	frags []string
}

func (c *collector) sink(f string) error {
	c.frags = append(c.frags, f)
	return nil
}

func TestStream_RelaysPrimaryFragments(t *testing.T) {
	primary := &llm.MockProvider{Fragments: []string{"Pa", "", "ris"}}
	secondary := &llm.MockProvider{Response: "Lyon"}
	c := &collector{}

	res, err := newOrchestrator(primary, secondary).Stream(context.Background(), req(), c.sink)
	require.NoError(t, err)

	assert.Equal(t, []string{"Pa", "ris"}, c.frags)
	assert.Equal(t, "Paris", res.Text)
	assert.Equal(t, llm.TierPrimary, res.ProviderUsed)
	assert.Equal(t, 0, secondary.Calls())
}

func TestStream_FailureBeforeFirstFragmentFallsBack(t *testing.T) {
	primary := &llm.MockProvider{StreamErr: errNetwork}
	secondary := &llm.MockProvider{Response: "Paris"}
	c := &collector{}

	res, err := newOrchestrator(primary, secondary).Stream(context.Background(), req(), c.sink)
	require.NoError(t, err)

	assert.Equal(t, []string{"Paris"}, c.frags)
	assert.Equal(t, llm.TierSecondary, res.ProviderUsed)
	assert.Equal(t, 1, secondary.Calls())
	assert.Equal(t, 0, secondary.StreamCalls(), "secondary is only called in blocking mode")
}

func TestStream_WhitespaceOnlyStreamIsNotReplayed(t *testing.T) {
	primary := &llm.MockProvider{Fragments: []string{" "}}
	secondary := &llm.MockProvider{Response: "Paris"}
	c := &collector{}

	res, err := newOrchestrator(primary, secondary).Stream(context.Background(), req(), c.sink)
	// A whitespace fragment was already delivered, so this cannot be replayed.
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrStreamInterrupted)
	assert.Equal(t, 0, secondary.Calls())
}

func TestStream_FailureAfterDeliveryIsStreamError(t *testing.T) {
	primary := &llm.MockProvider{Fragments: []string{"Pa"}, StreamErr: errNetwork}
	secondary := &llm.MockProvider{Response: "Paris"}
	c := &collector{}

	res, err := newOrchestrator(primary, secondary).Stream(context.Background(), req(), c.sink)
	assert.Nil(t, res)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStreamInterrupted)
	assert.Equal(t, apperror.KindProvider, apperror.KindOf(err))
	assert.Equal(t, []string{"Pa"}, c.frags)
	assert.Equal(t, 0, secondary.Calls())
}

func TestStream_BothFail(t *testing.T) {
	primary := &llm.MockProvider{StreamErr: errNetwork}
	secondary := &llm.MockProvider{Err: errNetwork}

	_, err := newOrchestrator(primary, secondary).Stream(context.Background(), req(), (&collector{}).sink)
	assert.ErrorIs(t, err, ErrAllProvidersUnavailable)
}

// hangingStreamer sends one fragment and then waits for cancellation.
type hangingStreamer struct {
	cancelled chan struct{}
}

func (h *hangingStreamer) Name() string { return "hanging" }

func (h *hangingStreamer) Generate(ctx context.Context, _ string, _ ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (h *hangingStreamer) Stream(ctx context.Context, _ string, _ ...llm.Option) (<-chan string, <-chan error) {
	out := make(chan string)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		select {
		case out <- "first":
		case <-ctx.Done():
		}
		<-ctx.Done()
		close(h.cancelled)
		errCh <- ctx.Err()
	}()
	return out, errCh
}

func TestStream_SinkErrorCancelsBackend(t *testing.T) {
	primary := &hangingStreamer{cancelled: make(chan struct{})}
	secondary := &llm.MockProvider{Response: "Paris"}
	gone := errors.New("websocket closed")

	_, err := newOrchestrator(primary, secondary).Stream(context.Background(), req(), func(string) error { return gone })
	assert.ErrorIs(t, err, ErrConsumerGone)
	assert.Equal(t, 0, secondary.Calls())

	select {
	case <-primary.cancelled:
	case <-time.After(time.Second):
		t.Fatal("backend context was not cancelled")
	}
}

func TestStream_CallerCancellationStopsBackend(t *testing.T) {
	primary := &hangingStreamer{cancelled: make(chan struct{})}
	secondary := &llm.MockProvider{Response: "Paris"}
	ctx, cancel := context.WithCancel(context.Background())

	var got []string
	_, err := newOrchestrator(primary, secondary).Stream(ctx, req(), func(f string) error {
		got = append(got, f)
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, ErrStreamInterrupted)
	assert.Equal(t, []string{"first"}, got)
	assert.Equal(t, 0, secondary.Calls())
	<-primary.cancelled
}

func TestStream_NonStreamingPrimaryDeliversOneFragment(t *testing.T) {
	var primary llm.LLMProvider = struct{ llm.LLMProvider }{&llm.MockProvider{Response: "Paris is the capital."}}
	_, streams := primary.(llm.StreamingProvider)
	require.False(t, streams)

	c := &collector{}
	res, err := newOrchestrator(primary, nil).Stream(context.Background(), req(), c.sink)
	require.NoError(t, err)
	assert.Equal(t, []string{"Paris is the capital."}, c.frags)
	assert.True(t, strings.HasPrefix(res.Text, "Paris"))
}
