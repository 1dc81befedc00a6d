// Package orchestrator runs a generation request against a primary backend and
// falls back to a secondary one. There is no retry and no third tier.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-study-assistant-be/internal/pkg/logger"
	"ai-study-assistant-be/pkg/apperror"
	"ai-study-assistant-be/pkg/llm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const module = "LLMOrchestrator"

const DefaultCallTimeout = 60 * time.Second

var (
	ErrAllProvidersUnavailable = errors.New("all providers unavailable")
	// ErrStreamInterrupted means fragments already reached the caller when the
	// primary failed, so the request cannot be replayed on another backend.
	ErrStreamInterrupted = errors.New("stream interrupted after partial delivery")
	ErrConsumerGone      = errors.New("stream consumer stopped")
)

// Sink receives streamed fragments in order. Returning an error stops the stream
// and cancels the backend request.
type Sink func(fragment string) error

type Orchestrator struct {
	primary   llm.LLMProvider
	secondary llm.LLMProvider
	logger    logger.ILogger
	timeout   time.Duration
	tracer    trace.Tracer
}

type Option func(*Orchestrator)

// WithCallTimeout bounds each backend call. Zero disables the bound.
func WithCallTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeout = d
	}
}

func New(primary, secondary llm.LLMProvider, log logger.ILogger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		primary:   primary,
		secondary: secondary,
		logger:    log,
		timeout:   DefaultCallTimeout,
		tracer:    otel.Tracer("ai-study-assistant/llm"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.timeout)
}

func validate(req llm.GenerationRequest) error {
	if strings.TrimSpace(req.UserPrompt) == "" {
		return apperror.Validation("prompt is empty")
	}
	return nil
}

// Generate returns the first non-empty text of primary then secondary.
func (o *Orchestrator) Generate(ctx context.Context, req llm.GenerationRequest, opts ...llm.Option) (*llm.GenerationResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	prompt := req.Prompt()

	text, err := o.call(ctx, llm.TierPrimary, o.primary, prompt, opts)
	if err == nil {
		return &llm.GenerationResult{Text: text, ProviderUsed: llm.TierPrimary}, nil
	}
	return o.fallback(ctx, prompt, err, opts)
}

func (o *Orchestrator) call(ctx context.Context, tier llm.Tier, p llm.LLMProvider, prompt string, opts []llm.Option) (string, error) {
	ctx, span := o.tracer.Start(ctx, "llm.generate", trace.WithAttributes(
		attribute.String("llm.tier", string(tier)),
		attribute.String("llm.provider", p.Name()),
		attribute.Int("llm.prompt_chars", len(prompt)),
	))
	defer span.End()

	callCtx, cancel := o.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	text, err := p.Generate(callCtx, prompt, opts...)
	if err == nil && strings.TrimSpace(text) == "" {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	o.logger.Debug(module, "Provider call succeeded", map[string]interface{}{
		"tier":        tier,
		"provider":    p.Name(),
		"duration_ms": time.Since(start).Milliseconds(),
		"chars":       len(text),
	})
	return text, nil
}

func (o *Orchestrator) fallback(ctx context.Context, prompt string, primaryErr error, opts []llm.Option) (*llm.GenerationResult, error) {
	o.logger.Warn(module, "Primary provider failed", map[string]interface{}{
		"provider": o.primary.Name(),
		"error":    primaryErr,
	})

	if ctx.Err() != nil {
		return nil, apperror.Wrap(apperror.KindUnavailable, "request cancelled", ctx.Err())
	}
	if o.secondary == nil {
		return nil, terminal(primaryErr, errors.New("no secondary provider configured"))
	}

	text, err := o.call(ctx, llm.TierSecondary, o.secondary, prompt, opts)
	if err != nil {
		o.logger.Error(module, "Secondary provider failed", map[string]interface{}{
			"provider": o.secondary.Name(),
			"error":    err,
		})
		return nil, terminal(primaryErr, err)
	}
	return &llm.GenerationResult{Text: text, ProviderUsed: llm.TierSecondary}, nil
}

func terminal(primaryErr, secondaryErr error) error {
	return apperror.Wrap(apperror.KindUnavailable, "generation service unavailable",
		fmt.Errorf("%w: primary: %v; secondary: %v", ErrAllProvidersUnavailable, primaryErr, secondaryErr))
}
