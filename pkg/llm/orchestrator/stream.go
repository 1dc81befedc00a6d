package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"ai-study-assistant-be/pkg/apperror"
	"ai-study-assistant-be/pkg/llm"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Stream relays primary fragments to sink as they arrive and returns the
// accumulated text. Only the primary streams. If it fails before the first
// fragment, the secondary is called in blocking mode and its text is delivered
// as one fragment. After the first fragment a failure ends the stream with
// ErrStreamInterrupted.
func (o *Orchestrator) Stream(ctx context.Context, req llm.GenerationRequest, sink Sink, opts ...llm.Option) (*llm.GenerationResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	sp, ok := o.primary.(llm.StreamingProvider)
	if !ok {
		res, err := o.Generate(ctx, req, opts...)
		if err != nil {
			return nil, err
		}
		if err := sink(res.Text); err != nil {
			return nil, &consumerGoneError{err: err}
		}
		return res, nil
	}

	prompt := req.Prompt()
	text, delivered, err := o.relay(ctx, sp, prompt, sink, opts)
	if err == nil {
		return &llm.GenerationResult{Text: text, ProviderUsed: llm.TierPrimary}, nil
	}
	if isConsumerGone(err) {
		return nil, err
	}

	if delivered {
		o.logger.Error(module, "Primary stream failed after partial delivery", map[string]interface{}{
			"provider":        sp.Name(),
			"delivered_chars": len(text),
			"error":           err,
		})
		return nil, apperror.Wrap(apperror.KindProvider, "stream interrupted",
			fmt.Errorf("%w: %v", ErrStreamInterrupted, err))
	}

	res, err := o.fallback(ctx, prompt, err, opts)
	if err != nil {
		return nil, err
	}
	if err := sink(res.Text); err != nil {
		return nil, &consumerGoneError{err: err}
	}
	return res, nil
}

type consumerGoneError struct{ err error }

func (e *consumerGoneError) Error() string { return ErrConsumerGone.Error() + ": " + e.err.Error() }
func (e *consumerGoneError) Unwrap() error { return ErrConsumerGone }

func isConsumerGone(err error) bool {
	_, ok := err.(*consumerGoneError)
	return ok
}

// relay reports whether any fragment reached the sink.
func (o *Orchestrator) relay(ctx context.Context, sp llm.StreamingProvider, prompt string, sink Sink, opts []llm.Option) (string, bool, error) {
	ctx, span := o.tracer.Start(ctx, "llm.stream", trace.WithAttributes(
		attribute.String("llm.tier", string(llm.TierPrimary)),
		attribute.String("llm.provider", sp.Name()),
	))
	defer span.End()

	streamCtx, cancel := o.withTimeout(ctx)
	defer cancel()

	frags, errs := sp.Stream(streamCtx, prompt, opts...)

	var (
		sb        strings.Builder
		delivered bool
		streamErr error
	)
	for frags != nil || errs != nil {
		select {
		case f, ok := <-frags:
			if !ok {
				frags = nil
				continue
			}
			if f == "" {
				continue
			}
			if err := sink(f); err != nil {
				cancel()
				drain(frags, errs)
				span.SetStatus(codes.Error, "consumer gone")
				return sb.String(), delivered, &consumerGoneError{err: err}
			}
			delivered = true
			sb.WriteString(f)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil && streamErr == nil {
				streamErr = err
			}
		}
	}

	if streamErr == nil && strings.TrimSpace(sb.String()) == "" {
		streamErr = llm.ErrEmptyResponse
	}
	if streamErr != nil {
		span.RecordError(streamErr)
		span.SetStatus(codes.Error, streamErr.Error())
		return sb.String(), delivered, streamErr
	}
	span.SetAttributes(attribute.Int("llm.response_chars", sb.Len()))
	return sb.String(), delivered, nil
}

func drain(frags <-chan string, errs <-chan error) {
	if frags != nil {
		for range frags {
		}
	}
	if errs != nil {
		for range errs {
		}
	}
}
