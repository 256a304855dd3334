package observe

import (
	"context"
	"errors"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/vilisasu/bibleai-api/internal/generation"
)

// InstrumentedCompleter wraps a Completer with a span and a latency metric.
type InstrumentedCompleter struct {
	next     generation.Completer
	provider string
	metrics  *Metrics
}

// InstrumentCompleter decorates next. provider labels the metric, e.g. "openai".
func InstrumentCompleter(next generation.Completer, provider string, m *Metrics) *InstrumentedCompleter {
	return &InstrumentedCompleter{next: next, provider: provider, metrics: m}
}

// Complete implements generation.Completer.
func (c *InstrumentedCompleter) Complete(
	ctx context.Context,
	req generation.CompletionRequest,
) (*generation.CompletionResponse, error) {
	ctx, span := StartSpan(ctx, "ai.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", c.provider),
		attribute.Int("ai.max_tokens", req.MaxTokens),
	)

	start := time.Now()
	resp, err := c.next.Complete(ctx, req)
	c.metrics.RecordCompletion(ctx, c.provider, "complete", statusOf(err), time.Since(start))

	if err != nil {
		span.SetStatus(codes.Error, statusOf(err))
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("ai.usage.prompt_tokens", resp.Usage.PromptTokens),
		attribute.Int("ai.usage.completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp, nil
}

// InstrumentedTranscriber wraps a Transcriber with a span and a latency metric.
type InstrumentedTranscriber struct {
	next     generation.Transcriber
	provider string
	metrics  *Metrics
}

// InstrumentTranscriber decorates next.
func InstrumentTranscriber(next generation.Transcriber, provider string, m *Metrics) *InstrumentedTranscriber {
	return &InstrumentedTranscriber{next: next, provider: provider, metrics: m}
}

// Transcribe implements generation.Transcriber.
func (t *InstrumentedTranscriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	ctx, span := StartSpan(ctx, "ai.transcribe")
	defer span.End()
	span.SetAttributes(attribute.String("ai.provider", t.provider))

	start := time.Now()
	text, err := t.next.Transcribe(ctx, filename, audio)
	t.metrics.RecordCompletion(ctx, t.provider, "transcribe", statusOf(err), time.Since(start))
	if err != nil {
		span.SetStatus(codes.Error, statusOf(err))
	}
	return text, err
}

// InstrumentedSynthesizer wraps a Synthesizer with a span and a latency metric.
type InstrumentedSynthesizer struct {
	next     generation.Synthesizer
	provider string
	metrics  *Metrics
}

// InstrumentSynthesizer decorates next.
func InstrumentSynthesizer(next generation.Synthesizer, provider string, m *Metrics) *InstrumentedSynthesizer {
	return &InstrumentedSynthesizer{next: next, provider: provider, metrics: m}
}

// Synthesize implements generation.Synthesizer.
func (s *InstrumentedSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	ctx, span := StartSpan(ctx, "ai.synthesize")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", s.provider),
		attribute.Int("ai.text_length", len(text)),
	)

	start := time.Now()
	audio, err := s.next.Synthesize(ctx, text)
	s.metrics.RecordCompletion(ctx, s.provider, "synthesize", statusOf(err), time.Since(start))
	if err != nil {
		span.SetStatus(codes.Error, statusOf(err))
	}
	return audio, err
}

// statusOf maps an error onto a low-cardinality label.
func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, generation.ErrContentBlocked):
		return "blocked"
	case errors.Is(err, generation.ErrInvalidResponse):
		return "invalid_response"
	case errors.Is(err, generation.ErrBackendUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
