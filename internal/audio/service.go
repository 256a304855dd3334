package audio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/vilisasu/bibleai-api/internal/generation"
)

// MaxTextLength is the longest text accepted for synthesis, in characters.
const MaxTextLength = 10000

// ClipRecorder counts stored clips.
type ClipRecorder interface {
	RecordAudioClip(ctx context.Context, store string)
}

// Service generates and serves audio clips.
type Service struct {
	synth    generation.Synthesizer
	store    Store
	logger   *slog.Logger
	recorder ClipRecorder
	newID    func() uuid.UUID
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithClipRecorder attaches a metrics recorder.
func WithClipRecorder(r ClipRecorder) ServiceOption {
	return func(s *Service) { s.recorder = r }
}

// NewService creates a Service.
func NewService(synth generation.Synthesizer, store Store, logger *slog.Logger, opts ...ServiceOption) (*Service, error) {
	if synth == nil {
		return nil, fmt.Errorf("%w: synthesizer is required", generation.ErrInvalidConfig)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: audio store is required", generation.ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		synth:  synth,
		store:  store,
		logger: logger.With("component", "audio_service", "store", store.Name()),
		newID:  uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Generate synthesizes text and returns the id of the stored clip.
func (s *Service) Generate(ctx context.Context, text string) (uuid.UUID, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return uuid.Nil, fmt.Errorf("%w: text is required", ErrInvalidText)
	}
	if n := utf8.RuneCountInString(text); n > MaxTextLength {
		return uuid.Nil, fmt.Errorf("%w: %d characters exceeds the limit of %d", ErrInvalidText, n, MaxTextLength)
	}

	data, err := s.synth.Synthesize(ctx, text)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to synthesize audio: %w", err)
	}

	id := s.newID()
	if err := s.store.Put(ctx, id.String(), data); err != nil {
		return uuid.Nil, fmt.Errorf("failed to store audio clip: %w", err)
	}
	if s.recorder != nil {
		s.recorder.RecordAudioClip(ctx, s.store.Name())
	}

	s.logger.InfoContext(ctx, "audio clip generated",
		"clip_id", id.String(),
		"text_length", len(text),
		"audio_bytes", len(data))
	return id, nil
}

// Fetch returns the clip for id. Malformed ids are reported as missing.
func (s *Service) Fetch(ctx context.Context, id string) ([]byte, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed id", ErrClipNotFound)
	}
	data, err := s.store.Get(ctx, parsed.String())
	if err != nil {
		return nil, err
	}
	return data, nil
}
