package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/vilisasu/bibleai-api/internal/chat"
	"github.com/vilisasu/bibleai-api/internal/generation"
)

// ErrInvalidAudio is returned for uploads that are too large or in an
// unsupported container.
var ErrInvalidAudio = errors.New("invalid audio upload")

// SupportedFormats lists the accepted file extensions, without the dot.
var SupportedFormats = []string{"mp3", "mp4", "wav", "m4a", "webm"}

// DefaultMaxSizeMB matches the Whisper upload limit.
const DefaultMaxSizeMB = 25

// Responder answers a transcribed question.
type Responder interface {
	AskWith(ctx context.Context, query string, p chat.Params) (*chat.Answer, error)
}

// Result is the outcome of one spoken query.
type Result struct {
	Transcription string
	Response      string
	Filename      string
}

// Info describes the transcription limits.
type Info struct {
	Model            string   `json:"model"`
	SupportedFormats []string `json:"supported_formats"`
	MaxSizeMB        int      `json:"max_size_mb"`
}

// Config tunes a Service.
type Config struct {
	Model     string
	MaxSizeMB int
}

// Service transcribes audio and answers it.
type Service struct {
	transcriber generation.Transcriber
	responder   Responder
	config      Config
	logger      *slog.Logger
}

// NewService creates a Service.
func NewService(transcriber generation.Transcriber, responder Responder, cfg Config, logger *slog.Logger) (*Service, error) {
	if transcriber == nil {
		return nil, fmt.Errorf("%w: transcriber is required", generation.ErrInvalidConfig)
	}
	if responder == nil {
		return nil, fmt.Errorf("%w: responder is required", generation.ErrInvalidConfig)
	}
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = DefaultMaxSizeMB
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		transcriber: transcriber,
		responder:   responder,
		config:      cfg,
		logger:      logger.With("component", "speech_service"),
	}, nil
}

// MaxBytes is the largest accepted upload.
func (s *Service) MaxBytes() int64 {
	return int64(s.config.MaxSizeMB) << 20
}

// Info reports the model and upload limits.
func (s *Service) Info() Info {
	return Info{
		Model:            s.config.Model,
		SupportedFormats: slices.Clone(SupportedFormats),
		MaxSizeMB:        s.config.MaxSizeMB,
	}
}

// ValidateUpload checks the file name and size.
func (s *Service) ValidateUpload(filename string, size int64) error {
	if strings.TrimSpace(filename) == "" {
		return fmt.Errorf("%w: no file provided", ErrInvalidAudio)
	}
	if size > s.MaxBytes() {
		return fmt.Errorf("%w: file too large: %.1fMB (max: %dMB)",
			ErrInvalidAudio, float64(size)/(1<<20), s.config.MaxSizeMB)
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if !slices.Contains(SupportedFormats, ext) {
		return fmt.Errorf("%w: unsupported format: %q", ErrInvalidAudio, ext)
	}
	return nil
}

// TranscribeAndRespond transcribes data and asks the chat service about it.
func (s *Service) TranscribeAndRespond(ctx context.Context, filename string, data []byte) (*Result, error) {
	if err := s.ValidateUpload(filename, int64(len(data))); err != nil {
		return nil, err
	}

	text, err := s.transcriber.Transcribe(ctx, filename, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to transcribe audio: %w", err)
	}
	s.logger.DebugContext(ctx, "audio transcribed", "filename", filename, "transcription_length", len(text))

	answer, err := s.responder.AskWith(ctx, text, chat.VoiceParams)
	if err != nil {
		return nil, fmt.Errorf("failed to answer transcription: %w", err)
	}

	return &Result{
		Transcription: text,
		Response:      answer.Text,
		Filename:      filename,
	}, nil
}
