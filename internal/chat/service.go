package chat

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vilisasu/bibleai-api/internal/generation"
)

//go:embed prompts/system.txt
var systemPrompt string

// SystemPrompt returns the Bible-assistant instructions sent with every query.
func SystemPrompt() string { return systemPrompt }

// Query length limits, in characters after trimming.
const (
	MinQueryLength = 2
	MaxQueryLength = 2000
)

var (
	// ErrInvalidQuery is returned when a query is empty, too short or too long.
	ErrInvalidQuery = errors.New("invalid chat query")

	// ErrChatUnavailable is returned when the completion backend fails.
	ErrChatUnavailable = errors.New("bible chat unavailable")
)

// Params are the sampling settings for one answer.
type Params struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

var (
	// DefaultParams are used for typed questions.
	DefaultParams = Params{MaxTokens: 1500, Temperature: 0.7, TopP: 0.9}

	// VoiceParams keep spoken answers short.
	VoiceParams = Params{MaxTokens: 512, Temperature: 0.7}
)

// Answer is the assistant's reply.
type Answer struct {
	Text      string
	Model     string
	Timestamp time.Time
}

// Service answers Bible questions.
type Service struct {
	completer generation.Completer
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a Service.
func NewService(completer generation.Completer, logger *slog.Logger) (*Service, error) {
	if completer == nil {
		return nil, fmt.Errorf("%w: completer is required", generation.ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		completer: completer,
		logger:    logger.With("component", "chat_service"),
		now:       time.Now,
	}, nil
}

// ValidateQuery trims query and checks its length.
func ValidateQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("%w: query cannot be empty", ErrInvalidQuery)
	}
	n := utf8.RuneCountInString(query)
	if n < MinQueryLength {
		return "", fmt.Errorf("%w: query must be at least %d characters long", ErrInvalidQuery, MinQueryLength)
	}
	if n > MaxQueryLength {
		return "", fmt.Errorf("%w: query is too long, maximum %d characters allowed", ErrInvalidQuery, MaxQueryLength)
	}
	return query, nil
}

// Ask answers query with DefaultParams.
func (s *Service) Ask(ctx context.Context, query string) (*Answer, error) {
	return s.AskWith(ctx, query, DefaultParams)
}

// AskWith answers query with the given sampling settings.
func (s *Service) AskWith(ctx context.Context, query string, p Params) (*Answer, error) {
	query, err := ValidateQuery(query)
	if err != nil {
		return nil, err
	}

	resp, err := s.completer.Complete(ctx, generation.CompletionRequest{
		SystemPrompt: systemPrompt,
		Messages:     []generation.Message{{Role: generation.RoleUser, Content: query}},
		MaxTokens:    p.MaxTokens,
		Temperature:  p.Temperature,
		TopP:         p.TopP,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "chat completion failed", "error", err, "query_length", len(query))
		return nil, fmt.Errorf("%w: %w", ErrChatUnavailable, err)
	}

	return &Answer{
		Text:      strings.TrimSpace(resp.Text),
		Model:     resp.Model,
		Timestamp: s.now(),
	}, nil
}
