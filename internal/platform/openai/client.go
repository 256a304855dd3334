// Package openai adapts the OpenAI API to the generation ports: chat
// completions for Completer and Whisper transcription for Transcriber.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/vilisasu/bibleai-api/internal/generation"
)

// DefaultTranscriptionModel is used when WithTranscriptionModel is not given.
const DefaultTranscriptionModel = "whisper-1"

// Client implements generation.Completer and generation.Transcriber.
type Client struct {
	client             oai.Client
	model              string
	transcriptionModel string
	logger             *slog.Logger
}

var (
	_ generation.Completer   = (*Client)(nil)
	_ generation.Transcriber = (*Client)(nil)
)

type config struct {
	baseURL            string
	timeout            time.Duration
	transcriptionModel string
}

// Option configures a Client.
type Option func(*config)

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithTimeout bounds every HTTP round trip.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithTranscriptionModel overrides the speech-to-text model.
func WithTranscriptionModel(model string) Option {
	return func(c *config) { c.transcriptionModel = model }
}

// New creates a Client. SDK retries are disabled; callers decide how to
// react to a failed call.
func New(apiKey, model string, logger *slog.Logger, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: openai api key must not be empty", generation.ErrInvalidConfig)
	}
	if model == "" {
		return nil, fmt.Errorf("%w: openai model must not be empty", generation.ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg := &config{transcriptionModel: DefaultTranscriptionModel}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}

	return &Client{
		client:             oai.NewClient(reqOpts...),
		model:              model,
		transcriptionModel: cfg.transcriptionModel,
		logger:             logger.With("component", "openai_client", "model", model),
	}, nil
}

// Complete sends one chat completion request and returns the first choice.
func (c *Client) Complete(
	ctx context.Context,
	req generation.CompletionRequest,
) (*generation.CompletionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp, err := c.client.Chat.Completions.New(ctx, c.buildParams(req))
	if err != nil {
		return nil, c.wrapError("chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", generation.ErrInvalidResponse)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return nil, fmt.Errorf("%w: finish reason %s", generation.ErrContentBlocked, choice.FinishReason)
	}
	if strings.TrimSpace(choice.Message.Content) == "" {
		return nil, fmt.Errorf("%w: empty message content", generation.ErrInvalidResponse)
	}

	c.logger.Debug("chat completion finished",
		"finish_reason", choice.FinishReason,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	return &generation.CompletionResponse{
		Text:  choice.Message.Content,
		Model: resp.Model,
		Usage: generation.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

// Transcribe uploads audio to the transcription endpoint. filename is sent
// along so the API can detect the container format.
func (c *Client) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	resp, err := c.client.Audio.Transcriptions.New(ctx, oai.AudioTranscriptionNewParams{
		File:  oai.File(audio, filename, contentType),
		Model: oai.AudioModel(c.transcriptionModel),
	})
	if err != nil {
		return "", c.wrapError("transcription", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("%w: empty transcription", generation.ErrInvalidResponse)
	}
	return text, nil
}

func (c *Client) buildParams(req generation.CompletionRequest) oai.ChatCompletionNewParams {
	messages := make([]oai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, oai.SystemMessage(req.SystemPrompt))
	}
	for _, m := range req.Messages {
		if m.Role == generation.RoleAssistant {
			messages = append(messages, oai.AssistantMessage(m.Content))
			continue
		}
		messages = append(messages, oai.UserMessage(m.Content))
	}

	params := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = oai.Int(int64(req.MaxTokens))
	}
	if req.Temperature != 0 {
		params.Temperature = oai.Float(req.Temperature)
	}
	if req.TopP != 0 {
		params.TopP = oai.Float(req.TopP)
	}
	if req.FrequencyPenalty != 0 {
		params.FrequencyPenalty = oai.Float(req.FrequencyPenalty)
	}
	if req.PresencePenalty != 0 {
		params.PresencePenalty = oai.Float(req.PresencePenalty)
	}
	return params
}

// wrapError keeps context errors visible and tags everything else as a
// backend failure.
func (c *Client) wrapError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("openai %s: %w", op, err)
	}

	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		c.logger.Warn("openai api error", "operation", op, "status", apiErr.StatusCode)
		return fmt.Errorf("%w: openai %s returned status %d: %w",
			generation.ErrBackendUnavailable, op, apiErr.StatusCode, err)
	}
	return fmt.Errorf("%w: openai %s: %w", generation.ErrBackendUnavailable, op, err)
}
