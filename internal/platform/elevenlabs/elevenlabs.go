// Package elevenlabs implements generation.Synthesizer on top of the
// ElevenLabs streaming text-to-speech websocket.
package elevenlabs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/coder/websocket"

	"github.com/vilisasu/bibleai-api/internal/generation"
)

const (
	defaultEndpoint     = "wss://api.elevenlabs.io"
	defaultVoiceID      = "pNInz6obpgDQGcFmaJgB"
	defaultModel        = "eleven_monolingual_v1"
	defaultOutputFormat = "mp3_44100_128"

	// readLimit bounds a single websocket frame; audio chunks arrive base64
	// encoded and exceed the library default.
	readLimit = 4 << 20
)

// VoiceSettings mirrors the ElevenLabs voice_settings object.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// DefaultVoiceSettings is the preacher voice profile.
var DefaultVoiceSettings = VoiceSettings{
	Stability:       0.75,
	SimilarityBoost: 0.85,
	Style:           0.5,
	UseSpeakerBoost: true,
}

// Option is a functional option for configuring the Synthesizer.
type Option func(*Synthesizer)

// WithVoice sets the ElevenLabs voice id.
func WithVoice(voiceID string) Option {
	return func(s *Synthesizer) { s.voiceID = voiceID }
}

// WithModel sets the ElevenLabs model id.
func WithModel(model string) Option {
	return func(s *Synthesizer) { s.model = model }
}

// WithEndpoint overrides the websocket origin, e.g. "ws://127.0.0.1:1234".
func WithEndpoint(endpoint string) Option {
	return func(s *Synthesizer) { s.endpoint = strings.TrimSuffix(endpoint, "/") }
}

// WithVoiceSettings replaces DefaultVoiceSettings.
func WithVoiceSettings(vs VoiceSettings) Option {
	return func(s *Synthesizer) { s.settings = vs }
}

// Synthesizer renders text to MP3 through one websocket session per call.
type Synthesizer struct {
	apiKey   string
	voiceID  string
	model    string
	endpoint string
	settings VoiceSettings
	logger   *slog.Logger
}

var _ generation.Synthesizer = (*Synthesizer)(nil)

// New creates a Synthesizer. apiKey must be non-empty.
func New(apiKey string, logger *slog.Logger, opts ...Option) (*Synthesizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: elevenlabs api key must not be empty", generation.ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Synthesizer{
		apiKey:   apiKey,
		voiceID:  defaultVoiceID,
		model:    defaultModel,
		endpoint: defaultEndpoint,
		settings: DefaultVoiceSettings,
	}
	for _, o := range opts {
		o(s)
	}
	if s.voiceID == "" {
		return nil, fmt.Errorf("%w: elevenlabs voice id must not be empty", generation.ErrInvalidConfig)
	}
	s.logger = logger.With("component", "elevenlabs", "voice_id", s.voiceID)
	return s, nil
}

// textMessage is one fragment sent to ElevenLabs. The first message of a
// session also carries the api key and voice settings.
type textMessage struct {
	Text                 string         `json:"text"`
	VoiceSettings        *VoiceSettings `json:"voice_settings,omitempty"`
	XiAPIKey             string         `json:"xi_api_key,omitempty"`
	TryTriggerGeneration bool           `json:"try_trigger_generation,omitempty"`
}

// audioResponse is a message received from ElevenLabs.
type audioResponse struct {
	Audio   string `json:"audio"`
	IsFinal bool   `json:"isFinal"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Synthesize implements generation.Synthesizer.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, generation.ErrEmptyPrompt
	}

	conn, _, err := websocket.Dial(ctx, s.streamURL(), nil)
	if err != nil {
		return nil, s.wrapError("dial", err)
	}
	defer conn.CloseNow()
	conn.SetReadLimit(readLimit)

	messages := []textMessage{
		// The session opens with a single space.
		{Text: " ", VoiceSettings: &s.settings, XiAPIKey: s.apiKey},
		// ElevenLabs buffers until it sees trailing whitespace.
		{Text: text + " ", TryTriggerGeneration: true},
		// Empty text ends the input.
		{Text: ""},
	}
	for _, m := range messages {
		payload, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("elevenlabs: encode message: %w", err)
		}
		if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
			return nil, s.wrapError("send text", err)
		}
	}

	audio, err := s.collect(ctx, conn)
	if err != nil {
		return nil, err
	}
	_ = conn.Close(websocket.StatusNormalClosure, "done")

	s.logger.DebugContext(ctx, "synthesis finished", "text_length", len(text), "audio_bytes", len(audio))
	return audio, nil
}

// collect reads audio frames until the final marker or a normal close.
func (s *Synthesizer) collect(ctx context.Context, conn *websocket.Conn) ([]byte, error) {
	var audio []byte
	for {
		_, msg, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				break
			}
			return nil, s.wrapError("read audio", err)
		}

		var resp audioResponse
		if err := json.Unmarshal(msg, &resp); err != nil {
			s.logger.WarnContext(ctx, "skipping undecodable frame", "error", err)
			continue
		}
		if resp.Error != "" {
			return nil, fmt.Errorf("%w: elevenlabs: %s %s",
				generation.ErrBackendUnavailable, resp.Error, resp.Message)
		}
		if resp.Audio != "" {
			chunk, err := base64.StdEncoding.DecodeString(resp.Audio)
			if err != nil {
				return nil, fmt.Errorf("%w: elevenlabs audio chunk: %v", generation.ErrInvalidResponse, err)
			}
			audio = append(audio, chunk...)
		}
		if resp.IsFinal {
			break
		}
	}

	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: elevenlabs returned no audio", generation.ErrInvalidResponse)
	}
	return audio, nil
}

func (s *Synthesizer) streamURL() string {
	q := url.Values{}
	q.Set("model_id", s.model)
	q.Set("output_format", defaultOutputFormat)
	return fmt.Sprintf("%s/v1/text-to-speech/%s/stream-input?%s",
		s.endpoint, url.PathEscape(s.voiceID), q.Encode())
}

func (s *Synthesizer) wrapError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("elevenlabs %s: %w", op, err)
	}
	return fmt.Errorf("%w: elevenlabs %s: %w", generation.ErrBackendUnavailable, op, err)
}
