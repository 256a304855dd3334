package elevenlabs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vilisasu/bibleai-api/internal/generation"
	"github.com/vilisasu/bibleai-api/internal/platform/logger"
)

// fakeServer accepts one websocket session, records the text messages and
// answers with the given frames.
type fakeServer struct {
	mu       sync.Mutex
	messages []textMessage
	path     string
	query    string
}

func (f *fakeServer) handler(t *testing.T, frames []audioResponse) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.CloseNow()

		f.mu.Lock()
		f.path = r.URL.Path
		f.query = r.URL.RawQuery
		f.mu.Unlock()

		ctx := r.Context()
		for {
			_, data, err := conn.Read(ctx)
			if !assert.NoError(t, err) {
				return
			}
			var msg textMessage
			assert.NoError(t, json.Unmarshal(data, &msg))
			f.mu.Lock()
			f.messages = append(f.messages, msg)
			f.mu.Unlock()
			if msg.Text == "" {
				break
			}
		}

		for _, frame := range frames {
			payload, _ := json.Marshal(frame)
			if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
				return
			}
		}
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}
}

func newTestSynthesizer(t *testing.T, h http.Handler, opts ...Option) *Synthesizer {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	log, _ := logger.GetTestLogger(t)
	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http")
	s, err := New("xi-test-key", log, append([]Option{WithEndpoint(endpoint)}, opts...)...)
	require.NoError(t, err)
	return s
}

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func TestNew_Validation(t *testing.T) {
	_, err := New("", nil)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = New("xi-test-key", nil, WithVoice(""))
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	s, err := New("xi-test-key", nil)
	require.NoError(t, err)
	assert.Equal(t, defaultVoiceID, s.voiceID)
	assert.Equal(t, defaultModel, s.model)
	assert.Equal(t, DefaultVoiceSettings, s.settings)
}

func TestStreamURL(t *testing.T) {
	s, err := New("xi-test-key", nil, WithVoice("voice-1"), WithModel("eleven_turbo_v2"))
	require.NoError(t, err)

	assert.Equal(t,
		"wss://api.elevenlabs.io/v1/text-to-speech/voice-1/stream-input?model_id=eleven_turbo_v2&output_format=mp3_44100_128",
		s.streamURL())
}

func TestSynthesize_CollectsAudio(t *testing.T) {
	fake := &fakeServer{}
	s := newTestSynthesizer(t, fake.handler(t, []audioResponse{
		{Audio: b64("ID3")},
		{Audio: b64("-frame-")},
		{Audio: b64("end"), IsFinal: true},
	}))

	audio, err := s.Synthesize(context.Background(), "  The Lord is my shepherd.  ")

	require.NoError(t, err)
	assert.Equal(t, "ID3-frame-end", string(audio))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, "/v1/text-to-speech/pNInz6obpgDQGcFmaJgB/stream-input", fake.path)
	assert.Contains(t, fake.query, "model_id=eleven_monolingual_v1")
	require.Len(t, fake.messages, 3)

	boi := fake.messages[0]
	assert.Equal(t, " ", boi.Text)
	assert.Equal(t, "xi-test-key", boi.XiAPIKey)
	require.NotNil(t, boi.VoiceSettings)
	assert.Equal(t, DefaultVoiceSettings, *boi.VoiceSettings)

	assert.Equal(t, "The Lord is my shepherd. ", fake.messages[1].Text)
	assert.True(t, fake.messages[1].TryTriggerGeneration)
	assert.Empty(t, fake.messages[1].XiAPIKey)
	assert.Equal(t, "", fake.messages[2].Text)
}

func TestSynthesize_NormalCloseWithoutFinal(t *testing.T) {
	fake := &fakeServer{}
	s := newTestSynthesizer(t, fake.handler(t, []audioResponse{{Audio: b64("mp3")}}))

	audio, err := s.Synthesize(context.Background(), "Amen")

	require.NoError(t, err)
	assert.Equal(t, "mp3", string(audio))
}

func TestSynthesize_Errors(t *testing.T) {
	tests := []struct {
		name    string
		frames  []audioResponse
		wantErr error
	}{
		{
			name:    "server reports error",
			frames:  []audioResponse{{Error: "auth_error", Message: "invalid api key"}},
			wantErr: generation.ErrBackendUnavailable,
		},
		{
			name:    "no audio",
			frames:  []audioResponse{{IsFinal: true}},
			wantErr: generation.ErrInvalidResponse,
		},
		{
			name:    "bad base64",
			frames:  []audioResponse{{Audio: "!!!not-base64!!!"}},
			wantErr: generation.ErrInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeServer{}
			s := newTestSynthesizer(t, fake.handler(t, tt.frames))

			audio, err := s.Synthesize(context.Background(), "Peace be with you")

			assert.Nil(t, audio)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSynthesize_DialFailure(t *testing.T) {
	s := newTestSynthesizer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))

	_, err := s.Synthesize(context.Background(), "Grace")
	assert.ErrorIs(t, err, generation.ErrBackendUnavailable)
}

func TestSynthesize_EmptyText(t *testing.T) {
	s, err := New("xi-test-key", nil)
	require.NoError(t, err)

	_, err = s.Synthesize(context.Background(), "   ")
	assert.ErrorIs(t, err, generation.ErrEmptyPrompt)
}

func TestSynthesize_ContextTimeout(t *testing.T) {
	s := newTestSynthesizer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		// Never answer; drain until the client hangs up.
		for {
			if _, _, err := conn.Read(context.Background()); err != nil {
				return
			}
		}
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := s.Synthesize(ctx, "Grace")
	require.Error(t, err)
	assert.NotErrorIs(t, err, generation.ErrInvalidResponse)
}
