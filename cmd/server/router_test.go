package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/vilisasu/bibleai-api/internal/audio"
	"github.com/vilisasu/bibleai-api/internal/config"
	"github.com/vilisasu/bibleai-api/internal/mocks"
	"github.com/vilisasu/bibleai-api/internal/observe"
	"github.com/vilisasu/bibleai-api/internal/platform/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "Vilisasu Bible AI", Version: "1.0.0", Environment: "test"},
		Server: config.ServerConfig{
			Port:               8065,
			LogLevel:           "debug",
			APIPrefix:          "/api/v1",
			CORSAllowedOrigins: []string{"*"},
			ShutdownTimeout:    time.Second,
		},
		LLM: config.LLMConfig{Provider: "openai", Model: "gpt-4o-2024-08-06", RequestTimeout: time.Second},
		Generation: config.GenerationConfig{
			WorkerCount:  6,
			QueueSize:    12,
			BatchTimeout: time.Second,
			MergeOrder:   "completion",
		},
		Speech: config.SpeechConfig{Model: "whisper-1", MaxUploadMB: 25},
		Audio:  config.AudioConfig{Store: "memory", TTL: time.Hour},
	}
}

// newTestServer assembles the application on mock backends.
func newTestServer(t *testing.T, b *backends) *httptest.Server {
	t.Helper()
	log, _ := logger.GetTestLogger(t)
	metrics, err := observe.NewMetrics(noop.NewMeterProvider())
	require.NoError(t, err)

	app, err := assembleApplication(testConfig(), log, metrics, b)
	require.NoError(t, err)
	t.Cleanup(func() { app.cleanup(context.Background()) })

	srv := httptest.NewServer(app.setupRouter())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, v interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp
}

func TestRouter_FullStack(t *testing.T) {
	srv := newTestServer(t, &backends{
		provider:    "openai",
		completer:   mocks.NewMockCompleterWithText("Grace and peace to you."),
		transcriber: &mocks.MockTranscriber{Text: "Who is Jesus?"},
		synthesizer: &mocks.MockSynthesizer{Audio: []byte("ID3")},
		store:       audio.NewMemoryStore(time.Hour),
	})

	t.Run("health", func(t *testing.T) {
		var body map[string]interface{}
		resp := getJSON(t, srv.URL+"/health", &body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "available", body["audio"])
		assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
	})

	t.Run("random verses pad unusable output", func(t *testing.T) {
		var body struct {
			Verses []struct {
				VerseID string `json:"verse_id"`
			} `json:"verses"`
			Prayers []struct {
				PrayerID string `json:"prayer_id"`
			} `json:"prayers"`
		}
		resp := getJSON(t, srv.URL+"/api/v1/verses/random", &body)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, body.Verses, 15)
		require.Len(t, body.Prayers, 15)
		assert.Equal(t, "verse01", body.Verses[0].VerseID)
		assert.Equal(t, "prayer15", body.Prayers[14].PrayerID)
	})

	t.Run("chat query", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/api/v1/bible-chat/query", "application/json",
			strings.NewReader(`{"query":"What is grace?"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Grace and peace to you.", body["response"])
	})

	t.Run("audio round trip", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/api/v1/audio/generate", "application/json",
			strings.NewReader(`{"text":"The Lord is my shepherd."}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		var body struct {
			AudioURL string `json:"audio_url"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.True(t, strings.HasPrefix(body.AudioURL, srv.URL+"/api/v1/audio/download/"), body.AudioURL)

		dl, err := http.Get(body.AudioURL)
		require.NoError(t, err)
		defer dl.Body.Close()
		assert.Equal(t, http.StatusOK, dl.StatusCode)
		assert.Equal(t, "audio/mpeg", dl.Header.Get("Content-Type"))
	})

	t.Run("stt info", func(t *testing.T) {
		var body map[string]interface{}
		resp := getJSON(t, srv.URL+"/api/v1/stt/info", &body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "whisper-1", body["model"])
	})

	t.Run("metrics", func(t *testing.T) {
		resp := getJSON(t, srv.URL+"/metrics", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unknown route", func(t *testing.T) {
		var body map[string]interface{}
		resp := getJSON(t, srv.URL+"/api/v1/psalms", &body)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Endpoint not found", body["error"])
		assert.NotEmpty(t, body["available_endpoints"])
	})

	t.Run("wrong method", func(t *testing.T) {
		resp := getJSON(t, srv.URL+"/api/v1/bible-chat/query", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})

	t.Run("cors preflight", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/bible-chat/query", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "https://app.example.org")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	})
}

func TestRouter_OptionalFeaturesDisabled(t *testing.T) {
	srv := newTestServer(t, &backends{
		provider:  "gemini",
		completer: mocks.NewMockCompleterWithText("Amen."),
	})

	var health map[string]interface{}
	getJSON(t, srv.URL+"/health", &health)
	assert.Equal(t, "disabled", health["audio"])

	resp, err := http.Post(srv.URL+"/api/v1/audio/generate", "application/json", strings.NewReader(`{"text":"Amen"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp = getJSON(t, srv.URL+"/api/v1/stt/info", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
