package api

import (
	"net/http"

	"github.com/vilisasu/bibleai-api/internal/api/shared"
	"github.com/vilisasu/bibleai-api/internal/chat"
	"github.com/vilisasu/bibleai-api/internal/config"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	shared.RespondWithJSON(w, r, status, data)
}

// InfoHandler serves the service description, health and fallback routes.
type InfoHandler struct {
	app       config.AppConfig
	prefix    string
	model     string
	audioOn   bool
	endpoints []string
}

// NewInfoHandler creates an InfoHandler. prefix is the API path prefix and
// model the configured completion model.
func NewInfoHandler(app config.AppConfig, prefix, model string, audioEnabled bool) *InfoHandler {
	return &InfoHandler{
		app:     app,
		prefix:  prefix,
		model:   model,
		audioOn: audioEnabled,
		endpoints: []string{
			"GET /",
			"GET /health",
			"GET /metrics",
			"POST " + prefix + "/bible-chat/query",
			"GET " + prefix + "/bible-chat/health",
			"GET " + prefix + "/bible-chat/examples",
			"GET " + prefix + "/verses/random",
			"POST " + prefix + "/stt/bible_ai_chat",
			"GET " + prefix + "/stt/info",
			"POST " + prefix + "/audio/generate",
			"GET " + prefix + "/audio/download/{id}",
		},
	}
}

// Root handles GET /.
func (h *InfoHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"message":     "Welcome to " + h.app.Name,
		"version":     h.app.Version,
		"description": h.app.Description,
		"environment": h.app.Environment,
		"endpoints": map[string]string{
			"bible_chat":     h.prefix + "/bible-chat/query",
			"random_verses":  h.prefix + "/verses/random",
			"speech_to_text": h.prefix + "/stt/bible_ai_chat",
			"stt_info":       h.prefix + "/stt/info",
			"audio_generate": h.prefix + "/audio/generate",
			"health_check":   h.prefix + "/bible-chat/health",
			"examples":       h.prefix + "/bible-chat/examples",
		},
		"usage": map[string]interface{}{
			"endpoint": "POST " + h.prefix + "/bible-chat/query",
			"payload":  map[string]string{"query": "Your Bible question here"},
			"example":  map[string]string{"query": "What does the Bible say about love?"},
		},
		"supported_bible_versions": chat.SupportedVersions,
	})
}

// Health handles GET /health.
func (h *InfoHandler) Health(w http.ResponseWriter, r *http.Request) {
	audioStatus := "disabled"
	if h.audioOn {
		audioStatus = "available"
	}
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":             "healthy",
		"service":            h.app.Name,
		"version":            h.app.Version,
		"environment":        h.app.Environment,
		"bible_chat":         "available",
		"audio":              audioStatus,
		"model":              h.model,
		"supported_versions": chat.SupportedVersions,
	})
}

// NotFound answers unknown routes with the list of endpoints.
func (h *InfoHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusNotFound, map[string]interface{}{
		"success":             false,
		"error":               "Endpoint not found",
		"message":             "The requested resource was not found",
		"available_endpoints": h.endpoints,
		"trace_id":            shared.GetTraceID(r.Context()),
	})
}

// MethodNotAllowed answers known routes called with the wrong method.
func (h *InfoHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
}
