package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/vilisasu/bibleai-api/internal/api/shared"
	"github.com/vilisasu/bibleai-api/internal/chat"
)

const (
	chatInvalidReply     = "Please provide a valid Bible-related question."
	chatUnavailableReply = "I apologize, but I'm experiencing difficulties connecting to the AI service. " +
		"Please try again in a moment."
)

// ChatAsker answers a Bible question.
type ChatAsker interface {
	Ask(ctx context.Context, query string) (*chat.Answer, error)
}

// ChatHandler serves the Bible chat endpoints.
type ChatHandler struct {
	chat     ChatAsker
	endpoint string
	now      func() time.Time
}

// NewChatHandler creates a ChatHandler. endpoint is the public path of the
// query route, reported by Health.
func NewChatHandler(asker ChatAsker, endpoint string) *ChatHandler {
	return &ChatHandler{chat: asker, endpoint: endpoint, now: time.Now}
}

// Query handles POST /bible-chat/query.
func (h *ChatHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req ChatQueryRequest
	if err := shared.DecodeAndValidate(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	answer, err := h.chat.Ask(r.Context(), req.Query)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, ChatQueryResponse{
		Success:   true,
		Response:  answer.Text,
		Timestamp: formatTimestamp(answer.Timestamp),
	})
}

// fail writes the chat-specific error body.
func (h *ChatHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	reply := chatUnavailableReply
	if status == http.StatusBadRequest {
		reply = chatInvalidReply
	}
	message := GetSafeErrorMessage(err)
	if errors.Is(err, chat.ErrChatUnavailable) && status == http.StatusInternalServerError {
		message = "AI service unavailable"
	}

	shared.LogError(r, status, message, err)
	writeJSON(w, r, status, ChatQueryResponse{
		Success:   false,
		Error:     message,
		Response:  reply,
		Timestamp: formatTimestamp(h.now()),
	})
}

// Health handles GET /bible-chat/health.
func (h *ChatHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"success":            true,
		"service":            "Bible Chat Service",
		"status":             "healthy",
		"message":            "Service is running properly",
		"endpoint":           h.endpoint,
		"supported_versions": chat.SupportedVersions,
		"query_limits":       QueryLimits{MinLength: chat.MinQueryLength, MaxLength: chat.MaxQueryLength},
	})
}

// Examples handles GET /bible-chat/examples.
func (h *ChatHandler) Examples(w http.ResponseWriter, r *http.Request) {
	examples := make(map[string][]string)
	for _, c := range chat.Examples() {
		examples[c.Name] = c.Queries
	}
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"success":            true,
		"message":            "Example queries for Bible Chat AI",
		"examples":           examples,
		"supported_versions": chat.SupportedVersions,
		"usage":              "Send a POST request to " + h.endpoint + " with your question in the 'query' field",
		"query_limits":       QueryLimits{MinLength: chat.MinQueryLength, MaxLength: chat.MaxQueryLength},
	})
}
