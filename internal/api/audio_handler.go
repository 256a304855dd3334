package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vilisasu/bibleai-api/internal/api/shared"
)

// ClipService generates and serves audio clips.
type ClipService interface {
	Generate(ctx context.Context, text string) (uuid.UUID, error)
	Fetch(ctx context.Context, id string) ([]byte, error)
}

// AudioHandler serves the text-to-speech endpoints. A nil service answers
// 503 so the routes stay discoverable when audio is not configured.
type AudioHandler struct {
	clips        ClipService
	downloadPath string
}

// NewAudioHandler creates an AudioHandler. downloadPath is the public path
// prefix of the download route, e.g. "/api/v1/audio/download".
func NewAudioHandler(clips ClipService, downloadPath string) *AudioHandler {
	return &AudioHandler{clips: clips, downloadPath: downloadPath}
}

// Generate handles POST /audio/generate.
func (h *AudioHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if h.clips == nil {
		HandleAPIError(w, r, fmt.Errorf("%w: audio generation", ErrFeatureDisabled), "")
		return
	}

	var req AudioGenerateRequest
	if err := shared.DecodeAndValidate(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	id, err := h.clips.Generate(r.Context(), req.Text)
	if err != nil {
		message := ""
		if MapErrorToStatusCode(err) == http.StatusInternalServerError {
			message = "Failed to generate audio"
		}
		HandleAPIError(w, r, err, message)
		return
	}

	writeJSON(w, r, http.StatusOK, AudioGenerateResponse{
		Status:   http.StatusOK,
		Success:  true,
		AudioURL: baseURL(r) + h.downloadPath + "/" + id.String(),
	})
}

// Download handles GET /audio/download/{id}.
func (h *AudioHandler) Download(w http.ResponseWriter, r *http.Request) {
	if h.clips == nil {
		HandleAPIError(w, r, fmt.Errorf("%w: audio generation", ErrFeatureDisabled), "")
		return
	}

	id := chi.URLParam(r, "id")
	data, err := h.clips.Fetch(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=preacher_%s.mp3", id))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// baseURL reconstructs scheme and host, honoring proxy headers.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}
