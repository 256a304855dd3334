package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/vilisasu/bibleai-api/internal/speech"
)

// AudioFileField is the multipart field holding the recording.
const AudioFileField = "audio_file"

// SpeechResponder transcribes a recording and answers it.
type SpeechResponder interface {
	TranscribeAndRespond(ctx context.Context, filename string, data []byte) (*speech.Result, error)
	ValidateUpload(filename string, size int64) error
	MaxBytes() int64
	Info() speech.Info
}

// SpeechHandler serves the speech-to-text endpoints. A nil responder answers
// 503, which happens when no OpenAI key is configured.
type SpeechHandler struct {
	speech SpeechResponder
}

// NewSpeechHandler creates a SpeechHandler.
func NewSpeechHandler(s SpeechResponder) *SpeechHandler {
	return &SpeechHandler{speech: s}
}

// multipartOverhead leaves room for boundaries and headers around the file.
const multipartOverhead = 1 << 20

// Chat handles POST /stt/bible_ai_chat.
func (h *SpeechHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if h.speech == nil {
		HandleAPIError(w, r, fmt.Errorf("%w: speech to text", ErrFeatureDisabled), "")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.speech.MaxBytes()+multipartOverhead)

	file, header, err := r.FormFile(AudioFileField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = fmt.Errorf("%w: file too large", speech.ErrInvalidAudio)
		} else {
			err = fmt.Errorf("%w: no file provided", speech.ErrInvalidAudio)
		}
		HandleAPIError(w, r, err, "")
		return
	}
	defer file.Close()

	if err := h.speech.ValidateUpload(header.Filename, header.Size); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		HandleAPIError(w, r, fmt.Errorf("failed to read upload: %w", err), "Error reading audio file")
		return
	}

	result, err := h.speech.TranscribeAndRespond(r.Context(), header.Filename, data)
	if err != nil {
		message := ""
		if MapErrorToStatusCode(err) == http.StatusInternalServerError {
			message = "Error processing audio or generating response"
		}
		HandleAPIError(w, r, err, message)
		return
	}

	writeJSON(w, r, http.StatusOK, SpeechChatResponse{
		Success:         true,
		Transcription:   result.Transcription,
		ChatbotResponse: result.Response,
		Filename:        result.Filename,
	})
}

// Info handles GET /stt/info.
func (h *SpeechHandler) Info(w http.ResponseWriter, r *http.Request) {
	if h.speech == nil {
		HandleAPIError(w, r, fmt.Errorf("%w: speech to text", ErrFeatureDisabled), "")
		return
	}
	writeJSON(w, r, http.StatusOK, h.speech.Info())
}
