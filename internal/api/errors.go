package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/vilisasu/bibleai-api/internal/api/shared"
	"github.com/vilisasu/bibleai-api/internal/audio"
	"github.com/vilisasu/bibleai-api/internal/chat"
	"github.com/vilisasu/bibleai-api/internal/speech"
	"github.com/vilisasu/bibleai-api/internal/task"
)

// ErrFeatureDisabled is returned by handlers whose backend is not configured.
var ErrFeatureDisabled = errors.New("feature not configured")

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Bad request errors
	case errors.Is(err, shared.ErrInvalidRequest),
		errors.Is(err, chat.ErrInvalidQuery),
		errors.Is(err, speech.ErrInvalidAudio),
		errors.Is(err, audio.ErrInvalidText):
		return http.StatusBadRequest

	// Not found errors
	case errors.Is(err, audio.ErrClipNotFound):
		return http.StatusNotFound

	// Saturation and disabled features
	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed),
		errors.Is(err, ErrFeatureDisabled):
		return http.StatusServiceUnavailable

	// Upstream too slow
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, shared.ErrInvalidRequest):
		return SanitizeValidationError(err)

	// Validation messages from the services are written for clients.
	case errors.Is(err, chat.ErrInvalidQuery),
		errors.Is(err, speech.ErrInvalidAudio),
		errors.Is(err, audio.ErrInvalidText):
		return "Validation error: " + detailAfterSentinel(err)

	case errors.Is(err, audio.ErrClipNotFound):
		return "Audio not found or expired"

	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return "The service is busy, please try again shortly"

	case errors.Is(err, ErrFeatureDisabled):
		return "This feature is not enabled on this server"

	case errors.Is(err, context.DeadlineExceeded):
		return "The AI service took too long to respond"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps err to a status and safe message, logs it and writes
// the standard error body. A non-empty message overrides the safe message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// detailAfterSentinel returns the text following the outermost "sentinel: "
// prefix of a wrapped validation error.
func detailAfterSentinel(err error) string {
	msg := err.Error()
	if _, detail, ok := strings.Cut(msg, ": "); ok {
		return detail
	}
	return msg
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "malformed JSON body") {
		return "Invalid request format"
	}

	// Example format: "Key: 'ChatQueryRequest.Query' Error:Field validation for 'Query' failed on the 'min' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := strings.ToLower(fieldParts[1])
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
