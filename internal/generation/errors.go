package generation

import "errors"

// Common errors returned by generation adapters.
var (
	// ErrInvalidResponse is returned when the provider response is empty or malformed.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the provider blocks the content due to safety filters.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrBackendUnavailable is returned for transport failures and upstream API errors.
	ErrBackendUnavailable = errors.New("AI backend unavailable")

	// ErrInvalidConfig is returned when an adapter is constructed with bad settings.
	ErrInvalidConfig = errors.New("invalid generator configuration")

	// ErrEmptyPrompt is returned when a request carries no message content.
	ErrEmptyPrompt = errors.New("empty prompt")
)
