package audio

import "errors"

var (
	// ErrInvalidText is returned when the text to synthesize is empty or too long.
	ErrInvalidText = errors.New("invalid text for audio generation")

	// ErrClipNotFound is returned when a clip id is unknown or expired.
	ErrClipNotFound = errors.New("audio clip not found")
)
