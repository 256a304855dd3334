// Package speech implements the spoken Bible chat: an uploaded recording is
// transcribed and the transcription is answered by the chat service.
package speech
