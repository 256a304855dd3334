// Package generation defines the ports between the application core and
// external AI services: text completion, speech transcription and speech
// synthesis. Adapters for OpenAI, Gemini and ElevenLabs live under
// internal/platform and satisfy these interfaces, so the verse aggregator,
// chat and audio services never depend on a particular provider SDK.
package generation
