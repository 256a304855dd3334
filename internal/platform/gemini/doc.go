// Package gemini provides an implementation of the generation.Completer
// interface backed by Google's Gemini API.
//
// The adapter is selected with llm.provider = gemini. It maps a
// CompletionRequest onto a single GenerateContent call:
//
//   - the system prompt becomes the SystemInstruction
//   - user and assistant messages become "user" and "model" contents
//   - sampling parameters are forwarded only when set
//
// Responses stopped by a safety filter are reported as
// generation.ErrContentBlocked, empty candidates as
// generation.ErrInvalidResponse, and transport or API failures as
// generation.ErrBackendUnavailable. The adapter never retries.
package gemini
