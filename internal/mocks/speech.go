package mocks

import (
	"context"
	"io"
	"sync"
)

// MockTranscriber implements generation.Transcriber for testing.
type MockTranscriber struct {
	TranscribeFn func(ctx context.Context, filename string, audio io.Reader) (string, error)

	Text string
	Err  error

	mu        sync.Mutex
	filenames []string
	payloads  [][]byte
}

// Transcribe implements the generation.Transcriber interface. The audio is
// read fully before TranscribeFn is invoked, so TranscribeFn receives an
// exhausted reader.
func (m *MockTranscriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	data, err := io.ReadAll(audio)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.filenames = append(m.filenames, filename)
	m.payloads = append(m.payloads, data)
	m.mu.Unlock()

	if m.TranscribeFn != nil {
		return m.TranscribeFn(ctx, filename, audio)
	}
	return m.Text, m.Err
}

// Filenames returns the filenames passed to Transcribe.
func (m *MockTranscriber) Filenames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.filenames...)
}

// Payloads returns the audio bytes passed to Transcribe.
func (m *MockTranscriber) Payloads() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.payloads...)
}

// MockSynthesizer implements generation.Synthesizer for testing.
type MockSynthesizer struct {
	SynthesizeFn func(ctx context.Context, text string) ([]byte, error)

	Audio []byte
	Err   error

	mu    sync.Mutex
	texts []string
}

// Synthesize implements the generation.Synthesizer interface.
func (m *MockSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()

	if m.SynthesizeFn != nil {
		return m.SynthesizeFn(ctx, text)
	}
	return m.Audio, m.Err
}

// Texts returns the texts passed to Synthesize.
func (m *MockSynthesizer) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}
