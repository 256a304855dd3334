package api

import "time"

// VerseDetails is the body of one verse entry.
type VerseDetails struct {
	Text      string `json:"text"`
	Context   string `json:"context"`
	Reference string `json:"reference"`
}

// VerseDTO is one verse in the random verses response.
type VerseDTO struct {
	VerseID string       `json:"verse_id"`
	Details VerseDetails `json:"details"`
}

// PrayerDetails is the body of one prayer entry. Context holds the title.
type PrayerDetails struct {
	Text    string `json:"text"`
	Context string `json:"context"`
}

// PrayerDTO is one prayer in the random verses response.
type PrayerDTO struct {
	PrayerID string        `json:"prayer_id"`
	Details  PrayerDetails `json:"details"`
}

// RandomVersesResponse is returned by GET /verses/random.
type RandomVersesResponse struct {
	Verses  []VerseDTO  `json:"verses"`
	Prayers []PrayerDTO `json:"prayers"`
}

// ChatQueryRequest is the body of POST /bible-chat/query.
type ChatQueryRequest struct {
	Query string `json:"query" validate:"required"`
}

// ChatQueryResponse is returned by POST /bible-chat/query, on success and
// on failure.
type ChatQueryResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

// SpeechChatResponse is returned by POST /stt/bible_ai_chat.
type SpeechChatResponse struct {
	Success         bool   `json:"success"`
	Transcription   string `json:"transcription"`
	ChatbotResponse string `json:"chatbot_response"`
	Filename        string `json:"filename"`
}

// AudioGenerateRequest is the body of POST /audio/generate.
type AudioGenerateRequest struct {
	Text string `json:"text" validate:"required"`
}

// AudioGenerateResponse is returned by POST /audio/generate.
type AudioGenerateResponse struct {
	Status   int    `json:"status"`
	Success  bool   `json:"success"`
	AudioURL string `json:"audio_url"`
}

// QueryLimits describes accepted chat query lengths.
type QueryLimits struct {
	MinLength int `json:"min_length"`
	MaxLength int `json:"max_length"`
}

// formatTimestamp renders chat timestamps.
func formatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}
