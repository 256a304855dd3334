package api

import (
	"context"
	"net/http"

	"github.com/vilisasu/bibleai-api/internal/devotional"
)

// DevotionalProducer produces the verse and prayer collections.
type DevotionalProducer interface {
	Produce(ctx context.Context) (*devotional.AggregateResult, error)
}

// VerseHandler serves the random verses endpoint.
type VerseHandler struct {
	producer DevotionalProducer
}

// NewVerseHandler creates a new VerseHandler
func NewVerseHandler(producer DevotionalProducer) *VerseHandler {
	return &VerseHandler{producer: producer}
}

// GetRandom handles GET /verses/random.
func (h *VerseHandler) GetRandom(w http.ResponseWriter, r *http.Request) {
	result, err := h.producer.Produce(r.Context())
	if err != nil {
		status := MapErrorToStatusCode(err)
		message := GetSafeErrorMessage(err)
		if status == http.StatusInternalServerError {
			message = "Failed to generate verses"
		}
		HandleAPIError(w, r, err, message)
		return
	}

	writeJSON(w, r, http.StatusOK, toRandomVersesResponse(result))
}

func toRandomVersesResponse(result *devotional.AggregateResult) RandomVersesResponse {
	resp := RandomVersesResponse{
		Verses:  make([]VerseDTO, 0, len(result.Verses)),
		Prayers: make([]PrayerDTO, 0, len(result.Prayers)),
	}
	for _, v := range result.Verses {
		resp.Verses = append(resp.Verses, VerseDTO{
			VerseID: v.ID,
			Details: VerseDetails{Text: v.Text, Context: v.Explanation, Reference: v.Reference},
		})
	}
	for _, p := range result.Prayers {
		resp.Prayers = append(resp.Prayers, PrayerDTO{
			PrayerID: p.ID,
			Details:  PrayerDetails{Text: p.Body, Context: p.Title},
		})
	}
	return resp
}
