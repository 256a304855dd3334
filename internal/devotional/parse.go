package devotional

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vilisasu/bibleai-api/internal/generation"
)

var errNotArray = errors.New("output is not a JSON array of rows")

// parseRows decodes model output into rows of kind.arity() strings.
//
// The whole batch fails only when the text is not a JSON array. A row with
// the wrong arity, a non-string cell or an empty cell is replaced in place by
// the placeholder for that position; repaired counts those replacements.
// Rows beyond BatchSize are kept.
func parseRows(kind Kind, batch int, text string) (rows [][]string, repaired int, err error) {
	cleaned := generation.StripCodeFence(text)

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", errNotArray, err)
	}
	if raw == nil {
		return nil, 0, errNotArray
	}

	rows = make([][]string, 0, len(raw))
	for i, r := range raw {
		row, ok := decodeRow(kind, r)
		if !ok {
			row = fallbackRow(kind, batch, i+1)
			repaired++
		}
		rows = append(rows, row)
	}
	return rows, repaired, nil
}

func decodeRow(kind Kind, raw json.RawMessage) ([]string, bool) {
	var cells []string
	if err := json.Unmarshal(raw, &cells); err != nil {
		return nil, false
	}
	if len(cells) != kind.arity() {
		return nil, false
	}
	for i, c := range cells {
		c = strings.TrimSpace(c)
		if c == "" {
			return nil, false
		}
		cells[i] = c
	}
	return cells, true
}
