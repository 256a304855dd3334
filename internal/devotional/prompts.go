package devotional

import (
	"embed"
	"fmt"
	"math/rand/v2"
	"strings"
	"text/template"
	"time"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var promptTemplates = template.Must(
	template.New("prompts").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(promptFS, "prompts/*.tmpl"),
)

// BibleVersions are the translations prompts may prioritize.
var BibleVersions = []string{"KJV", "NIV", "ESV", "NLT"}

var (
	excludedPassages = []string{"John 3:16", "Psalm 23:1", "Philippians 4:13"}
	lesserKnownBooks = []string{
		"Habakkuk", "Zephaniah", "Malachi", "Haggai", "Obadiah",
		"Philemon", "Jude", "2 Peter", "3 John",
	}
)

const (
	verseSystemPrompt = "You are a biblical scholar with deep knowledge of the entire Bible. " +
		"Generate DIVERSE and UNIQUE verses from all 66 books. Avoid commonly quoted verses. " +
		"Ensure each generation is completely different by exploring lesser-known passages. " +
		"Return ONLY valid JSON."
	prayerSystemPrompt = "You are a pastoral writer who composes short, biblically grounded prayers. " +
		"Every prayer is warm, reverent and rooted in Scripture. Return ONLY valid JSON."
)

// RandSource supplies the randomness mixed into prompts. Implementations
// must be safe for concurrent use.
type RandSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

type promptData struct {
	Count       int
	Seed        int64
	Primary     [2]string
	Versions    []string
	Excluded    []string
	LesserKnown []string
}

// newPromptData draws a seed and two distinct primary versions.
func newPromptData(r RandSource, now time.Time) promptData {
	i := r.IntN(len(BibleVersions))
	j := r.IntN(len(BibleVersions) - 1)
	if j >= i {
		j++
	}

	return promptData{
		Count:       BatchSize,
		Seed:        now.UnixMilli() + int64(r.IntN(10000)+1),
		Primary:     [2]string{BibleVersions[i], BibleVersions[j]},
		Versions:    BibleVersions,
		Excluded:    excludedPassages,
		LesserKnown: lesserKnownBooks,
	}
}

func buildPrompt(kind Kind, data promptData) (string, error) {
	var b strings.Builder
	if err := promptTemplates.ExecuteTemplate(&b, string(kind)+".tmpl", data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", kind, err)
	}
	return b.String(), nil
}

func systemPrompt(kind Kind) string {
	if kind == KindVerse {
		return verseSystemPrompt
	}
	return prayerSystemPrompt
}
