package devotional

import "fmt"

// Kind distinguishes the two generated collections.
type Kind string

// Supported kinds. The values double as identifier prefixes.
const (
	KindVerse  Kind = "verse"
	KindPrayer Kind = "prayer"
)

// Batch layout of one aggregate call.
const (
	BatchSize      = 5
	BatchesPerKind = 3
	TargetCount    = BatchSize * BatchesPerKind
)

// arity is the number of string fields in one generated row.
func (k Kind) arity() int {
	if k == KindVerse {
		return 3
	}
	return 2
}

// VerseItem is one generated verse. Text carries no reference.
type VerseItem struct {
	Text        string
	Explanation string
	Reference   string
}

// PrayerItem is one generated prayer.
type PrayerItem struct {
	Title string
	Body  string
}

// Verse is a VerseItem with its position-based identifier.
type Verse struct {
	ID string
	VerseItem
}

// Prayer is a PrayerItem with its position-based identifier.
type Prayer struct {
	ID string
	PrayerItem
}

// AggregateResult holds exactly TargetCount verses and TargetCount prayers.
type AggregateResult struct {
	Verses  []Verse
	Prayers []Prayer
}

// ItemID formats the identifier for a 1-based position, e.g. verse01.
func ItemID(kind Kind, position int) string {
	return fmt.Sprintf("%s%02d", kind, position)
}

// DefaultVerse pads the verse collection when generation comes up short.
var DefaultVerse = VerseItem{
	Text: "For God so loved the world, that he gave his only begotten Son, " +
		"that whosoever believeth in him should not perish, but have everlasting life.",
	Explanation: "God's love for the world is shown in the gift of His Son, " +
		"and everyone who trusts in Him receives eternal life.",
	Reference: "John 3:16 (KJV)",
}

// DefaultPrayer pads the prayer collection when generation comes up short.
var DefaultPrayer = PrayerItem{
	Title: "A Prayer for Peace",
	Body: "Lord, let Your peace, which passes all understanding, guard my heart and mind today. " +
		"Quiet my worries and help me rest in Your care. Amen.",
}

func defaultRow(kind Kind) []string {
	if kind == KindVerse {
		return []string{DefaultVerse.Text, DefaultVerse.Explanation, DefaultVerse.Reference}
	}
	return []string{DefaultPrayer.Title, DefaultPrayer.Body}
}

// fallbackRow is the placeholder for position item of a batch whose output
// could not be used.
func fallbackRow(kind Kind, batch, item int) []string {
	if kind == KindVerse {
		return []string{
			"Be strong and courageous. Do not be afraid; do not be discouraged, " +
				"for the LORD your God will be with you wherever you go.",
			fmt.Sprintf("God's presence goes with His people into every circumstance. (reserve %d.%d)", batch, item),
			"Joshua 1:9 (NIV)",
		}
	}
	return []string{
		fmt.Sprintf("A Prayer for Patience (reserve %d.%d)", batch, item),
		"Father, teach me to wait on You with a quiet heart. " +
			"Grow patience in me and let me trust Your timing in all things. Amen.",
	}
}

func fallbackRows(kind Kind, batch int) [][]string {
	rows := make([][]string, BatchSize)
	for i := range rows {
		rows[i] = fallbackRow(kind, batch, i+1)
	}
	return rows
}
