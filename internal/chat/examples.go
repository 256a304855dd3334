package chat

// SupportedVersions are the translations the assistant is told to draw from.
var SupportedVersions = []string{"KJV", "NIV", "ESV", "NLT"}

// ExampleCategory groups sample queries shown to clients.
type ExampleCategory struct {
	Name    string   `json:"name"`
	Queries []string `json:"queries"`
}

var exampleCatalogue = []ExampleCategory{
	{
		Name: "bible_questions",
		Queries: []string{
			"What does the Bible say about love?",
			"How many books are in the Bible?",
			"Who wrote the book of Romans?",
			"What is the Gospel?",
			"What does the Bible teach about forgiveness?",
		},
	},
	{
		Name: "prayer_requests",
		Queries: []string{
			"Can you generate a prayer for healing?",
			"Write a prayer of thanksgiving",
			"Create a prayer for wisdom and guidance",
			"Generate a prayer for peace",
			"Write a prayer for strength during difficult times",
		},
	},
	{
		Name: "version_comparisons",
		Queries: []string{
			"Compare John 3:16 in KJV, NIV, ESV, and NLT",
			"Show me Psalm 23 in different translations",
			"Compare the wording of the Lord's Prayer in different versions",
		},
	},
	{
		Name: "theological_questions",
		Queries: []string{
			"What are the different Christian views on baptism?",
			"Are there contradictions in the Bible?",
			"What does the Bible say about predestination?",
			"Explain the Trinity from a biblical perspective",
		},
	},
}

// Examples returns the sample query catalogue. The result is a copy.
func Examples() []ExampleCategory {
	out := make([]ExampleCategory, len(exampleCatalogue))
	for i, c := range exampleCatalogue {
		out[i] = ExampleCategory{Name: c.Name, Queries: append([]string(nil), c.Queries...)}
	}
	return out
}
