// Package nlu defines the contract shape exchanged with the natural-language
// understanding collaborator. Intent, entity, and sentiment extraction happen
// upstream; this package only carries the opaque result structure.
package nlu

// Entity is one span extracted from a user message.
type Entity struct {
	Text       string  `json:"text"`
	Label      string  `json:"label"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Result is the NLU analysis of a single user message.
type Result struct {
	Intent     string   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Entities   []Entity `json:"entities"`
	Sentiment  string   `json:"sentiment"`
}

// SentimentOrDefault returns the analyzed sentiment, or "neutral" when the
// collaborator reported none.
func (r Result) SentimentOrDefault() string {
	if r.Sentiment == "" {
		return "neutral"
	}
	return r.Sentiment
}
