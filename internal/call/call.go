package call

// EmotionalTone is the derived emotional tone of a call.
type EmotionalTone string

const (
	TonePositive EmotionalTone = "Positive"
	ToneNeutral  EmotionalTone = "Neutral"
	ToneNegative EmotionalTone = "Negative"
	ToneAngry    EmotionalTone = "Angry"
)

// Call represents one ingested, classified voice-call recording.
// The row is created once, atomically, at the end of the pipeline; after that
// only Categories is ever mutated (by reindexing or category deletion).
type Call struct {
	// ID is the ULID generated at ingestion time. The stored audio content is
	// keyed by the same identifier.
	ID string `json:"id"`

	// Name holds speaker names found by entity extraction, space-joined (nullable)
	Name *string `json:"name,omitempty"`

	// Location holds locations found by entity extraction, space-joined (nullable)
	Location *string `json:"location,omitempty"`

	// EmotionalTone is derived from sentiment polarity and score (nullable)
	EmotionalTone *EmotionalTone `json:"emotional_tone,omitempty"`

	// Text is the transcription, immutable once set
	Text string `json:"text"`

	// Categories is the set of category titles this call belongs to.
	// Titles, not ids: a deliberate denormalization whose consistency cost is
	// absorbed by the reindexer.
	Categories []string `json:"categories"`

	// CreatedAt is the Unix timestamp when the call row was inserted
	CreatedAt int64 `json:"created_at"`
}

// HasCategory reports whether title is in the call's category set.
func (c *Call) HasCategory(title string) bool {
	for _, t := range c.Categories {
		if t == title {
			return true
		}
	}
	return false
}

// Category represents a user-defined classification bucket.
type Category struct {
	// ID is the integer primary key
	ID int64 `json:"id"`

	// Title is unique and is the value stored inside Call.Categories
	Title string `json:"title"`

	// Points is an optional ordered list of synonym labels widening the
	// classification net (nullable)
	Points []string `json:"points,omitempty"`
}

// CandidateLabels returns the label universe for this category: the title
// followed by every point, in order.
func (c *Category) CandidateLabels() []string {
	labels := make([]string, 0, 1+len(c.Points))
	labels = append(labels, c.Title)
	labels = append(labels, c.Points...)
	return labels
}

// Owns reports whether label maps back to this category: equal to the title,
// or contained in the points list.
func (c *Category) Owns(label string) bool {
	if c.Title == label {
		return true
	}
	for _, p := range c.Points {
		if p == label {
			return true
		}
	}
	return false
}
