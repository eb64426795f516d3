package inference

import "context"

// SentimentPolarity is the coarse sentiment direction of a transcript.
type SentimentPolarity string

const (
	PolarityPositive SentimentPolarity = "Positive"
	PolarityNegative SentimentPolarity = "Negative"
)

// Sentiment pairs a polarity with the engine's confidence score.
type Sentiment struct {
	Polarity SentimentPolarity `json:"polarity"`
	Score    float64           `json:"score"`
}

// Entity is one tagged token from the entity-recognition engine.
// Labels follow the CoNLL convention ("I-PER", "I-LOC", ...).
type Entity struct {
	Word  string `json:"word"`
	Label string `json:"label"`
}

// Label is one scored candidate from the zero-shot classifier.
type Label struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Transcriber converts stored audio content into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// SentimentScorer scores the overall sentiment of a transcript.
type SentimentScorer interface {
	ScoreSentiment(ctx context.Context, text string) (Sentiment, error)
}

// EntityTagger extracts tagged tokens from a transcript.
type EntityTagger interface {
	TagEntities(ctx context.Context, text string) ([]Entity, error)
}

// ZeroShotClassifier scores a transcript against arbitrary candidate labels.
type ZeroShotClassifier interface {
	ClassifyZeroShot(ctx context.Context, text string, candidateLabels []string) ([]Label, error)
}

// Engines bundles the four inference capabilities, loaded once at process
// start and torn down only at process exit.
type Engines struct {
	Transcriber Transcriber
	Sentiment   SentimentScorer
	Entities    EntityTagger
	ZeroShot    ZeroShotClassifier
}
