// Package inferencetest provides mock engines for testing pipeline and
// reindex behavior without a model server.
package inferencetest

import (
	"context"
	"sync"

	"github.com/hpungsan/callscribe/internal/inference"
)

// MockTranscriber is a mock implementation of inference.Transcriber.
type MockTranscriber struct {
	TranscribeFunc func(ctx context.Context, audioPath string) (string, error)

	mu        sync.Mutex
	CallCount int
	LastPath  string
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	m.mu.Lock()
	m.CallCount++
	m.LastPath = audioPath
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audioPath)
	}
	return "mock transcript", nil
}

// Calls returns the number of invocations so far.
func (m *MockTranscriber) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// MockSentimentScorer is a mock implementation of inference.SentimentScorer.
type MockSentimentScorer struct {
	ScoreFunc func(ctx context.Context, text string) (inference.Sentiment, error)

	mu        sync.Mutex
	CallCount int
	LastText  string
}

func (m *MockSentimentScorer) ScoreSentiment(ctx context.Context, text string) (inference.Sentiment, error) {
	m.mu.Lock()
	m.CallCount++
	m.LastText = text
	m.mu.Unlock()

	if m.ScoreFunc != nil {
		return m.ScoreFunc(ctx, text)
	}
	return inference.Sentiment{Polarity: inference.PolarityPositive, Score: 0.5}, nil
}

func (m *MockSentimentScorer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// MockEntityTagger is a mock implementation of inference.EntityTagger.
type MockEntityTagger struct {
	TagFunc func(ctx context.Context, text string) ([]inference.Entity, error)

	mu        sync.Mutex
	CallCount int
	LastText  string
}

func (m *MockEntityTagger) TagEntities(ctx context.Context, text string) ([]inference.Entity, error) {
	m.mu.Lock()
	m.CallCount++
	m.LastText = text
	m.mu.Unlock()

	if m.TagFunc != nil {
		return m.TagFunc(ctx, text)
	}
	return nil, nil
}

func (m *MockEntityTagger) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// MockZeroShotClassifier is a mock implementation of inference.ZeroShotClassifier.
type MockZeroShotClassifier struct {
	ClassifyFunc func(ctx context.Context, text string, candidateLabels []string) ([]inference.Label, error)

	mu         sync.Mutex
	CallCount  int
	LastText   string
	LastLabels []string
}

func (m *MockZeroShotClassifier) ClassifyZeroShot(ctx context.Context, text string, candidateLabels []string) ([]inference.Label, error) {
	m.mu.Lock()
	m.CallCount++
	m.LastText = text
	m.LastLabels = candidateLabels
	m.mu.Unlock()

	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, text, candidateLabels)
	}
	// Default: nothing scores above any threshold
	return nil, nil
}

func (m *MockZeroShotClassifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// Engines bundles fresh mocks into an inference.Engines value.
func Engines(t *MockTranscriber, s *MockSentimentScorer, e *MockEntityTagger, z *MockZeroShotClassifier) inference.Engines {
	if t == nil {
		t = &MockTranscriber{}
	}
	if s == nil {
		s = &MockSentimentScorer{}
	}
	if e == nil {
		e = &MockEntityTagger{}
	}
	if z == nil {
		z = &MockZeroShotClassifier{}
	}
	return inference.Engines{Transcriber: t, Sentiment: s, Entities: e, ZeroShot: z}
}
