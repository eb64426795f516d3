package inference

import (
	"context"
	"sync"
)

// Guard is the single owner of the inference capability. The underlying
// engines are not safe for concurrent invocation, so every call to one of the
// four operations takes the same process-wide lock: at most one inference is
// in flight at any instant, from any request.
//
// Callers block until the lock is free. There is no fairness guarantee and no
// timeout; a sustained reindex scan can starve call-processing requests.
// The lock is held only for the single engine invocation, never across store
// or network I/O belonging to the caller.
type Guard struct {
	mu      sync.Mutex
	engines Engines
}

// NewGuard wraps the given engines in a single-slot guard.
func NewGuard(engines Engines) *Guard {
	return &Guard{engines: engines}
}

// Transcribe runs the transcription engine under the guard lock.
func (g *Guard) Transcribe(ctx context.Context, audioPath string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engines.Transcriber.Transcribe(ctx, audioPath)
}

// ScoreSentiment runs the sentiment engine under the guard lock.
func (g *Guard) ScoreSentiment(ctx context.Context, text string) (Sentiment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engines.Sentiment.ScoreSentiment(ctx, text)
}

// TagEntities runs the entity-recognition engine under the guard lock.
func (g *Guard) TagEntities(ctx context.Context, text string) ([]Entity, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engines.Entities.TagEntities(ctx, text)
}

// ClassifyZeroShot runs the zero-shot engine under the guard lock.
func (g *Guard) ClassifyZeroShot(ctx context.Context, text string, candidateLabels []string) ([]Label, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engines.ZeroShot.ClassifyZeroShot(ctx, text, candidateLabels)
}
