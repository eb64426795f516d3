package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/callscribe/internal/call"
	"github.com/hpungsan/callscribe/internal/db"
	"github.com/hpungsan/callscribe/internal/errors"
	"github.com/hpungsan/callscribe/internal/inference"
	"github.com/hpungsan/callscribe/internal/ingest"
	"github.com/hpungsan/callscribe/internal/logger"
)

// CreateCallInput contains parameters for the CreateCall operation.
type CreateCallInput struct {
	AudioURL string
}

// CreateCallOutput contains the result of the CreateCall operation.
type CreateCallOutput struct {
	ID string `json:"id"`
}

// CreateCall runs one call through the full classification pipeline:
// ingest, transcribe, sentiment, entity extraction, category classification,
// and a single all-or-nothing insert. Stages run strictly in order; any
// failure surfaces as a distinguishable error kind with no Call row written
// and nothing retried. Staged audio content is not cleaned up on failure.
func CreateCall(ctx context.Context, database *sql.DB, guard *inference.Guard, ingestor *ingest.Ingestor, input CreateCallInput) (*CreateCallOutput, error) {
	if strings.TrimSpace(input.AudioURL) == "" {
		return nil, errors.NewInvalidRequest("audio_url is required")
	}

	log := logger.Default().WithField("op", "create_call")
	start := time.Now()

	// Ingest first: a fetch or storage failure must never reach the models.
	handle, err := ingestor.Fetch(input.AudioURL)
	if err != nil {
		return nil, err
	}
	log = log.WithField("call_id", handle.ID)

	text, err := guard.Transcribe(ctx, handle.Path)
	if err != nil {
		return nil, errors.NewEngineFailure("transcribe", handle.ID, err)
	}

	sentiment, err := guard.ScoreSentiment(ctx, text)
	if err != nil {
		return nil, errors.NewEngineFailure("sentiment", handle.ID, err)
	}
	tone := deriveTone(sentiment)

	entities, err := guard.TagEntities(ctx, text)
	if err != nil {
		return nil, errors.NewEngineFailure("entities", handle.ID, err)
	}
	name, location := collectEntities(entities)

	catalog, err := db.ListCategories(database)
	if err != nil {
		return nil, err
	}

	titles, err := classifyCategories(ctx, guard, handle.ID, text, catalog)
	if err != nil {
		return nil, err
	}

	c := &call.Call{
		ID:            handle.ID,
		Name:          name,
		Location:      location,
		EmotionalTone: &tone,
		Text:          text,
		Categories:    titles,
		CreatedAt:     time.Now().Unix(),
	}
	if err := db.InsertCall(database, c); err != nil {
		return nil, err
	}

	log.WithField("categories", len(titles)).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("call classified")

	return &CreateCallOutput{ID: handle.ID}, nil
}

// deriveTone maps a sentiment prediction to an emotional tone. The exact
// cutoffs (strict > 0.999, strict < 0.9) are load-bearing.
func deriveTone(s inference.Sentiment) call.EmotionalTone {
	switch s.Polarity {
	case inference.PolarityPositive:
		if s.Score > toneStrongCutoff {
			return call.TonePositive
		}
		return call.ToneNeutral
	case inference.PolarityNegative:
		if s.Score > toneStrongCutoff {
			return call.ToneAngry
		}
		if s.Score < toneWeakCutoff {
			return call.ToneNegative
		}
		return call.ToneNeutral
	default:
		return call.ToneNeutral
	}
}

// collectEntities gathers person and location tokens. Empty collections
// become absent values: "found nothing" and "no value" are indistinguishable
// in the persisted record.
func collectEntities(entities []inference.Entity) (name, location *string) {
	var names, locations []string
	for _, e := range entities {
		switch e.Label {
		case "I-PER":
			names = append(names, e.Word)
		case "I-LOC":
			locations = append(locations, e.Word)
		}
	}

	if len(names) > 0 {
		joined := strings.Join(names, " ")
		name = &joined
	}
	if len(locations) > 0 {
		joined := strings.Join(locations, " ")
		location = &joined
	}
	return name, location
}

// classifyCategories runs one multilabel zero-shot classification of text
// against the union of every category's candidate labels, then maps accepted
// labels back to their owning categories.
func classifyCategories(ctx context.Context, guard *inference.Guard, callID, text string, catalog []*call.Category) ([]string, error) {
	var universe []string
	for _, c := range catalog {
		universe = append(universe, c.CandidateLabels()...)
	}
	if len(universe) == 0 {
		return nil, nil
	}

	labels, err := guard.ClassifyZeroShot(ctx, text, universe)
	if err != nil {
		return nil, errors.NewEngineFailure("zero-shot", callID, err)
	}

	var titles []string
	seen := make(map[string]bool)
	for _, label := range labels {
		if label.Score <= acceptThreshold {
			continue
		}
		// First category owning the label wins; unmapped labels are dropped.
		for _, c := range catalog {
			if c.Owns(label.Text) {
				if !seen[c.Title] {
					seen[c.Title] = true
					titles = append(titles, c.Title)
				}
				break
			}
		}
	}
	return titles, nil
}
