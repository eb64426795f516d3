package ops

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/callscribe/internal/call"
	"github.com/hpungsan/callscribe/internal/db"
	"github.com/hpungsan/callscribe/internal/errors"
	"github.com/hpungsan/callscribe/internal/inference"
	"github.com/hpungsan/callscribe/internal/logger"
)

// ReindexInput contains parameters for the Reindex operation.
type ReindexInput struct {
	// Category is the post-mutation category state (current title + points).
	Category *call.Category

	// PreviousTitle is the pre-update title when triggered by an update, nil
	// when triggered by a create.
	PreviousTitle *string
}

// ReindexOutput reports what the scan touched.
type ReindexOutput struct {
	CallsScanned int `json:"calls_scanned"`
	CallsUpdated int `json:"calls_updated"`
}

// Reindex recomputes membership of the given category across the entire call
// corpus. Membership is never carried over from before the mutation: every
// call is freshly classified against the category's current candidate labels,
// so a rename can drop calls that no longer match.
//
// The scan is synchronous and unresumable: a failure partway through returns
// immediately, leaving already-processed rows updated and the rest untouched.
func Reindex(ctx context.Context, database *sql.DB, guard *inference.Guard, input ReindexInput) (*ReindexOutput, error) {
	if input.Category == nil {
		return nil, errors.NewInvalidRequest("category is required")
	}

	currentTitle := input.Category.Title
	candidateLabels := input.Category.CandidateLabels()

	log := logger.Default().WithField("op", "reindex").WithField("category", currentTitle)
	start := time.Now()

	calls, err := db.AllCalls(database)
	if err != nil {
		return nil, err
	}

	out := &ReindexOutput{}
	for _, c := range calls {
		// One guard acquisition per call, serialized with all other
		// inference activity in the process.
		prediction, err := guard.ClassifyZeroShot(ctx, c.Text, candidateLabels)
		if err != nil {
			return nil, errors.NewEngineFailure("zero-shot", c.ID, err)
		}
		out.CallsScanned++

		belongs := false
		for _, label := range prediction {
			if label.Score > acceptThreshold {
				belongs = true
				break
			}
		}

		updated := applyMembership(c, belongs, currentTitle, input.PreviousTitle)
		if updated == nil {
			continue
		}

		if err := db.SetCallCategories(database, c.ID, updated); err != nil {
			return nil, err
		}
		out.CallsUpdated++
	}

	log.WithField("scanned", out.CallsScanned).
		WithField("updated", out.CallsUpdated).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("reindex complete")

	return out, nil
}

// applyMembership computes a call's new category set, or nil when no write is
// needed.
func applyMembership(c *call.Call, belongs bool, currentTitle string, previousTitle *string) []string {
	if belongs {
		changed := false
		categories := c.Categories
		if !c.HasCategory(currentTitle) {
			categories = append(append([]string{}, categories...), currentTitle)
			changed = true
		}
		if previousTitle != nil && *previousTitle != currentTitle {
			if trimmed, removed := without(categories, *previousTitle); removed {
				categories = trimmed
				changed = true
			}
		}
		if !changed {
			return nil
		}
		return categories
	}

	effectiveTitle := currentTitle
	if previousTitle != nil {
		effectiveTitle = *previousTitle
	}
	if trimmed, removed := without(c.Categories, effectiveTitle); removed {
		return trimmed
	}
	return nil
}

// without returns titles minus title, reporting whether anything was removed.
func without(titles []string, title string) ([]string, bool) {
	result := make([]string, 0, len(titles))
	removed := false
	for _, t := range titles {
		if t == title {
			removed = true
			continue
		}
		result = append(result, t)
	}
	return result, removed
}
