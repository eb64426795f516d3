package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/callscribe/internal/call"
	"github.com/hpungsan/callscribe/internal/db"
	"github.com/hpungsan/callscribe/internal/errors"
	"github.com/hpungsan/callscribe/internal/inference"
)

// ListCategories returns the full category catalog.
func ListCategories(database *sql.DB) ([]*call.Category, error) {
	categories, err := db.ListCategories(database)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []*call.Category{}
	}
	return categories, nil
}

// CreateCategoryInput contains parameters for the CreateCategory operation.
type CreateCategoryInput struct {
	Title  string
	Points []string
}

// CreateCategory inserts a new category and synchronously reindexes the whole
// call corpus against it (previous title absent). The HTTP request stays open
// for the duration of the scan.
func CreateCategory(ctx context.Context, database *sql.DB, guard *inference.Guard, input CreateCategoryInput) (*call.Category, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errors.NewInvalidRequest("title is required")
	}

	category, err := db.InsertCategory(database, title, input.Points)
	if err != nil {
		return nil, err
	}

	if _, err := Reindex(ctx, database, guard, ReindexInput{Category: category}); err != nil {
		return nil, err
	}

	return category, nil
}

// UpdateCategoryInput contains parameters for the UpdateCategory operation.
// Nil fields keep their prior values.
type UpdateCategoryInput struct {
	Title  *string
	Points *[]string
}

// UpdateCategory applies a partial update and synchronously reindexes with
// previousTitle = the pre-update title. Membership is recomputed from
// scratch, never substituted: a rename is an add-new/remove-old pair driven
// by fresh classification against the post-update candidate labels.
func UpdateCategory(ctx context.Context, database *sql.DB, guard *inference.Guard, id int64, input UpdateCategoryInput) (*call.Category, error) {
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return nil, errors.NewInvalidRequest("title must not be empty")
	}

	prior, err := db.GetCategory(database, id)
	if err != nil {
		return nil, err
	}
	previousTitle := prior.Title

	category, err := db.UpdateCategory(database, id, input.Title, input.Points)
	if err != nil {
		return nil, err
	}

	reindexInput := ReindexInput{Category: category, PreviousTitle: &previousTitle}
	if _, err := Reindex(ctx, database, guard, reindexInput); err != nil {
		return nil, err
	}

	return category, nil
}

// DeleteCategoryOutput contains the result of the DeleteCategory operation.
type DeleteCategoryOutput struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// DeleteCategory removes a category and unconditionally strips its title from
// every call's category set at the storage layer. No reclassification runs:
// with the category gone there is nothing to classify against, so the
// inference guard is never touched.
func DeleteCategory(database *sql.DB, id int64) (*DeleteCategoryOutput, error) {
	title, err := db.DeleteCategory(database, id)
	if err != nil {
		return nil, err
	}

	if err := db.StripCategoryFromCalls(database, title); err != nil {
		return nil, err
	}

	return &DeleteCategoryOutput{ID: id, Title: title}, nil
}
