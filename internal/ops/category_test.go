package ops

import (
	"context"
	"testing"

	"github.com/hpungsan/callscribe/internal/db"
	"github.com/hpungsan/callscribe/internal/errors"
	"github.com/hpungsan/callscribe/internal/inference"
)

func TestCreateCategory_ReindexesCorpus(t *testing.T) {
	env := setupEnv(t)
	seedCall(t, env.database, "01A", "please fix my invoice", nil)

	env.zeroShot.ClassifyFunc = func(ctx context.Context, text string, candidateLabels []string) ([]inference.Label, error) {
		return []inference.Label{{Text: "invoice", Score: 0.94}}, nil
	}

	category, err := CreateCategory(context.Background(), env.database, env.guard,
		CreateCategoryInput{Title: "Billing", Points: []string{"invoice"}})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if category.ID == 0 {
		t.Error("category.ID not assigned")
	}

	c, _ := db.GetCall(env.database, "01A")
	if !c.HasCategory("Billing") {
		t.Errorf("call categories = %v, want Billing after create", c.Categories)
	}
}

func TestCreateCategory_EmptyTitle(t *testing.T) {
	env := setupEnv(t)

	_, err := CreateCategory(context.Background(), env.database, env.guard,
		CreateCategoryInput{Title: "   "})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("error = %v, want INVALID_REQUEST", err)
	}
}

func TestCreateCategory_DuplicateTitle(t *testing.T) {
	env := setupEnv(t)
	if _, err := db.InsertCategory(env.database, "Billing", nil); err != nil {
		t.Fatal(err)
	}

	_, err := CreateCategory(context.Background(), env.database, env.guard,
		CreateCategoryInput{Title: "Billing"})
	if !errors.Is(err, errors.ErrConflict) {
		t.Errorf("error = %v, want CONFLICT", err)
	}
}

func TestUpdateCategory_RenameReindexes(t *testing.T) {
	env := setupEnv(t)
	stored, err := db.InsertCategory(env.database, "Billing", []string{"invoice"})
	if err != nil {
		t.Fatal(err)
	}
	seedCall(t, env.database, "01A", "invoice trouble", []string{"Billing"})

	env.zeroShot.ClassifyFunc = func(ctx context.Context, text string, candidateLabels []string) ([]inference.Label, error) {
		return []inference.Label{{Text: "Invoices", Score: 0.96}}, nil
	}

	title := "Invoices"
	category, err := UpdateCategory(context.Background(), env.database, env.guard, stored.ID,
		UpdateCategoryInput{Title: &title})
	if err != nil {
		t.Fatalf("UpdateCategory() error = %v", err)
	}
	if category.Title != "Invoices" {
		t.Errorf("Title = %q, want Invoices", category.Title)
	}
	// Points untouched by a title-only update
	if len(category.Points) != 1 || category.Points[0] != "invoice" {
		t.Errorf("Points = %v, want [invoice]", category.Points)
	}

	c, _ := db.GetCall(env.database, "01A")
	if c.HasCategory("Billing") {
		t.Errorf("categories = %v, old title must be gone", c.Categories)
	}
	if !c.HasCategory("Invoices") {
		t.Errorf("categories = %v, want new title", c.Categories)
	}
}

func TestUpdateCategory_MissingID(t *testing.T) {
	env := setupEnv(t)

	title := "Billing"
	_, err := UpdateCategory(context.Background(), env.database, env.guard, 999,
		UpdateCategoryInput{Title: &title})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
	if env.zeroShot.Calls() != 0 {
		t.Errorf("zero-shot calls = %d, want 0 when update fails", env.zeroShot.Calls())
	}
}

func TestUpdateCategory_EmptyTitle(t *testing.T) {
	env := setupEnv(t)
	stored, err := db.InsertCategory(env.database, "Billing", nil)
	if err != nil {
		t.Fatal(err)
	}

	title := ""
	_, err = UpdateCategory(context.Background(), env.database, env.guard, stored.ID,
		UpdateCategoryInput{Title: &title})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("error = %v, want INVALID_REQUEST", err)
	}
}

func TestDeleteCategory_StripsTitleWithoutInference(t *testing.T) {
	env := setupEnv(t)
	stored, err := db.InsertCategory(env.database, "Billing", nil)
	if err != nil {
		t.Fatal(err)
	}
	seedCall(t, env.database, "01A", "a", []string{"Billing", "Support"})
	seedCall(t, env.database, "01B", "b", []string{"Support"})

	out, err := DeleteCategory(env.database, stored.ID)
	if err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}
	if out.Title != "Billing" {
		t.Errorf("Title = %q, want Billing", out.Title)
	}

	// Deletion is an unconditional strip: no classification runs at all.
	if env.zeroShot.Calls() != 0 {
		t.Errorf("zero-shot calls = %d, want 0", env.zeroShot.Calls())
	}

	a, _ := db.GetCall(env.database, "01A")
	if a.HasCategory("Billing") {
		t.Errorf("01A categories = %v, Billing must be stripped", a.Categories)
	}
	if !a.HasCategory("Support") {
		t.Errorf("01A categories = %v, unrelated title must survive", a.Categories)
	}
	b, _ := db.GetCall(env.database, "01B")
	if len(b.Categories) != 1 || b.Categories[0] != "Support" {
		t.Errorf("01B categories = %v, want [Support]", b.Categories)
	}
}

func TestDeleteCategory_NotFound(t *testing.T) {
	env := setupEnv(t)

	_, err := DeleteCategory(env.database, 42)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestListCategories_EmptyCatalog(t *testing.T) {
	env := setupEnv(t)

	categories, err := ListCategories(env.database)
	if err != nil {
		t.Fatal(err)
	}
	if categories == nil {
		t.Fatal("categories is nil, want empty slice")
	}
	if len(categories) != 0 {
		t.Errorf("categories = %v, want empty", categories)
	}
}
