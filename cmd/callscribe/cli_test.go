package main

import (
	"database/sql"
	"testing"

	"github.com/hpungsan/callscribe/internal/config"
	"github.com/hpungsan/callscribe/internal/db"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.BaseDir = t.TempDir()
	return cfg
}

func TestCategoriesCommand(t *testing.T) {
	database := setupTestDB(t)
	if _, err := db.InsertCategory(database, "Billing", []string{"invoice"}); err != nil {
		t.Fatal(err)
	}

	app := newCLIApp(database, testConfig(t))
	if err := app.Run([]string{"callscribe", "categories"}); err != nil {
		t.Fatalf("categories command failed: %v", err)
	}
}

func TestReindexCommand_MissingArg(t *testing.T) {
	database := setupTestDB(t)

	app := newCLIApp(database, testConfig(t))
	if err := app.Run([]string{"callscribe", "reindex"}); err == nil {
		t.Fatal("expected error for missing category id")
	}
}

func TestReindexCommand_UnknownCategory(t *testing.T) {
	database := setupTestDB(t)

	app := newCLIApp(database, testConfig(t))
	if err := app.Run([]string{"callscribe", "reindex", "42"}); err == nil {
		t.Fatal("expected error for unknown category id")
	}
}

func TestReindexCommand_NonNumericID(t *testing.T) {
	database := setupTestDB(t)

	app := newCLIApp(database, testConfig(t))
	if err := app.Run([]string{"callscribe", "reindex", "abc"}); err == nil {
		t.Fatal("expected error for non-numeric category id")
	}
}
