package db

import (
	"database/sql"
	"encoding/json"

	"github.com/hpungsan/callscribe/internal/call"
	"github.com/hpungsan/callscribe/internal/errors"
)

// InsertCall stores a fully-classified call in a single statement.
// The pipeline calls this exactly once, as its final stage; there is no
// partial insert.
func InsertCall(db *sql.DB, c *call.Call) error {
	categoriesJSON, err := json.Marshal(normalizeSet(c.Categories))
	if err != nil {
		return errors.NewInternal(err)
	}

	var tone sql.NullString
	if c.EmotionalTone != nil {
		tone = sql.NullString{String: string(*c.EmotionalTone), Valid: true}
	}

	query := `
		INSERT INTO calls (id, name, location, emotional_tone, text, categories_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = db.Exec(query,
		c.ID, toNullString(c.Name), toNullString(c.Location), tone,
		c.Text, string(categoriesJSON), c.CreatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewConflict("call id already exists")
		}
		return errors.NewConnection(err)
	}

	return nil
}

// GetCall retrieves a call by id.
func GetCall(db *sql.DB, id string) (*call.Call, error) {
	query := `
		SELECT id, name, location, emotional_tone, text, categories_json, created_at
		FROM calls
		WHERE id = ?
	`

	c, err := scanCall(db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewConnection(err)
	}

	return c, nil
}

// AllCalls returns every call in the corpus, oldest first.
// The reindexer scans this snapshot; rows inserted after the query started
// are not revisited.
func AllCalls(db *sql.DB) ([]*call.Call, error) {
	query := `
		SELECT id, name, location, emotional_tone, text, categories_json, created_at
		FROM calls
		ORDER BY created_at, id
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, errors.NewConnection(err)
	}
	defer rows.Close()

	var calls []*call.Call
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, errors.NewConnection(err)
		}
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewConnection(err)
	}

	return calls, nil
}

// CountCalls returns the size of the call corpus.
func CountCalls(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM calls").Scan(&n); err != nil {
		return 0, errors.NewConnection(err)
	}
	return n, nil
}

// SetCallCategories replaces one call's category set in a single statement.
// Last writer wins per row; the reindexer relies on exactly that.
func SetCallCategories(db *sql.DB, id string, categories []string) error {
	categoriesJSON, err := json.Marshal(normalizeSet(categories))
	if err != nil {
		return errors.NewInternal(err)
	}

	result, err := db.Exec(`UPDATE calls SET categories_json = ? WHERE id = ?`, string(categoriesJSON), id)
	if err != nil {
		return errors.NewConnection(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewConnection(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}

	return nil
}

// StripCategoryFromCalls removes title from every call's category set in one
// statement, with no reclassification. Used by the category delete cascade.
func StripCategoryFromCalls(db *sql.DB, title string) error {
	query := `
		UPDATE calls
		SET categories_json = (
			SELECT COALESCE(json_group_array(je.value), '[]')
			FROM json_each(calls.categories_json) AS je
			WHERE je.value <> ?1
		)
		WHERE EXISTS (
			SELECT 1 FROM json_each(calls.categories_json) AS je
			WHERE je.value = ?1
		)
	`

	if _, err := db.Exec(query, title); err != nil {
		return errors.NewConnection(err)
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanCall.
type scanner interface {
	Scan(dest ...any) error
}

// scanCall scans a single row into a Call struct.
func scanCall(row scanner) (*call.Call, error) {
	var (
		c              call.Call
		name           sql.NullString
		location       sql.NullString
		tone           sql.NullString
		categoriesJSON string
	)

	err := row.Scan(&c.ID, &name, &location, &tone, &c.Text, &categoriesJSON, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	c.Name = fromNullString(name)
	c.Location = fromNullString(location)
	if tone.Valid {
		t := call.EmotionalTone(tone.String)
		c.EmotionalTone = &t
	}

	if err := json.Unmarshal([]byte(categoriesJSON), &c.Categories); err != nil {
		return nil, err
	}
	if c.Categories == nil {
		c.Categories = []string{}
	}

	return &c, nil
}

// normalizeSet deduplicates while preserving first-seen order, and never
// returns nil so the JSON column holds '[]' rather than 'null'.
func normalizeSet(titles []string) []string {
	seen := make(map[string]bool, len(titles))
	result := make([]string, 0, len(titles))
	for _, t := range titles {
		if !seen[t] {
			seen[t] = true
			result = append(result, t)
		}
	}
	return result
}
