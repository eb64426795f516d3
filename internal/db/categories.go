package db

import (
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/hpungsan/callscribe/internal/call"
	"github.com/hpungsan/callscribe/internal/errors"
)

// InsertCategory creates a category and returns it with its assigned id.
func InsertCategory(db *sql.DB, title string, points []string) (*call.Category, error) {
	pointsJSON, err := marshalPoints(points)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	result, err := db.Exec(`INSERT INTO categories (title, points_json) VALUES (?, ?)`, title, pointsJSON)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, errors.NewConflict("category title already exists: " + title)
		}
		return nil, errors.NewConnection(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.NewConnection(err)
	}

	return &call.Category{ID: id, Title: title, Points: points}, nil
}

// GetCategory retrieves a category by id.
func GetCategory(db *sql.DB, id int64) (*call.Category, error) {
	row := db.QueryRow(`SELECT id, title, points_json FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(formatID(id))
	}
	if err != nil {
		return nil, errors.NewConnection(err)
	}
	return c, nil
}

// ListCategories returns the full category catalog (title + points for every
// category), ordered by id.
func ListCategories(db *sql.DB) ([]*call.Category, error) {
	rows, err := db.Query(`SELECT id, title, points_json FROM categories ORDER BY id`)
	if err != nil {
		return nil, errors.NewConnection(err)
	}
	defer rows.Close()

	var categories []*call.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, errors.NewConnection(err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewConnection(err)
	}

	return categories, nil
}

// UpdateCategory applies a partial update: nil title or points keep the prior
// value (COALESCE semantics). A non-nil empty points list is not an omission:
// it binds a non-NULL empty array through the COALESCE and clears the prior
// points. Returns the post-update category.
func UpdateCategory(db *sql.DB, id int64, title *string, points *[]string) (*call.Category, error) {
	var pointsJSON sql.NullString
	if points != nil {
		p := *points
		if p == nil {
			p = []string{}
		}
		data, err := json.Marshal(p)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		pointsJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `
		UPDATE categories
		SET title = COALESCE(?, title), points_json = COALESCE(?, points_json)
		WHERE id = ?
	`

	result, err := db.Exec(query, toNullString(title), pointsJSON, id)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, errors.NewConflict("category title already exists")
		}
		return nil, errors.NewConnection(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, errors.NewConnection(err)
	}
	if rowsAffected == 0 {
		return nil, errors.NewNotFound(formatID(id))
	}

	return GetCategory(db, id)
}

// DeleteCategory removes a category row and returns its title so the caller
// can cascade the removal across the call corpus.
func DeleteCategory(db *sql.DB, id int64) (string, error) {
	c, err := GetCategory(db, id)
	if err != nil {
		return "", err
	}

	if _, err := db.Exec(`DELETE FROM categories WHERE id = ?`, id); err != nil {
		return "", errors.NewConnection(err)
	}

	return c.Title, nil
}

// scanCategory scans a single row into a Category struct.
func scanCategory(row scanner) (*call.Category, error) {
	var (
		c          call.Category
		pointsJSON sql.NullString
	)

	if err := row.Scan(&c.ID, &c.Title, &pointsJSON); err != nil {
		return nil, err
	}

	if pointsJSON.Valid && pointsJSON.String != "" {
		if err := json.Unmarshal([]byte(pointsJSON.String), &c.Points); err != nil {
			return nil, err
		}
	}
	// A cleared list reads back the same as never having had one.
	if len(c.Points) == 0 {
		c.Points = nil
	}

	return &c, nil
}

// marshalPoints encodes points as JSON, mapping an empty list to NULL.
func marshalPoints(points []string) (sql.NullString, error) {
	if len(points) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(points)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func formatID(id int64) string {
	return "category " + strconv.FormatInt(id, 10)
}
