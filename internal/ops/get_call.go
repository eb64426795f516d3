package ops

import (
	"database/sql"

	"github.com/hpungsan/callscribe/internal/call"
	"github.com/hpungsan/callscribe/internal/db"
)

// GetCall retrieves a classified call by id.
func GetCall(database *sql.DB, id string) (*call.Call, error) {
	return db.GetCall(database, id)
}
