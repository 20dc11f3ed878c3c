package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/common-origin/meal-agent-sub001/internal/database"
)

// NewTestDatabase returns a migrated SQLite database living in a temp dir.
func NewTestDatabase(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db.SQL
}
