package testutil

import (
	"database/sql"
	"testing"

	"github.com/alexanderramin/pdptrack/internal/db"
)

// NewTestDB opens a fresh in-memory plan database with the users, plans,
// curators, skills, progress and templates tables migrated. It is closed
// when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}

// NewTestUoW returns the production unit of work over a test database, for
// services that write several rows per call.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}
