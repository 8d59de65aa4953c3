// Package dbtest opens throwaway databases for tests.
package dbtest

import (
	"testing"

	"github.com/decisioniq/decisioniq-api/internal/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Open returns a migrated, isolated in-memory SQLite database that is
// closed when the test ends.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := database.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
