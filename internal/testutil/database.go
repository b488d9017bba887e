package testutil

import (
	"testing"

	"tgdrive/internal/database"
	"tgdrive/internal/database/migrations"
	"tgdrive/internal/drive"
)

// NewTestIndex creates a new in-memory SQLite index with schema applied.
// The index is automatically closed when the test completes.
func NewTestIndex(t *testing.T) drive.Index {
	t.Helper()

	sqlDB, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := migrations.MigrateUp(sqlDB); err != nil {
		sqlDB.Close()
		t.Fatalf("failed to apply migrations: %v", err)
	}

	idx := database.NewSQLiteIndexFromDB(sqlDB)

	t.Cleanup(func() {
		idx.Close()
	})

	return idx
}
