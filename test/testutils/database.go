// Package testutils provides common testing utilities and infrastructure setup
package testutils

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/embedora/embedora/internal/infrastructure/persistence/sqlite"
)

// NewTestDatabase opens an in-memory SQLite database with the full schema
// migrated. The connection is closed when the test finishes.
func NewTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := sqlite.SetupDatabase(":memory:", logger.Silent)
	require.NoError(t, err, "opening in-memory test database")

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewSeededDatabase opens an in-memory SQLite database populated with the
// deterministic demo dataset.
func NewSeededDatabase(t *testing.T) *gorm.DB {
	t.Helper()

	db := NewTestDatabase(t)
	require.NoError(t, sqlite.SeedDatabase(db), "seeding test database")
	return db
}
