package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/quorumworks/govscore/internal/ledger"
)

// OpenTestDB opens an in-memory sqlite database and migrates the ledger
// schema. The pool is pinned to one connection so concurrent test
// goroutines serialize on the store's atomic primitives, not on sqlite
// connection setup.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := ledger.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}
