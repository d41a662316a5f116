package db

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB creates a migrated SQLite database in a temp dir.
// A single connection serializes writers the way row locks do on Postgres.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.sqlite3")
	conn, err := gorm.Open(sqlite.Open(sqliteDSN(path)), &gorm.Config{Logger: logger.Discard, NowFunc: nowUTC})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(conn); err != nil {
		sqlDB.Close()
		t.Fatalf("migrating test database: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	return conn
}
