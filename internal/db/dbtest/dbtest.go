// Package dbtest opens throwaway in-memory SQLite databases for tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/diewo77/go-deliberations/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN returns a per-test shared-cache memory DSN with foreign keys enforced.
func DSN(t testing.TB) string {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
}

// OpenEmpty opens a fresh database without any tables.
func OpenEmpty(t testing.TB) *gorm.DB {
	t.Helper()
	d, err := gorm.Open(sqlite.Open(DSN(t)), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("db open: %v", err)
	}
	sqlDB, err := d.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return d
}

// Open opens a fresh database with the schema migrated.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	d := OpenEmpty(t)
	if err := db.Migrate(d); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return d
}
