// Package dbtest opens throwaway SQLite databases migrated with the service models.
package dbtest

import (
	"io"
	"log"
	"testing"

	"github.com/dormledger/hostel-inventory/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Models lists every table the service owns, in dependency order.
func Models() []any {
	return []any{
		&models.Student{},
		&models.User{},
		&models.InventoryStock{},
		&models.StudentInventory{},
		&models.InventoryAudit{},
		&models.InventoryAuditItem{},
	}
}

// Open returns an isolated in-memory database. The pool is pinned to one connection so
// concurrent callers queue the way row locks would make them queue on Postgres.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:dorm_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger: gormlogger.New(
			log.New(io.Discard, "", log.LstdFlags),
			gormlogger.Config{LogLevel: gormlogger.Silent},
		),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(Models()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return conn
}

// SeedStudent inserts a student with the given name and returns it.
func SeedStudent(t testing.TB, conn *gorm.DB, fullName string) *models.Student {
	t.Helper()
	student := &models.Student{
		FullName:   fullName,
		RoomNumber: "101",
		Faculty:    "FIT",
		Course:     2,
		StudyGroup: "KN-21",
	}
	if err := conn.Create(student).Error; err != nil {
		t.Fatalf("seed student: %v", err)
	}
	return student
}
