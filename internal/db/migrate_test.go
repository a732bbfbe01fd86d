package db

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return gdb
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMigrate_CreatesSchema(t *testing.T) {
	gdb := newMemoryDB(t)
	ctx := context.Background()

	if err := Migrate(ctx, gdb, "sqlite", discardLogger()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	for _, table := range []string{"users", "weather_searches", "change_logs"} {
		if !gdb.Migrator().HasTable(table) {
			t.Errorf("expected table %s to exist", table)
		}
	}
	if !gdb.Migrator().HasColumn("change_logs", "update_id") {
		t.Error("expected change_logs.update_id column")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	gdb := newMemoryDB(t)
	ctx := context.Background()

	if err := Migrate(ctx, gdb, "sqlite", discardLogger()); err != nil {
		t.Fatalf("first Migrate: %v", err)
	}
	if err := Migrate(ctx, gdb, "sqlite", discardLogger()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	statuses, err := Status(ctx, gdb, "sqlite")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(statuses) == 0 {
		t.Fatal("expected at least one migration")
	}
	for _, s := range statuses {
		if !s.Applied {
			t.Errorf("migration %d (%s) not applied", s.Version, s.File)
		}
	}
}

func TestStatus_BeforeMigrate(t *testing.T) {
	gdb := newMemoryDB(t)

	statuses, err := Status(context.Background(), gdb, "sqlite")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	for _, s := range statuses {
		if s.Applied {
			t.Errorf("migration %d unexpectedly applied", s.Version)
		}
	}
}

func TestMigrate_UnsupportedDriver(t *testing.T) {
	gdb := newMemoryDB(t)
	if err := Migrate(context.Background(), gdb, "mysql", discardLogger()); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
