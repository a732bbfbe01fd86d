package pkg

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ledgerRow struct {
	ID       uint `gorm:"primaryKey"`
	UpdateID string
	Field    string
}

func openLedgerDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&ledgerRow{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func countRows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&ledgerRow{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func insertBatch(tx *gorm.DB, updateID string, fields ...string) error {
	for _, f := range fields {
		if err := tx.Create(&ledgerRow{UpdateID: updateID, Field: f}).Error; err != nil {
			return err
		}
	}
	return nil
}

func TestWithTx_CommitsWholeBatch(t *testing.T) {
	db := openLedgerDB(t)

	err := WithTx(context.Background(), db, func(tx *gorm.DB) error {
		return insertBatch(tx, "u-1", "Humidity", "Condition")
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}
	if got := countRows(t, db); got != 2 {
		t.Fatalf("rows = %d, want 2", got)
	}
}

func TestWithTx_ErrorDiscardsPartialBatch(t *testing.T) {
	db := openLedgerDB(t)
	boom := errors.New("second write failed")

	err := WithTx(context.Background(), db, func(tx *gorm.DB) error {
		if err := insertBatch(tx, "u-2", "TempMin"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want %v", err, boom)
	}
	if got := countRows(t, db); got != 0 {
		t.Fatalf("rows = %d, want 0 after rollback", got)
	}
}

func TestWithTx_PanicRollsBackAndRepanics(t *testing.T) {
	db := openLedgerDB(t)

	func() {
		defer func() {
			if r := recover(); r != "kaboom" {
				t.Fatalf("recovered %v, want kaboom", r)
			}
		}()
		_ = WithTx(context.Background(), db, func(tx *gorm.DB) error {
			if err := insertBatch(tx, "u-3", "WindSpeed"); err != nil {
				return err
			}
			panic("kaboom")
		})
	}()

	if got := countRows(t, db); got != 0 {
		t.Fatalf("rows = %d, want 0 after panic", got)
	}
}

func TestWithTx_CanceledContext(t *testing.T) {
	db := openLedgerDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := WithTx(ctx, db, func(tx *gorm.DB) error {
		called = true
		return insertBatch(tx, "u-4", "WindDeg")
	})
	if err == nil {
		t.Fatal("WithTx() error = nil, want context error")
	}
	if called && countRows(t, db) != 0 {
		t.Fatal("rows written under a canceled context")
	}
}

func TestWithTx_NilDB(t *testing.T) {
	err := WithTx(context.Background(), nil, func(*gorm.DB) error {
		t.Fatal("fn must not run without a database")
		return nil
	})
	if !errors.Is(err, ErrNilDB) {
		t.Fatalf("WithTx() error = %v, want ErrNilDB", err)
	}
}
