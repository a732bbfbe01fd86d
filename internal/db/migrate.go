// Package db applies the embedded goose migrations to a GORM connection.
package db

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/simp-lee/weatherlog/internal/db/migrations"
)

// MigrationStatus is one migration and whether it has been applied.
type MigrationStatus struct {
	Version int64  `json:"version"`
	File    string `json:"file"`
	Applied bool   `json:"applied"`
}

// Migrate applies all pending migrations for driver ("sqlite" or "postgres").
func Migrate(ctx context.Context, gdb *gorm.DB, driver string, logger *slog.Logger) error {
	provider, err := newProvider(gdb, driver)
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	for _, r := range results {
		if r.Error != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", r.Source.Version, r.Source.Path, r.Error)
		}
		logger.InfoContext(ctx, "migration applied",
			slog.Int64("version", r.Source.Version),
			slog.String("file", r.Source.Path),
			slog.Duration("duration", r.Duration),
		)
	}

	if len(results) == 0 {
		logger.DebugContext(ctx, "all migrations already applied")
	}
	return nil
}

// Status reports every known migration in version order.
func Status(ctx context.Context, gdb *gorm.DB, driver string) ([]MigrationStatus, error) {
	provider, err := newProvider(gdb, driver)
	if err != nil {
		return nil, err
	}

	statuses, err := provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading migration status: %w", err)
	}

	out := make([]MigrationStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, MigrationStatus{
			Version: s.Source.Version,
			File:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}

func newProvider(gdb *gorm.DB, driver string) (*goose.Provider, error) {
	var dialect goose.Dialect
	switch driver {
	case "sqlite":
		dialect = goose.DialectSQLite3
	case "postgres":
		dialect = goose.DialectPostgres
	default:
		return nil, fmt.Errorf("unsupported migration driver: %s", driver)
	}

	fsys, err := fs.Sub(migrations.FS, driver)
	if err != nil {
		return nil, fmt.Errorf("locating %s migrations: %w", driver, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	provider, err := goose.NewProvider(dialect, sqlDB, fsys)
	if err != nil {
		return nil, fmt.Errorf("creating goose provider: %w", err)
	}
	return provider, nil
}
