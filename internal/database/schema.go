package database

import (
	"context"
	"fmt"
	"log/slog"

	"yatube/internal/config"
	"yatube/internal/middleware"

	"gorm.io/gorm"
)

// SchemaStatus summarises which migrations have been applied.
type SchemaStatus struct {
	Driver            string
	AppliedVersions   []int
	PendingMigrations []Migration
}

// ApplySchema brings the schema up to date. Postgres runs the embedded SQL
// migrations; SQLite, used for local runs and tests, is built from the models.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	if cfg.DBDriver == "sqlite" {
		middleware.Logger.InfoContext(ctx, "Running GORM AutoMigrate", slog.String("env", cfg.Env))
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
		return nil
	}

	if err := RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("run sql migrations: %w", err)
	}
	return nil
}

// GetSchemaStatus reports applied and pending SQL migrations.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	return schemaStatus(ctx, db, cfg.DBDriver, migrations)
}

func schemaStatus(ctx context.Context, db *gorm.DB, driver string, registered []Migration) (*SchemaStatus, error) {
	if err := ensureMigrationTable(ctx, db); err != nil {
		return nil, err
	}

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{Driver: driver, AppliedVersions: applied}
	appliedSet := make(map[int]bool, len(applied))
	for _, version := range applied {
		appliedSet[version] = true
	}
	for _, m := range registered {
		if !appliedSet[m.Version] {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}
	return status, nil
}
