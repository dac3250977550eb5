package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsDir = "migrations"

// goose keeps its FS and dialect in package globals.
var gooseMu sync.Mutex

func withGoose(fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(migrationFiles)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return fn()
}

// RunMigrations applies every pending embedded migration. A nil database is
// a no-op so the in-memory dev mode can share the startup path.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	if database == nil {
		return nil
	}
	return withGoose(func() error {
		if err := goose.UpContext(ctx, database, migrationsDir); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		return nil
	})
}

// MigrationStatus logs the applied state of every embedded migration.
func MigrationStatus(ctx context.Context, database *sql.DB) error {
	return withGoose(func() error {
		return goose.StatusContext(ctx, database, migrationsDir)
	})
}

// RollbackLast reverts the most recent migration.
func RollbackLast(ctx context.Context, database *sql.DB) error {
	return withGoose(func() error {
		if err := goose.DownContext(ctx, database, migrationsDir); err != nil {
			return fmt.Errorf("rollback migration: %w", err)
		}
		return nil
	})
}

// SchemaVersion returns the latest applied migration version.
func SchemaVersion(ctx context.Context, database *sql.DB) (int64, error) {
	var version int64
	err := withGoose(func() error {
		v, err := goose.GetDBVersionContext(ctx, database)
		version = v
		return err
	})
	return version, err
}
