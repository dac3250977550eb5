package main

// Manage the cover letter schema:
//   go run ./cmd/migrate          apply pending migrations
//   go run ./cmd/migrate status   list applied and pending migrations
//   go run ./cmd/migrate down     revert the latest migration

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"coverletter-backend/internal/shared/config"
	"coverletter-backend/internal/shared/storage/db"
	"coverletter-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err})
		telemetry.Sync()
		os.Exit(1)
	}

	err = run(ctx, sqlDB, command)
	_ = sqlDB.Close()
	if err != nil {
		telemetry.Error("migrate.failed", map[string]any{"command": command, "error": err})
		telemetry.Sync()
		os.Exit(1)
	}
	telemetry.Sync()
}

func run(ctx context.Context, sqlDB *sql.DB, command string) error {
	switch command {
	case "up":
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return err
		}
	case "status":
		return db.MigrationStatus(ctx, sqlDB)
	case "down":
		if err := db.RollbackLast(ctx, sqlDB); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown command %q (want up, status or down)", command)
	}

	version, err := db.SchemaVersion(ctx, sqlDB)
	if err != nil {
		return err
	}
	telemetry.Info("migrate.completed", map[string]any{"command": command, "version": version})
	return nil
}
