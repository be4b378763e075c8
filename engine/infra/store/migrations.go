package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/karmachain/feedback-engine/pkg/logger"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	migrationOnce sync.Once
	migrationErr  error
)

// ResetMigrationsForTest resets the migration singleton for testing.
func ResetMigrationsForTest() {
	migrationOnce = sync.Once{}
	migrationErr = nil
}

// RunMigrations applies the embedded karma ledger migrations on the pool's
// database. Safe to call from multiple instances thanks to an advisory lock.
func (db *DB) RunMigrations(ctx context.Context) error {
	sqlDB := stdlib.OpenDBFromPool(db.pool)
	defer sqlDB.Close()
	return runEmbeddedMigrations(ctx, sqlDB)
}

func runEmbeddedMigrations(ctx context.Context, db *sql.DB) error {
	migrationOnce.Do(func() {
		const lockID = 7011

		if _, err := db.ExecContext(ctx, "SELECT pg_advisory_lock($1)", lockID); err != nil {
			migrationErr = fmt.Errorf("failed to acquire migration lock: %w", err)
			return
		}
		defer func() {
			if _, unlockErr := db.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", lockID); unlockErr != nil {
				logger.FromContext(ctx).Error("failed to release migration lock", "error", unlockErr)
			}
		}()

		goose.SetBaseFS(migrationsFS)
		if err := goose.SetDialect("postgres"); err != nil {
			migrationErr = fmt.Errorf("failed to set dialect: %w", err)
			return
		}
		if err := goose.Up(db, "migrations"); err != nil {
			migrationErr = fmt.Errorf("migration failed: %w", err)
			return
		}
	})
	return migrationErr
}
