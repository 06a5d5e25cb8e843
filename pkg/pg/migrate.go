package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// MigrationsDir is the directory inside the migrations filesystem holding the SQL files.
const MigrationsDir = "migrations"

// logger is the subset of *slog.Logger used to route goose output.
type logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// Migrate applies the shared-schema migrations embedded in fsys.
func Migrate(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, cfg Config, log logger) error {
	return runGoose(ctx, pool, fsys, cfg, log, func(ctx context.Context, db *sql.DB) error {
		return goose.UpContext(ctx, db, MigrationsDir)
	})
}

// Rollback reverts the most recently applied shared-schema migration.
func Rollback(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, cfg Config, log logger) error {
	return runGoose(ctx, pool, fsys, cfg, log, func(ctx context.Context, db *sql.DB) error {
		return goose.DownContext(ctx, db, MigrationsDir)
	})
}

// Version returns the current shared-schema migration version.
func Version(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, cfg Config, log logger) (int64, error) {
	var version int64
	err := runGoose(ctx, pool, fsys, cfg, log, func(ctx context.Context, db *sql.DB) error {
		var err error
		version, err = goose.GetDBVersionContext(ctx, db)
		return err
	})
	return version, err
}

func runGoose(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, cfg Config, log logger, fn func(context.Context, *sql.DB) error) error {
	// goose drives database/sql, so the pool is bridged rather than reopened.
	db := stdlib.OpenDBFromPool(pool)
	defer func() {
		if err := db.Close(); err != nil {
			log.ErrorContext(ctx, "failed to close migration connection", "error", err)
		}
	}()

	goose.SetBaseFS(fsys)
	goose.SetLogger(gooseLogger{log: log})
	if cfg.MigrationsTable != "" {
		goose.SetTableName(cfg.MigrationsTable)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	if err := fn(ctx, db); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	return nil
}

// gooseLogger adapts goose's printf logging to structured logging.
type gooseLogger struct {
	log logger
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.ErrorContext(context.Background(), fmt.Sprintf(format, v...))
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.InfoContext(context.Background(), fmt.Sprintf(format, v...))
}
