// Package migration applies the embedded schema migrations.
package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// MigrationsTable records the applied schema version.
const MigrationsTable = "schema_migrations"

// Source returns the embedded migrations as a golang-migrate source.
func Source() (source.Driver, error) {
	d, err := iofs.New(migrationsFS, "sql")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	return d, nil
}

// EnsureMigrated brings the schema up to the latest embedded version.
// An up-to-date schema is a no-op.
func EnsureMigrated(db *sql.DB, logger *slog.Logger, dbHost string) error {
	start := time.Now()
	logger = logger.With("component", "database", "db_host", dbHost)
	logger.Info("checking schema", "event", "db_migration_check", "status", "starting")

	src, err := Source()
	if err != nil {
		return failed(logger, start, err)
	}

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		return failed(logger, start, fmt.Errorf("init migrate driver: %w", err))
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return failed(logger, start, fmt.Errorf("init migrate: %w", err))
	}
	m.Log = &stepLogger{logger: logger}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("schema already up to date, skipping migration",
				"event", "db_migration_skip",
				"status", "success",
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return nil
		}
		return failed(logger, start, fmt.Errorf("apply migrations: %w", err))
	}

	version, dirty, _ := m.Version()
	logger.Info("schema migrated",
		"event", "db_migration_success",
		"status", "success",
		"version", version,
		"dirty", dirty,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func failed(logger *slog.Logger, start time.Time, err error) error {
	logger.Error("schema migration failed",
		"event", "db_migration_failed",
		"status", "error",
		"error_message", err.Error(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return err
}

// stepLogger adapts migrate.Logger; each applied file is one line.
type stepLogger struct {
	logger *slog.Logger
}

func (l *stepLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)),
		"event", "db_migration_step",
		"status", "success",
	)
}

func (l *stepLogger) Verbose() bool { return false }
