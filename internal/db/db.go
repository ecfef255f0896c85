// Package db manages the optional Postgres connection backing the build state
// journal and applies its embedded migrations.
package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	// import db drivers
	_ "github.com/lib/pq"

	"github.com/sevigo/build-herald/internal/config"
)

// MigrationsTable keeps the journal schema version apart from other schemas
// living in the same database.
const MigrationsTable = "build_herald_schema_migrations"

const pingTimeout = 5 * time.Second

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB is the journal connection pool.
type DB struct {
	*sqlx.DB
	logger *slog.Logger
}

// NewDatabase opens the journal database named by cfg.URL and brings its
// schema up to date. Without a URL it returns a nil DB and the journal stays
// disabled.
func NewDatabase(cfg *config.DBConfig, logger *slog.Logger) (*DB, func(), error) {
	noop := func() {}
	if cfg == nil || cfg.URL == "" {
		logger.Info("no database configured, build state journal disabled")
		return nil, noop, nil
	}

	conn, err := sqlx.Open("postgres", cfg.URL)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to open journal database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
		conn.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, noop, fmt.Errorf("journal database unreachable: %w", err)
	}

	db := &DB{DB: conn, logger: logger}
	version, err := db.RunMigrations()
	if err != nil {
		_ = conn.Close()
		return nil, noop, err
	}
	logger.Info("build state journal enabled", "schema_version", version, "max_open_conns", cfg.MaxOpenConns)

	return db, func() {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close journal database", "error", err)
		}
	}, nil
}

// RunMigrations applies pending journal migrations and returns the resulting
// schema version. A dirty schema left by a failed migration is reported, not
// repaired.
func (db *DB) RunMigrations() (uint, error) {
	migrator, err := db.newMigrator()
	if err != nil {
		return 0, err
	}

	version, dirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("failed to read journal schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("journal schema version %d is dirty, run 'migrate force' against %s", version, MigrationsTable)
	}

	switch err := migrator.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		return version, nil
	case err != nil:
		return version, fmt.Errorf("failed to migrate journal schema: %w", err)
	}

	version, _, err = migrator.Version()
	if err != nil {
		return 0, fmt.Errorf("failed to read journal schema version: %w", err)
	}
	db.logger.Info("journal schema migrated", "schema_version", version)
	return version, nil
}

func (db *DB) newMigrator() (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded journal migrations: %w", err)
	}
	driver, err := postgres.WithInstance(db.DB.DB, &postgres.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}
	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return migrator, nil
}
