// Package repository provides the data access layer for the auth subsystem.
// It supports two engines behind the same sqlx interface: embedded SQLite
// (the default, file-backed) and PostgreSQL.
package repository

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// Supported database engines.
const (
	EngineSQLite   = "sqlite"
	EnginePostgres = "postgres"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Open connects to the database for the given engine and DSN. For SQLite the
// DSN is a file path; foreign keys and a busy timeout are enabled and the
// connection pool is capped at one so concurrent writers serialize on the
// driver instead of failing with SQLITE_BUSY.
func Open(engine, dsn string) (*sqlx.DB, error) {
	switch engine {
	case EngineSQLite:
		db, err := sqlx.Open("sqlite", sqliteDSN(dsn))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		db.SetMaxOpenConns(1)
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
		}
		return db, nil
	case EnginePostgres:
		db, err := sqlx.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres database: %w", err)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping postgres database: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database engine: %q", engine)
	}
}

// sqliteDSN turns a file path into a modernc DSN with the pragmas the
// schema relies on.
func sqliteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// NewMigrator builds a migrator over the embedded migration files for the
// engine. The caller owns the db handle; closing the migrator does not
// close it.
func NewMigrator(db *sqlx.DB, engine string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations/"+engine)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	switch engine {
	case EngineSQLite:
		driver, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite migration driver: %w", err)
		}
		m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
		if err != nil {
			return nil, fmt.Errorf("failed to create migrator: %w", err)
		}
		return m, nil
	case EnginePostgres:
		driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres migration driver: %w", err)
		}
		m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
		if err != nil {
			return nil, fmt.Errorf("failed to create migrator: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported database engine: %q", engine)
	}
}

// Migrate applies all pending embedded migrations for the engine.
func Migrate(db *sqlx.DB, engine string) error {
	m, err := NewMigrator(db, engine)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
