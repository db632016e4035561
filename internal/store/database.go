package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog"
)

// Database wraps the PostgreSQL connection that keeps resolution history.
type Database struct {
	conn   *sql.DB
	dsn    string
	logger zerolog.Logger
}

// NewDatabase opens and pings the database.
func NewDatabase(dsn string, logger zerolog.Logger) (*Database, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{
		conn:   db,
		dsn:    dsn,
		logger: logger.With().Str("component", "store").Logger(),
	}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// DB returns the underlying *sql.DB for queries
func (db *Database) DB() *sql.DB {
	return db.conn
}

type migration struct {
	version string
	sql     string
}

var migrations = []migration{
	{
		version: "001_create_resolutions",
		sql: `
			CREATE TABLE IF NOT EXISTS resolutions (
				id              UUID PRIMARY KEY,
				requested_home  TEXT NOT NULL,
				requested_away  TEXT NOT NULL,
				home_name       TEXT NOT NULL,
				away_name       TEXT NOT NULL,
				match_date      TEXT NOT NULL DEFAULT '',
				match_time      TEXT NOT NULL DEFAULT '',
				home_badge_url  TEXT NOT NULL DEFAULT '',
				away_badge_url  TEXT NOT NULL DEFAULT '',
				source          VARCHAR(16) NOT NULL,
				night_rollback  BOOLEAN NOT NULL DEFAULT FALSE,
				resolved_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
	},
	{
		version: "002_index_resolutions_resolved_at",
		sql:     `CREATE INDEX IF NOT EXISTS idx_resolutions_resolved_at ON resolutions (resolved_at DESC)`,
	},
}

// RunMigrations applies every migration that has not been recorded yet.
func (db *Database) RunMigrations(ctx context.Context) error {
	if err := db.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	for _, m := range migrations {
		if err := db.runMigration(ctx, m); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", m.version, err)
		}
	}
	return nil
}

func (db *Database) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	_, err := db.conn.ExecContext(ctx, query)
	return err
}

func (db *Database) runMigration(ctx context.Context, m migration) error {
	var exists bool
	err := db.conn.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", m.version).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		db.logger.Debug().Str("version", m.version).Msg("migration already applied")
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", m.version); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	db.logger.Info().Str("version", m.version).Msg("migration applied")
	return nil
}

// HealthCheck performs a health check on the database
func (db *Database) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return db.conn.PingContext(ctx)
}
