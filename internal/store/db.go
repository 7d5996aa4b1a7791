package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps sql.DB for Postgres using pgx.
type DB struct {
	Client *sql.DB
}

// NewDB opens a Postgres pool and pings it within ctx. The DB is returned even
// when the ping fails so callers can decide whether that is fatal.
func NewDB(ctx context.Context, connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return &DB{Client: db}, db.PingContext(ctx)
}

// Healthy verifies database connectivity.
func (d *DB) Healthy(ctx context.Context) bool {
	if d == nil || d.Client == nil {
		return false
	}
	return d.Client.PingContext(ctx) == nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS certificates (
		code           TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		email          TEXT NOT NULL,
		phone          TEXT NOT NULL,
		college        TEXT NOT NULL,
		generated_date TIMESTAMPTZ NOT NULL,
		verified       BOOLEAN NOT NULL DEFAULT FALSE,
		verified_date  TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS certificate_events (
		id          UUID PRIMARY KEY,
		type        TEXT NOT NULL,
		code        TEXT NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL,
		detail      TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS certificate_events_code_idx ON certificate_events (code, occurred_at DESC)`,
}

// Migrate creates the tables used by the certificate store and the audit worker.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return tx.Commit()
}
