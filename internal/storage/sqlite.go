package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens (and creates if needed) the SQLite database at path and
// ensures required tables exist.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}
	if err := requireLocalDisk(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if _, err := db.ExecContext(pctx, "PRAGMA journal_mode = WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal_mode: %w", err)
	}
	if err := BootstrapSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// BootstrapSQLite creates tables/indexes if missing.
func BootstrapSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS subscriptions (
  name           TEXT PRIMARY KEY,
  webhook_id     TEXT NOT NULL,
  subscriber_url TEXT NOT NULL,
  event_types    JSON NOT NULL DEFAULT '[]',
  secret         TEXT,
  created_at     TEXT NOT NULL,
  updated_at     TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS deliveries (
  id           TEXT PRIMARY KEY,
  endpoint     TEXT NOT NULL,
  subscription TEXT,
  message_id   TEXT NOT NULL,
  event_type   TEXT,
  payload      JSON NOT NULL,
  status       TEXT NOT NULL,
  dedupe_key   TEXT NOT NULL UNIQUE,
  received_at  TEXT NOT NULL,
  claimed_at   TEXT,
  acked_at     TEXT
);`,
		`CREATE INDEX IF NOT EXISTS deliveries_status_received_at_idx ON deliveries(status, received_at);`,
		`CREATE INDEX IF NOT EXISTS deliveries_subscription_idx ON deliveries(subscription);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap sqlite: %w", err)
		}
	}
	return nil
}
