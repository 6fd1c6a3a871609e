// Package sqlite optionally mirrors the generated ledger into a SQLite
// database for ad-hoc querying alongside the text files.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const ddl = `
-- One row per import run
CREATE TABLE IF NOT EXISTS import_batches (
    id TEXT PRIMARY KEY,
    imported_at TEXT NOT NULL,
    source_dir TEXT NOT NULL,
    transactions INTEGER NOT NULL
);

-- Accounts seen in the ledger, with their earliest reference date
CREATE TABLE IF NOT EXISTS accounts (
    account TEXT PRIMARY KEY,
    opened_on TEXT NOT NULL,
    currency TEXT NOT NULL
);

-- Ledger transactions, keyed on the spiir id so re-imports overwrite
CREATE TABLE IF NOT EXISTS transactions (
    spiir_id TEXT PRIMARY KEY,
    batch_id TEXT NOT NULL REFERENCES import_batches(id),
    date TEXT NOT NULL,
    payee TEXT NOT NULL,
    narration TEXT NOT NULL,
    tags TEXT NOT NULL DEFAULT '',
    counter_id TEXT NOT NULL DEFAULT '',
    source_file TEXT NOT NULL DEFAULT '',
    source_line INTEGER NOT NULL DEFAULT 0
);

-- Two rows per transaction
CREATE TABLE IF NOT EXISTS postings (
    spiir_id TEXT NOT NULL REFERENCES transactions(spiir_id) ON DELETE CASCADE,
    leg INTEGER NOT NULL,
    account TEXT NOT NULL,
    amount TEXT NOT NULL,
    currency TEXT NOT NULL,

    PRIMARY KEY (spiir_id, leg)
);

CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
CREATE INDEX IF NOT EXISTS idx_postings_account ON postings(account);
`

// DB wraps the SQLite handle.
type DB struct {
	conn *sql.DB
}

// Open opens or creates the database file and verifies the connection.
func Open(ctx context.Context, path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", path, err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying handle.
func (db *DB) Close() error {
	return db.conn.Close()
}

// EnsureSchema creates the tables if they do not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
