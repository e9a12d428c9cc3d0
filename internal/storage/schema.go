package storage

import (
	"context"
	"database/sql"
)

const schemaSQL = `
-- Latest follower list per tracked account
CREATE TABLE IF NOT EXISTS snapshots (
  account_id TEXT PRIMARY KEY,
  captured_at INTEGER NOT NULL,        -- unix milliseconds
  followers BLOB NOT NULL              -- zstd(json([]FollowerRecord))
);

-- Daily follower counts, at most seven per account
CREATE TABLE IF NOT EXISTS history (
  account_id TEXT PRIMARY KEY,
  records TEXT NOT NULL DEFAULT '[]'   -- json([]DailyCountRecord), ascending by date
);

-- Remembered login
CREATE TABLE IF NOT EXISTS session (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  username TEXT NOT NULL,
  token TEXT,
  updated_at INTEGER NOT NULL
);
`

// DBTX represents shared methods across sql.DB and sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// InitSchema creates the tables when they are missing.
func InitSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
