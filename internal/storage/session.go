package storage

import (
	"context"
	"database/sql"
	"errors"
	"followtrack/internal/models"
	"time"
)

// SaveSession remembers username and token, replacing any previous login.
func (s *Store) SaveSession(ctx context.Context, username, token string) error {
	defer s.observe("save_session", time.Now())

	db, err := s.conn(ctx)
	if err != nil {
		return newStorageError(opSession, username, err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO session (id, username, token, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			token = excluded.token,
			updated_at = excluded.updated_at
	`, username, nullString(token), s.clock().UnixMilli())
	if err != nil {
		return newStorageError(opSession, username, err)
	}
	return nil
}

// LoadSession returns the remembered login. The boolean is false when nobody
// is logged in.
func (s *Store) LoadSession(ctx context.Context) (models.Session, bool, error) {
	defer s.observe("load_session", time.Now())

	db, err := s.conn(ctx)
	if err != nil {
		return models.Session{}, false, newStorageError(opSession, "", err)
	}

	var (
		username  string
		token     sql.NullString
		updatedAt int64
	)
	err = db.QueryRowContext(ctx, `SELECT username, token, updated_at FROM session WHERE id = 1`).
		Scan(&username, &token, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, false, nil
	}
	if err != nil {
		return models.Session{}, false, newStorageError(opSession, "", err)
	}

	return models.Session{
		Username:  username,
		Token:     token.String,
		UpdatedAt: time.UnixMilli(updatedAt),
	}, true, nil
}

// ClearSession forgets the remembered login. Clearing an empty session is a
// no-op.
func (s *Store) ClearSession(ctx context.Context) error {
	defer s.observe("clear_session", time.Now())

	db, err := s.conn(ctx)
	if err != nil {
		return newStorageError(opSession, "", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM session WHERE id = 1`); err != nil {
		return newStorageError(opSession, "", err)
	}
	return nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
