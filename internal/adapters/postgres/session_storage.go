// Package postgres provides a Postgres-backed session storage for deployments
// that already run Postgres and prefer it over Redis.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/mhmdnab/tolabi/internal/errors"
	"github.com/mhmdnab/tolabi/internal/ports"
)

var (
	_ ports.SessionStorage = (*SessionStorage)(nil)
	_ ports.SessionSweeper = (*SessionStorage)(nil)
)

// ErrNotFound is returned when a slot holds no live session.
var ErrNotFound error = apperrors.NotFound("session not found")

// SessionStorage stores slot values in the console_sessions table.
// The schema is created by the migrate package.
type SessionStorage struct {
	DB *sql.DB
}

// NewSessionStorage creates a storage over db (opened with the pgx stdlib driver).
func NewSessionStorage(db *sql.DB) *SessionStorage {
	return &SessionStorage{DB: db}
}

// Load returns the value in slot unless it has expired.
func (s *SessionStorage) Load(ctx context.Context, slot string) ([]byte, error) {
	if slot == "" {
		return nil, ErrNotFound
	}

	var value []byte
	err := s.DB.QueryRowContext(ctx, `
		SELECT value FROM console_sessions
		WHERE slot = $1 AND (expires_at IS NULL OR expires_at > now())`, slot,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load session: %w", apperrors.MapDBError(err))
	}
	return value, nil
}

// Store upserts value into slot. A zero ttl never expires.
func (s *SessionStorage) Store(ctx context.Context, slot string, value []byte, ttl time.Duration) error {
	if slot == "" {
		return errors.New("session slot cannot be empty")
	}
	if ttl < 0 {
		return errors.New("session ttl cannot be negative")
	}

	var expiresAt sql.NullTime
	if ttl > 0 {
		expiresAt = sql.NullTime{Time: time.Now().Add(ttl).UTC(), Valid: true}
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO console_sessions (slot, value, expires_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (slot) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = now()`,
		slot, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("store session: %w", apperrors.MapDBError(err))
	}
	return nil
}

// Delete removes slot.
func (s *SessionStorage) Delete(ctx context.Context, slot string) error {
	if slot == "" {
		return nil
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM console_sessions WHERE slot = $1`, slot); err != nil {
		return fmt.Errorf("delete session: %w", apperrors.MapDBError(err))
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *SessionStorage) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Sweep deletes expired rows.
func (s *SessionStorage) Sweep(ctx context.Context) (int, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM console_sessions WHERE expires_at IS NOT NULL AND expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", apperrors.MapDBError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	return int(n), nil
}
