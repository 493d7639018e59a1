package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on hub.sessions.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed session store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, row Row) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO hub.sessions (
			id, user_id, device_id, refresh_token_hash,
			expires_at, created_at, last_used_at
		) VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, row.ID, row.UserID, row.DeviceID, row.RefreshTokenHash, row.ExpiresAt, row.CreatedAt)
	return err
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (Row, error) {
	var row Row
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, device_id, refresh_token_hash,
		       expires_at, created_at, last_used_at
		FROM hub.sessions
		WHERE id = $1
	`, id).Scan(
		&row.ID, &row.UserID, &row.DeviceID, &row.RefreshTokenHash,
		&row.ExpiresAt, &row.CreatedAt, &row.LastUsedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Row{}, ErrNotFound
	}
	if err != nil {
		return Row{}, err
	}
	return row, nil
}

// Rotate is a single conditional UPDATE: the row-level write lock makes the
// digest comparison and the swap atomic, so of two concurrent refreshes the
// second sees zero rows affected.
func (s *PostgresStore) Rotate(ctx context.Context, now time.Time, id, oldHash, newHash string, newExpiry time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE hub.sessions
		SET refresh_token_hash = $3,
		    expires_at = $4,
		    last_used_at = $5
		WHERE id = $1 AND refresh_token_hash = $2
	`, id, oldHash, newHash, newExpiry, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRotationConflict
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM hub.sessions WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) DeleteAllForUser(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM hub.sessions WHERE user_id = $1`, userID)
	return err
}
