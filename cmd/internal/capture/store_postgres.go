package capture

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on hub.captures.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed capture store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Insert(ctx context.Context, c Capture) error {
	var createdBy any
	if c.CreatedBy != "" {
		createdBy = c.CreatedBy
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO hub.captures (id, text, created_by, created_at)
		VALUES ($1, $2, $3, $4)
	`, c.ID, c.Text, createdBy, c.CreatedAt)
	return err
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Capture, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, text, COALESCE(created_by, ''), created_at
		FROM hub.captures
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Capture
	for rows.Next() {
		var c Capture
		if err := rows.Scan(&c.ID, &c.Text, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM hub.captures WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
