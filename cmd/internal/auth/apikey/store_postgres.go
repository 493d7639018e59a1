package apikey

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on hub.api_keys.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed API key store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM hub.api_keys`).Scan(&n)
	return n, err
}

func (s *PostgresStore) Insert(ctx context.Context, k Key) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO hub.api_keys (id, name, key_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`, k.ID, k.Name, k.KeyHash, k.CreatedAt)
	return err
}

func (s *PostgresStore) FindByHash(ctx context.Context, hash string) (Key, error) {
	var k Key
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, key_hash, created_at
		FROM hub.api_keys
		WHERE key_hash = $1
	`, hash).Scan(&k.ID, &k.Name, &k.KeyHash, &k.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Key{}, ErrNotFound
	}
	if err != nil {
		return Key{}, err
	}
	return k, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Key, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, key_hash, created_at
		FROM hub.api_keys
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Key
	for rows.Next() {
		var k Key
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash, &k.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
