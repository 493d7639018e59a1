package webhook

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on hub.webhook_commands.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed command store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Insert(ctx context.Context, c Command) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO hub.webhook_commands (id, source, actor_id, channel_id, source_url, text, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.ID, c.Source, c.ActorID, c.ChannelID, c.SourceURL, c.Text, c.Status, c.CreatedAt)
	return err
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Command, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, source, actor_id, channel_id, source_url, text, status, created_at
		FROM hub.webhook_commands
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Command
	for rows.Next() {
		var c Command
		if err := rows.Scan(&c.ID, &c.Source, &c.ActorID, &c.ChannelID, &c.SourceURL, &c.Text, &c.Status, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
