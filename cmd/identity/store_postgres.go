package identity

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on hub.users.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed user store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const userColumns = `id, email, display_name, password_hash, avatar_url, settings, created_at, last_login_at`

func (s *PostgresStore) Create(ctx context.Context, u User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO hub.users (id, email, display_name, password_hash, avatar_url, settings, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, u.Email, u.DisplayName, u.PasswordHash, u.AvatarURL, u.Settings, u.CreatedAt)
	if isUniqueViolation(err) {
		return OpError{Op: "identity.Create", Kind: ErrConflict, Msg: "email"}
	}
	return err
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (User, error) {
	return s.getOne(ctx, "identity.GetByID", `
		SELECT `+userColumns+` FROM hub.users WHERE id = $1
	`, id)
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (User, error) {
	return s.getOne(ctx, "identity.GetByEmail", `
		SELECT `+userColumns+` FROM hub.users WHERE email = $1
	`, NormalizeEmail(email))
}

func (s *PostgresStore) getOne(ctx context.Context, op, query string, arg any) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash,
		&u.AvatarURL, &u.Settings, &u.CreatedAt, &u.LastLoginAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, OpError{Op: op, Kind: ErrNotFound}
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *PostgresStore) TouchLastLogin(ctx context.Context, id string, now time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE hub.users SET last_login_at = $2 WHERE id = $1
	`, id, now)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
