package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over PostgreSQL.
//
// The pgx pool is owned by the caller; this store must NOT close it.
// Schema identifiers are validated so they can be spliced into SQL safely.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// NewPostgresStore constructs a PostgresStore using schema "vigil" by default.
func NewPostgresStore(pool *pgxpool.Pool, schema string) (*PostgresStore, error) {
	schema = strings.TrimSpace(schema)
	if schema == "" {
		schema = "vigil"
	}
	if !pgIdentRe.MatchString(schema) {
		return nil, fmt.Errorf("identity: invalid schema identifier %q", schema)
	}
	if pool == nil {
		return nil, errors.New("identity: nil pool")
	}
	return &PostgresStore{pool: pool, schema: schema}, nil
}

// FindByUsername loads a user by normalized username.
func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (User, error) {
	q := fmt.Sprintf(`
		SELECT id, username, role, password_hash, created_at
		FROM %s.users
		WHERE username_norm = $1
	`, s.schema)

	var u User
	err := s.pool.QueryRow(ctx, q, Normalize(username)).Scan(
		&u.ID, &u.Username, &u.Role, &u.PasswordHash, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("identity: find user: %w", err)
	}
	return u, nil
}

// Close is a no-op: the pool belongs to the app.
func (s *PostgresStore) Close(_ context.Context) error { return nil }
