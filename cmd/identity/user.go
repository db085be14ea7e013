package identity

import (
	"context"
	"errors"
	"strings"
	"time"
)

// User is vigil's canonical security principal.
type User struct {
	ID       string
	Username string
	Role     string

	// PasswordHash is a PHC-style argon2id string. Never expose it.
	PasswordHash string

	CreatedAt time.Time
}

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("identity: user not found")

	// ErrBadCredentials is returned when the password does not verify.
	// Callers must surface it identically to ErrNotFound so responses do
	// not reveal which usernames exist.
	ErrBadCredentials = errors.New("identity: bad credentials")
)

// Store abstracts user persistence.
type Store interface {
	// FindByUsername loads a user by normalized username.
	FindByUsername(ctx context.Context, username string) (User, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// Normalize canonicalizes a username for lookups.
func Normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// VerifyCredentials resolves the user and checks the password. Both
// unknown-user and wrong-password collapse into ErrBadCredentials.
func VerifyCredentials(ctx context.Context, store Store, username, password string) (User, error) {
	u, err := store.FindByUsername(ctx, Normalize(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Burn comparable time so the error is not distinguishable by latency.
			_ = VerifyPassword(password, dummyHash)
			return User{}, ErrBadCredentials
		}
		return User{}, err
	}

	if err := VerifyPassword(password, u.PasswordHash); err != nil {
		return User{}, ErrBadCredentials
	}
	return u, nil
}
