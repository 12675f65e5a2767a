package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// Sentinel errors returned by Store implementations. Callers branch with
// errors.Is; implementations may wrap these with backend detail.
var (
	// ErrNotFound reports that no record matched the lookup key.
	ErrNotFound = errors.New("store: record not found")

	// ErrDuplicate reports that an insert collided with an existing
	// username or email.
	ErrDuplicate = errors.New("store: duplicate identity")

	// ErrTokenMismatch reports that a conditional refresh-token swap
	// found a different token than the caller expected. Exactly one of
	// several concurrent rotations observes success; the rest get this.
	ErrTokenMismatch = errors.New("store: refresh token mismatch")

	// ErrUnavailable reports that the backend could not be reached or
	// answered with a transport-level failure.
	ErrUnavailable = errors.New("store: backend unavailable")
)

// Record is a stored principal. RefreshTokenHash is the SHA-256 digest of
// the active refresh token, or empty when the principal has no live
// session.
type Record struct {
	ID               string
	Username         string
	Email            string
	PasswordHash     string
	Role             string
	RefreshTokenHash string
	CreatedAt        time.Time
}

// Store persists principals and their active refresh token.
type Store interface {
	// Insert persists a new record. It returns ErrDuplicate when the
	// username or email is already taken.
	Insert(ctx context.Context, rec Record) error

	// FindByUsername returns the record for a normalized username, or
	// ErrNotFound.
	FindByUsername(ctx context.Context, username string) (Record, error)

	// FindByRefreshToken returns the record whose active refresh token
	// hash equals tokenHash, or ErrNotFound.
	FindByRefreshToken(ctx context.Context, tokenHash string) (Record, error)

	// UpdateRefreshToken swaps the principal's refresh token hash.
	// When oldHash is non-empty the swap is conditional: it succeeds
	// only if the stored hash still equals oldHash, and returns
	// ErrTokenMismatch otherwise. An empty oldHash overwrites
	// unconditionally, which login uses to displace any prior session.
	UpdateRefreshToken(ctx context.Context, principalID, oldHash, newHash string) error

	// ClearRefreshToken removes the principal's refresh token if it
	// currently equals tokenHash. Clearing an already absent or
	// different token is not an error.
	ClearRefreshToken(ctx context.Context, principalID, tokenHash string) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// HashToken returns the hex SHA-256 digest of a raw token string. All
// store lookups and swaps operate on this digest, never the raw token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
