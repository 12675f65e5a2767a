package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/plaintalk/authcore/store"
)

const uniqueViolation = "23505"

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies
// it for tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Store is a PostgreSQL-backed principal store.
type Store struct {
	pool Pool
}

// NewStore creates a [Store] on the given connection pool.
func NewStore(pool Pool) *Store {
	return &Store{pool: pool}
}

// Insert persists a new principal. Unique-constraint violations on
// username or email surface as [store.ErrDuplicate].
func (s *Store) Insert(ctx context.Context, rec store.Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO principals (id, username, email, password_hash, role, refresh_token_hash, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''), $7)
	`, rec.ID, rec.Username, rec.Email, rec.PasswordHash, rec.Role, rec.RefreshTokenHash, rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return store.ErrDuplicate
		}
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// FindByUsername loads the record for a normalized username.
func (s *Store) FindByUsername(ctx context.Context, username string) (store.Record, error) {
	return s.findBy(ctx, `
		SELECT id, username, email, password_hash, role, refresh_token_hash, created_at
		FROM principals
		WHERE username = $1
	`, username)
}

// FindByRefreshToken loads the record holding the given refresh-token
// digest.
func (s *Store) FindByRefreshToken(ctx context.Context, tokenHash string) (store.Record, error) {
	if tokenHash == "" {
		return store.Record{}, store.ErrNotFound
	}
	return s.findBy(ctx, `
		SELECT id, username, email, password_hash, role, refresh_token_hash, created_at
		FROM principals
		WHERE refresh_token_hash = $1
	`, tokenHash)
}

// UpdateRefreshToken swaps the stored digest. A non-empty oldHash makes
// the UPDATE conditional on the current value; the row count then tells
// concurrent rotations apart, and only one of them commits a change.
func (s *Store) UpdateRefreshToken(ctx context.Context, principalID, oldHash, newHash string) error {
	var (
		tag pgconn.CommandTag
		err error
	)
	if oldHash == "" {
		tag, err = s.pool.Exec(ctx, `
			UPDATE principals
			SET refresh_token_hash = NULLIF($2, '')
			WHERE id = $1
		`, principalID, newHash)
	} else {
		tag, err = s.pool.Exec(ctx, `
			UPDATE principals
			SET refresh_token_hash = NULLIF($3, '')
			WHERE id = $1 AND refresh_token_hash = $2
		`, principalID, oldHash, newHash)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM principals WHERE id = $1)`, principalID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if !exists {
		return store.ErrNotFound
	}
	return store.ErrTokenMismatch
}

// ClearRefreshToken removes the digest when it still matches. A stale
// or absent digest clears nothing and is not an error.
func (s *Store) ClearRefreshToken(ctx context.Context, principalID, tokenHash string) error {
	if tokenHash == "" {
		return nil
	}

	_, err := s.pool.Exec(ctx, `
		UPDATE principals
		SET refresh_token_hash = NULL
		WHERE id = $1 AND refresh_token_hash = $2
	`, principalID, tokenHash)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Ping reports database reachability.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) findBy(ctx context.Context, query string, arg any) (store.Record, error) {
	var (
		rec         store.Record
		email       *string
		refreshHash *string
		createdAt   time.Time
	)
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&rec.ID,
		&rec.Username,
		&email,
		&rec.PasswordHash,
		&rec.Role,
		&refreshHash,
		&createdAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Record{}, store.ErrNotFound
	}
	if err != nil {
		return store.Record{}, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	if email != nil {
		rec.Email = *email
	}
	if refreshHash != nil {
		rec.RefreshTokenHash = *refreshHash
	}
	rec.CreatedAt = createdAt.UTC()
	return rec, nil
}
