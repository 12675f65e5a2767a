package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/plaintalk/authcore/store"
)

const (
	insertStatusCreated   int64 = 0
	insertStatusDuplicate int64 = 1
)

const (
	swapStatusSwapped  int64 = 0
	swapStatusMismatch int64 = 1
	swapStatusNotFound int64 = 2
)

const insertScript = `
local principal_key = KEYS[1]
local username_key = KEYS[2]
local email_key = KEYS[3]

if redis.call("EXISTS", username_key) == 1 then
  return {1}
end
if email_key ~= "" and redis.call("EXISTS", email_key) == 1 then
  return {1}
end

redis.call("HSET", principal_key,
  "id", ARGV[1],
  "username", ARGV[2],
  "email", ARGV[3],
  "password_hash", ARGV[4],
  "role", ARGV[5],
  "refresh_hash", ARGV[6],
  "created_at", ARGV[7])
redis.call("SET", username_key, ARGV[1])
if email_key ~= "" then
  redis.call("SET", email_key, ARGV[1])
end
if ARGV[6] ~= "" then
  redis.call("SET", KEYS[4], ARGV[1])
end

return {0}
`

var insertLua = redis.NewScript(insertScript)

const swapRefreshScript = `
local principal_key = KEYS[1]
local refresh_prefix = ARGV[1]
local expected = ARGV[2]
local next_hash = ARGV[3]

if redis.call("EXISTS", principal_key) == 0 then
  return {2}
end

local current = redis.call("HGET", principal_key, "refresh_hash") or ""
if expected ~= "" and current ~= expected then
  return {1}
end

if current ~= "" then
  redis.call("DEL", refresh_prefix .. current)
end
redis.call("HSET", principal_key, "refresh_hash", next_hash)
if next_hash ~= "" then
  redis.call("SET", refresh_prefix .. next_hash, redis.call("HGET", principal_key, "id"))
end

return {0}
`

var swapRefreshLua = redis.NewScript(swapRefreshScript)

const clearRefreshScript = `
local principal_key = KEYS[1]
local refresh_prefix = ARGV[1]
local expected = ARGV[2]

if redis.call("EXISTS", principal_key) == 0 then
  return 0
end

local current = redis.call("HGET", principal_key, "refresh_hash") or ""
if current == "" or current ~= expected then
  return 0
end

redis.call("HSET", principal_key, "refresh_hash", "")
redis.call("DEL", refresh_prefix .. current)
return 1
`

var clearRefreshLua = redis.NewScript(clearRefreshScript)

// Store is a Redis-backed principal store.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a [Store] backed by the given Redis client. prefix
// sets the key namespace; an empty prefix defaults to "ac".
func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "ac"
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) principalKey(id string) string {
	return s.prefix + ":principal:" + id
}

func (s *Store) usernameKey(username string) string {
	return s.prefix + ":idx:username:" + username
}

func (s *Store) emailKey(email string) string {
	if email == "" {
		return ""
	}
	return s.prefix + ":idx:email:" + email
}

func (s *Store) refreshPrefix() string {
	return s.prefix + ":idx:refresh:"
}

// Insert persists a new principal together with its lookup indexes in a
// single Lua call, so a duplicate check and the write cannot interleave
// with a concurrent signup.
func (s *Store) Insert(ctx context.Context, rec store.Record) error {
	result, err := insertLua.Run(
		ctx,
		s.redis,
		[]string{
			s.principalKey(rec.ID),
			s.usernameKey(rec.Username),
			s.emailKey(rec.Email),
			s.refreshPrefix() + rec.RefreshTokenHash,
		},
		rec.ID,
		rec.Username,
		rec.Email,
		rec.PasswordHash,
		rec.Role,
		rec.RefreshTokenHash,
		rec.CreatedAt.Unix(),
	).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	code, err := scriptStatus(result)
	if err != nil {
		return err
	}

	switch code {
	case insertStatusCreated:
		return nil
	case insertStatusDuplicate:
		return store.ErrDuplicate
	default:
		return fmt.Errorf("%w: unknown insert script status", store.ErrUnavailable)
	}
}

// FindByUsername resolves a normalized username through the index and
// loads the record.
func (s *Store) FindByUsername(ctx context.Context, username string) (store.Record, error) {
	id, err := s.redis.Get(ctx, s.usernameKey(username)).Result()
	if err != nil {
		if err == redis.Nil {
			return store.Record{}, store.ErrNotFound
		}
		return store.Record{}, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return s.load(ctx, id)
}

// FindByRefreshToken resolves a refresh-token digest through the index
// and loads the record.
func (s *Store) FindByRefreshToken(ctx context.Context, tokenHash string) (store.Record, error) {
	if tokenHash == "" {
		return store.Record{}, store.ErrNotFound
	}

	id, err := s.redis.Get(ctx, s.refreshPrefix()+tokenHash).Result()
	if err != nil {
		if err == redis.Nil {
			return store.Record{}, store.ErrNotFound
		}
		return store.Record{}, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return s.load(ctx, id)
}

// UpdateRefreshToken swaps the stored refresh-token digest with a Lua
// compare-and-swap. A non-empty oldHash that no longer matches the
// stored value returns [store.ErrTokenMismatch]; rotation relies on
// this to pick a single winner among concurrent callers.
func (s *Store) UpdateRefreshToken(ctx context.Context, principalID, oldHash, newHash string) error {
	result, err := swapRefreshLua.Run(
		ctx,
		s.redis,
		[]string{s.principalKey(principalID)},
		s.refreshPrefix(),
		oldHash,
		newHash,
	).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	code, err := scriptStatus(result)
	if err != nil {
		return err
	}

	switch code {
	case swapStatusSwapped:
		return nil
	case swapStatusMismatch:
		return store.ErrTokenMismatch
	case swapStatusNotFound:
		return store.ErrNotFound
	default:
		return fmt.Errorf("%w: unknown swap script status", store.ErrUnavailable)
	}
}

// ClearRefreshToken removes the digest and its index entry when the
// stored value still equals tokenHash. Clearing a stale or absent
// token is a no-op.
func (s *Store) ClearRefreshToken(ctx context.Context, principalID, tokenHash string) error {
	if tokenHash == "" {
		return nil
	}

	err := clearRefreshLua.Run(
		ctx,
		s.redis,
		[]string{s.principalKey(principalID)},
		s.refreshPrefix(),
		tokenHash,
	).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Ping reports Redis reachability.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.redis.Close()
}

func (s *Store) load(ctx context.Context, id string) (store.Record, error) {
	fields, err := s.redis.HGetAll(ctx, s.principalKey(id)).Result()
	if err != nil {
		return store.Record{}, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if len(fields) == 0 {
		return store.Record{}, store.ErrNotFound
	}

	rec := store.Record{
		ID:               fields["id"],
		Username:         fields["username"],
		Email:            fields["email"],
		PasswordHash:     fields["password_hash"],
		Role:             fields["role"],
		RefreshTokenHash: fields["refresh_hash"],
	}
	if raw := fields["created_at"]; raw != "" {
		unix, convErr := strconv.ParseInt(raw, 10, 64)
		if convErr != nil {
			return store.Record{}, fmt.Errorf("%w: corrupt created_at for %s", store.ErrUnavailable, id)
		}
		rec.CreatedAt = time.Unix(unix, 0).UTC()
	}

	return rec, nil
}

func scriptStatus(result interface{}) (int64, error) {
	parts, ok := result.([]interface{})
	if !ok || len(parts) == 0 {
		return 0, fmt.Errorf("%w: invalid script response", store.ErrUnavailable)
	}
	code, ok := parts[0].(int64)
	if !ok {
		return 0, fmt.Errorf("%w: invalid script status", store.ErrUnavailable)
	}
	return code, nil
}
