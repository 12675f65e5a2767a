package authcore

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/plaintalk/authcore/store"
	"github.com/plaintalk/authcore/store/redisstore"
)

// failStore reports every backend call as unavailable.
type failStore struct{}

func (failStore) Insert(context.Context, store.Record) error { return store.ErrUnavailable }

func (failStore) FindByUsername(context.Context, string) (store.Record, error) {
	return store.Record{}, store.ErrUnavailable
}

func (failStore) FindByRefreshToken(context.Context, string) (store.Record, error) {
	return store.Record{}, store.ErrUnavailable
}

func (failStore) UpdateRefreshToken(context.Context, string, string, string) error {
	return store.ErrUnavailable
}

func (failStore) ClearRefreshToken(context.Context, string, string) error {
	return store.ErrUnavailable
}

func (failStore) Ping(context.Context) error { return store.ErrUnavailable }

func (failStore) Close() error { return nil }

func newFailingEngine(t *testing.T) *Engine {
	t.Helper()

	engine, err := New().WithConfig(testEngineConfig()).WithStore(failStore{}).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func TestBackendOutageSurfacesAsUnavailable(t *testing.T) {
	engine := newFailingEngine(t)
	ctx := context.Background()

	if _, err := engine.Signup(ctx, SignupRequest{Username: "alice", Password: "pw123"}); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("Signup: expected ErrStoreUnavailable, got %v", err)
	}
	if _, err := engine.Login(ctx, "alice", "pw123"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("Login: expected ErrStoreUnavailable, got %v", err)
	}
	if _, err := engine.Refresh(ctx, "some-token"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("Refresh: expected ErrStoreUnavailable, got %v", err)
	}
	if err := engine.Logout(ctx, "some-token"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("Logout: expected ErrStoreUnavailable, got %v", err)
	}
}

func TestLoginCorruptStoredHash(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	engine, err := New().
		WithConfig(testEngineConfig()).
		WithStore(redisstore.NewStore(client, "corrupt")).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	ctx := context.Background()
	p, err := engine.Signup(ctx, SignupRequest{Username: "alice", Password: "pw123"})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	mr.HSet("corrupt:principal:"+p.ID, "password_hash", "not-a-phc-string")

	if _, err := engine.Login(ctx, "alice", "pw123"); !errors.Is(err, ErrCorruptCredential) {
		t.Fatalf("expected ErrCorruptCredential, got %v", err)
	}
}
