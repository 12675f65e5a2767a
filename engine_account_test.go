package authcore

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSignupCreatesPrincipal(t *testing.T) {
	engine := newTestEngine(t, testEngineConfig())
	ctx := context.Background()

	p, err := engine.Signup(ctx, SignupRequest{
		Username: "  Alice  ",
		Email:    "Alice@Example.COM",
		Password: "pw123",
	})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	if p.ID == "" {
		t.Fatal("expected a generated principal ID")
	}
	if p.Username != "alice" {
		t.Fatalf("expected normalized username, got %q", p.Username)
	}
	if p.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", p.Email)
	}
	if p.Role != "user" {
		t.Fatalf("expected default role, got %q", p.Role)
	}
	if p.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}
}

func TestSignupStoresHashedPassword(t *testing.T) {
	engine := newTestEngine(t, testEngineConfig())
	ctx := context.Background()

	p, err := engine.Signup(ctx, SignupRequest{Username: "alice", Password: "pw123"})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	rec, err := engine.store.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("FindByUsername failed: %v", err)
	}
	if rec.ID != p.ID {
		t.Fatalf("record ID %q does not match principal %q", rec.ID, p.ID)
	}
	if rec.PasswordHash == "pw123" || !strings.HasPrefix(rec.PasswordHash, "$argon2id$") {
		t.Fatalf("password not stored as an argon2id hash: %q", rec.PasswordHash)
	}

	ok, err := engine.passwordHash.Verify("pw123", rec.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("stored hash did not verify: ok=%v err=%v", ok, err)
	}
}

func TestSignupDuplicateIdentity(t *testing.T) {
	engine := newTestEngine(t, testEngineConfig())
	ctx := context.Background()

	if _, err := engine.Signup(ctx, SignupRequest{Username: "alice", Password: "pw123"}); err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	// Normalization makes "Alice " collide with "alice".
	_, err := engine.Signup(ctx, SignupRequest{Username: "Alice ", Password: "other"})
	if !errors.Is(err, ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}

	_, err = engine.Signup(ctx, SignupRequest{
		Username: "bob",
		Email:    "alice@example.com",
		Password: "pw123",
	})
	if err != nil {
		t.Fatalf("Signup with distinct identity failed: %v", err)
	}

	_, err = engine.Signup(ctx, SignupRequest{
		Username: "carol",
		Email:    "ALICE@example.com",
		Password: "pw123",
	})
	if !errors.Is(err, ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity on taken email, got %v", err)
	}
}

func TestSignupValidation(t *testing.T) {
	engine := newTestEngine(t, testEngineConfig())
	ctx := context.Background()

	cases := []struct {
		name string
		req  SignupRequest
	}{
		{"empty username", SignupRequest{Username: "", Password: "pw123"}},
		{"whitespace username", SignupRequest{Username: "   ", Password: "pw123"}},
		{"empty password", SignupRequest{Username: "alice", Password: ""}},
		{"long username", SignupRequest{Username: strings.Repeat("a", 65), Password: "pw123"}},
		{"long password", SignupRequest{Username: "alice", Password: strings.Repeat("p", 1025)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := engine.Signup(ctx, tc.req); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestSignupExplicitRole(t *testing.T) {
	engine := newTestEngine(t, testEngineConfig())
	ctx := context.Background()

	p, err := engine.Signup(ctx, SignupRequest{Username: "root", Password: "pw123", Role: "admin"})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if p.Role != "admin" {
		t.Fatalf("expected explicit role to win, got %q", p.Role)
	}

	result, err := engine.Login(ctx, "root", "pw123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	claims, err := engine.VerifyAccess(ctx, result.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess failed: %v", err)
	}
	if claims.Role != "admin" {
		t.Fatalf("expected role claim to carry, got %q", claims.Role)
	}
}
