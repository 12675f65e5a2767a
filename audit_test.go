package authcore

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/plaintalk/authcore/store/redisstore"
)

func newAuditedEngine(t *testing.T, sink AuditSink) *Engine {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := testEngineConfig()
	cfg.Audit.Enabled = true

	engine, err := New().
		WithConfig(cfg).
		WithStore(redisstore.NewStore(client, "audittest")).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func collectEvents(t *testing.T, sink *ChannelSink, want int) []AuditEvent {
	t.Helper()

	events := make([]AuditEvent, 0, want)
	timeout := time.After(5 * time.Second)
	for len(events) < want {
		select {
		case ev := <-sink.Events():
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("timed out after %d of %d events", len(events), want)
		}
	}
	return events
}

func TestAuditTrail(t *testing.T) {
	sink := NewChannelSink(64)
	engine := newAuditedEngine(t, sink)
	ctx := WithClientIP(WithUserAgent(context.Background(), "test-agent"), "203.0.113.7")

	if _, err := engine.Signup(ctx, SignupRequest{Username: "alice", Password: "pw123"}); err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if _, err := engine.Login(ctx, "alice", "wrong"); err == nil {
		t.Fatal("expected login failure")
	}
	result, err := engine.Login(ctx, "alice", "pw123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := engine.Logout(ctx, result.Tokens.RefreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	engine.Close()

	events := collectEvents(t, sink, 4)

	if events[0].EventType != auditEventSignupSuccess || !events[0].Success {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[0].PrincipalID == "" {
		t.Fatal("signup event missing principal ID")
	}

	failure := events[1]
	if failure.EventType != auditEventLoginFailure || failure.Success {
		t.Fatalf("unexpected second event: %+v", failure)
	}
	if failure.Error != string(auditErrInvalidCredentials) {
		t.Fatalf("unexpected error code: %q", failure.Error)
	}
	if failure.Metadata["reason"] != "password_mismatch" {
		t.Fatalf("expected the audit trail to record the real reason, got %q", failure.Metadata["reason"])
	}
	if failure.IP != "203.0.113.7" || failure.UserAgent != "test-agent" {
		t.Fatalf("request attribution missing: %+v", failure)
	}

	if events[2].EventType != auditEventLoginSuccess {
		t.Fatalf("unexpected third event: %+v", events[2])
	}
	if events[3].EventType != auditEventLogout {
		t.Fatalf("unexpected fourth event: %+v", events[3])
	}
}

func TestAuditDuplicateSignupEvent(t *testing.T) {
	sink := NewChannelSink(16)
	engine := newAuditedEngine(t, sink)
	ctx := context.Background()

	if _, err := engine.Signup(ctx, SignupRequest{Username: "alice", Password: "pw123"}); err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if _, err := engine.Signup(ctx, SignupRequest{Username: "alice", Password: "pw123"}); err == nil {
		t.Fatal("expected duplicate signup to fail")
	}
	engine.Close()

	events := collectEvents(t, sink, 2)
	dup := events[1]
	if dup.EventType != auditEventSignupDuplicate {
		t.Fatalf("expected duplicate event, got %q", dup.EventType)
	}
	if dup.Error != string(auditErrDuplicate) {
		t.Fatalf("unexpected error code: %q", dup.Error)
	}
}

func TestAuditDropsWhenBufferFull(t *testing.T) {
	// A sink that never consumes: with a one-slot buffer everything
	// past the first event is dropped, not blocked on.
	blocked := make(chan struct{})
	sink := sinkFunc(func(ctx context.Context, _ AuditEvent) {
		select {
		case <-blocked:
		case <-ctx.Done():
		}
	})

	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "x"})
	}

	dropped := d.Dropped()

	close(blocked)
	d.Close()

	if dropped == 0 {
		t.Fatal("expected dropped events on a saturated buffer")
	}
}

type sinkFunc func(context.Context, AuditEvent)

func (f sinkFunc) Emit(ctx context.Context, event AuditEvent) { f(ctx, event) }

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		EventType: "login_success",
		Success:   true,
	})
	sink.Emit(context.Background(), AuditEvent{
		EventType: "logout",
		Success:   true,
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 JSON lines, got %d", len(lines))
	}

	var ev AuditEvent
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("line not valid JSON: %v", err)
	}
	if ev.EventType != "login_success" || !ev.Success {
		t.Fatalf("unexpected decoded event: %+v", ev)
	}
}

func TestAuditDisabledByDefault(t *testing.T) {
	engine := newTestEngine(t, testEngineConfig())
	ctx := context.Background()

	if _, err := engine.Signup(ctx, SignupRequest{Username: "alice", Password: "pw123"}); err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if engine.AuditDropped() != 0 {
		t.Fatalf("expected no drop accounting without audit, got %d", engine.AuditDropped())
	}
}
