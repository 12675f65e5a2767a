package authcore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/plaintalk/authcore/store"
)

// Signup creates a principal. Username and email are trimmed and
// lowercased before the uniqueness check, so "Alice" and "alice"
// collide. The new account starts with no active session; the caller
// logs in separately.
func (e *Engine) Signup(ctx context.Context, req SignupRequest) (*Principal, error) {
	if e == nil || e.passwordHash == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	username := normalizeUsername(req.Username)
	email := normalizeEmail(req.Email)

	if err := e.validateSignup(username, req.Password); err != nil {
		e.metricInc(MetricSignupFailure)
		e.emitAudit(ctx, auditEventSignupFailure, false, "", err, func() map[string]string {
			return map[string]string{"identifier": username}
		})
		return nil, err
	}

	hash, err := e.passwordHash.Hash(req.Password)
	if err != nil {
		e.metricInc(MetricSignupFailure)
		e.emitAudit(ctx, auditEventSignupFailure, false, "", ErrValidation, nil)
		return nil, ErrValidation
	}

	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = e.config.Identity.DefaultRole
	}

	rec := store.Record{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	if err := e.store.Insert(ctx, rec); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			e.metricInc(MetricSignupDuplicate)
			e.emitAudit(ctx, auditEventSignupDuplicate, false, "", ErrDuplicateIdentity, func() map[string]string {
				return map[string]string{"identifier": username}
			})
			return nil, ErrDuplicateIdentity
		}
		e.metricInc(MetricSignupFailure)
		e.emitAudit(ctx, auditEventSignupFailure, false, "", ErrStoreUnavailable, nil)
		return nil, ErrStoreUnavailable
	}

	e.metricInc(MetricSignupSuccess)
	e.emitAudit(ctx, auditEventSignupSuccess, true, rec.ID, nil, func() map[string]string {
		return map[string]string{"identifier": username}
	})

	p := principalFromRecord(rec)
	return &p, nil
}

func (e *Engine) validateSignup(username, pw string) error {
	if username == "" {
		return ErrValidation
	}
	if len(username) > e.config.Identity.MaxUsernameLength {
		return ErrValidation
	}
	if pw == "" {
		return ErrValidation
	}
	if len(pw) > e.config.Identity.MaxPasswordLength {
		return ErrValidation
	}
	return nil
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
