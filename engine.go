package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/plaintalk/authcore/password"
	"github.com/plaintalk/authcore/store"
	"github.com/plaintalk/authcore/token"
)

// Engine is the credential and session-token service. Build one with
// [New] and treat it as immutable afterwards; all methods are safe for
// concurrent use.
type Engine struct {
	config       Config
	store        store.Store
	passwordHash *password.Argon2
	tokens       *token.Manager
	audit        *auditDispatcher
	metrics      *Metrics
}

// Close flushes the audit buffer and stops background work. The store
// is owned by the caller and is not closed here.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded on a full
// buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Login verifies a username and password and starts a session. Unknown
// usernames and wrong passwords both return [ErrInvalidCredentials];
// only the audit trail records which it was. A successful login
// displaces any refresh token the principal already held.
func (e *Engine) Login(ctx context.Context, username, pw string) (*LoginResult, error) {
	if e == nil || e.passwordHash == nil || e.tokens == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	username = normalizeUsername(username)
	if username == "" || pw == "" {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"identifier": username,
				"reason":     "empty_field",
			}
		})
		return nil, ErrInvalidCredentials
	}

	rec, err := e.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, "", ErrInvalidCredentials, func() map[string]string {
				return map[string]string{
					"identifier": username,
					"reason":     "principal_not_found",
				}
			})
			return nil, ErrInvalidCredentials
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", ErrStoreUnavailable, nil)
		return nil, ErrStoreUnavailable
	}

	ok, err := e.passwordHash.Verify(pw, rec.PasswordHash)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, rec.ID, ErrCorruptCredential, func() map[string]string {
			return map[string]string{
				"identifier": username,
				"reason":     "corrupt_hash",
			}
		})
		return nil, ErrCorruptCredential
	}
	if !ok {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, rec.ID, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"identifier": username,
				"reason":     "password_mismatch",
			}
		})
		return nil, ErrInvalidCredentials
	}

	pair, err := e.issueSession(ctx, rec, "")
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, rec.ID, err, nil)
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, rec.ID, nil, nil)

	return &LoginResult{
		Principal: principalFromRecord(rec),
		Tokens:    pair,
	}, nil
}

// Refresh rotates a session. The presented token must both match the
// principal's stored session and carry a valid signature; the stored
// swap is conditional, so when two callers race with the same token
// exactly one wins and the other gets [ErrInvalidSession].
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if e == nil || e.tokens == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	if refreshToken == "" {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", ErrMissingToken, nil)
		return nil, ErrMissingToken
	}

	oldHash := store.HashToken(refreshToken)
	rec, err := e.store.FindByRefreshToken(ctx, oldHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshInvalid, false, "", ErrInvalidSession, func() map[string]string {
				return map[string]string{"reason": "no_matching_session"}
			})
			return nil, ErrInvalidSession
		}
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", ErrStoreUnavailable, nil)
		return nil, ErrStoreUnavailable
	}

	claims, err := e.tokens.VerifyRefresh(refreshToken)
	if err != nil || claims.PrincipalID != rec.ID {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, rec.ID, ErrInvalidSignature, func() map[string]string {
			return map[string]string{"reason": "signature_rejected"}
		})
		return nil, ErrInvalidSignature
	}

	pair, err := e.issueSession(ctx, rec, oldHash)
	if err != nil {
		if errors.Is(err, ErrInvalidSession) {
			e.metricInc(MetricRefreshRaceLost)
			e.emitAudit(ctx, auditEventRefreshInvalid, false, rec.ID, ErrInvalidSession, func() map[string]string {
				return map[string]string{"reason": "rotation_lost"}
			})
			return nil, ErrInvalidSession
		}
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, rec.ID, err, nil)
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, rec.ID, nil, nil)

	return &LoginResult{
		Principal: principalFromRecord(rec),
		Tokens:    pair,
	}, nil
}

// Logout revokes the session holding the given refresh token. A
// non-empty token that matches no session is already logged out, so
// that call succeeds without effect.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	if refreshToken == "" {
		return ErrMissingToken
	}

	hash := store.HashToken(refreshToken)
	rec, err := e.store.FindByRefreshToken(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return ErrStoreUnavailable
	}

	if err := e.store.ClearRefreshToken(ctx, rec.ID, hash); err != nil {
		return ErrStoreUnavailable
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, rec.ID, nil, nil)
	return nil
}

// VerifyAccess checks an access token's signature and expiry and
// returns its claims. Verification is stateless; revoking a refresh
// token does not invalidate access tokens already in flight.
func (e *Engine) VerifyAccess(ctx context.Context, accessToken string) (*token.Claims, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}
	if accessToken == "" {
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditEventVerifyFailure, false, "", ErrMissingToken, nil)
		return nil, ErrMissingToken
	}

	start := time.Now()
	claims, err := e.tokens.VerifyAccess(accessToken)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricVerifyLatency, time.Since(start))
	}
	if err != nil {
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditEventVerifyFailure, false, "", ErrInvalidSignature, nil)
		return nil, ErrInvalidSignature
	}

	e.metricInc(MetricVerifySuccess)
	return claims, nil
}

// issueSession mints a token pair and swaps the stored refresh digest.
// An empty oldHash overwrites unconditionally; a set oldHash makes the
// swap a compare-and-swap.
func (e *Engine) issueSession(ctx context.Context, rec store.Record, oldHash string) (TokenPair, error) {
	access, err := e.tokens.IssueAccess(rec.ID, rec.Username, rec.Role)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := e.tokens.IssueRefresh(rec.ID, rec.Username, rec.Role)
	if err != nil {
		return TokenPair{}, err
	}

	err = e.store.UpdateRefreshToken(ctx, rec.ID, oldHash, store.HashToken(refresh))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrTokenMismatch), errors.Is(err, store.ErrNotFound):
			return TokenPair{}, ErrInvalidSession
		default:
			return TokenPair{}, ErrStoreUnavailable
		}
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func principalFromRecord(rec store.Record) Principal {
	return Principal{
		ID:        rec.ID,
		Username:  rec.Username,
		Email:     rec.Email,
		Role:      rec.Role,
		CreatedAt: rec.CreatedAt,
	}
}
