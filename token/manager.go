package token

import (
	"bytes"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Config holds the signing material and lifetimes for both token classes.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration // 0 disables the exp claim on refresh tokens
	Issuer        string
	Leeway        time.Duration
}

// Claims is the signed assertion carried by both token classes.
type Claims struct {
	PrincipalID string `json:"pid"`
	Username    string `json:"usr"`
	Role        string `json:"rol,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies access and refresh tokens. It is immutable
// after construction and safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a ready Manager.
//
// NewManager may return an error when input validation, dependency calls, or security checks fail.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.AccessSecret) == 0 {
		return nil, errors.New("access secret required")
	}
	if len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("refresh secret required")
	}
	if bytes.Equal(cfg.AccessSecret, cfg.RefreshSecret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("invalid access TTL configuration")
	}
	if cfg.RefreshTTL < 0 {
		return nil, errors.New("invalid refresh TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Manager{config: cfg}, nil
}

// IssueAccess signs a time-bounded access token for the given identity.
// Expiry is issued_at + AccessTTL.
func (m *Manager) IssueAccess(principalID, username, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		PrincipalID: principalID,
		Username:    username,
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessTTL)),
			Issuer:    m.config.Issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.AccessSecret)
}

// IssueRefresh signs a refresh token for the given identity with the refresh
// secret. No exp claim is added unless Config.RefreshTTL is positive; the
// credential store decides liveness.
func (m *Manager) IssueRefresh(principalID, username, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		PrincipalID: principalID,
		Username:    username,
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
			Issuer:   m.config.Issuer,
			// ID makes each issued refresh token distinct even within the
			// same second, which the rotation protocol relies on.
			ID: newTokenID(),
		},
	}
	if m.config.RefreshTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.config.RefreshTTL))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.RefreshSecret)
}

// VerifyAccess checks signature and expiry against the access secret and
// returns the embedded claims. Any signature mismatch, malformed token, or
// past expiry is an error; VerifyAccess never panics on attacker input.
func (m *Manager) VerifyAccess(tokenStr string) (*Claims, error) {
	return m.parse(tokenStr, m.config.AccessSecret, true)
}

// VerifyRefresh checks the signature against the refresh secret and returns
// the embedded claims. Expiry is only enforced when the token carries an exp
// claim.
func (m *Manager) VerifyRefresh(tokenStr string) (*Claims, error) {
	return m.parse(tokenStr, m.config.RefreshSecret, false)
}

func newTokenID() string {
	return uuid.NewString()
}

func (m *Manager) parse(tokenStr string, secret []byte, requireExp bool) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if requireExp {
		options = append(options, jwt.WithExpirationRequired())
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.PrincipalID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}
