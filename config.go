package authcore

import (
	"bytes"
	"errors"
	"time"
)

// Config defines the engine's tunables. Configure once during
// initialization and treat as immutable afterwards.
type Config struct {
	Token    TokenConfig
	Password PasswordConfig
	Identity IdentityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// TokenConfig controls token issuance and verification.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	// RefreshTTL zero means refresh tokens carry no expiry claim; the
	// store match alone decides liveness.
	RefreshTTL time.Duration
	Issuer     string
	Leeway     time.Duration
}

// PasswordConfig carries argon2id parameters.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// IdentityConfig controls signup and normalization behavior.
type IdentityConfig struct {
	// DefaultRole is assigned to principals created without an explicit
	// role.
	DefaultRole string
	// MaxUsernameLength bounds the normalized username.
	MaxUsernameLength int
	// MaxPasswordLength bounds the raw password before hashing.
	MaxPasswordLength int
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration. Token secrets have
// no defaults and must be supplied.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 0,
			Leeway:     0,
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Identity: IdentityConfig{
			DefaultRole:       "user",
			MaxUsernameLength: 64,
			MaxPasswordLength: 1024,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.AccessSecret = cloneBytes(cfg.Token.AccessSecret)
	out.Token.RefreshSecret = cloneBytes(cfg.Token.RefreshSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if len(c.Token.AccessSecret) == 0 {
		return errors.New("Token AccessSecret is required")
	}
	if len(c.Token.RefreshSecret) == 0 {
		return errors.New("Token RefreshSecret is required")
	}
	if bytes.Equal(c.Token.AccessSecret, c.Token.RefreshSecret) {
		return errors.New("Token AccessSecret and RefreshSecret must differ")
	}
	if c.Token.AccessTTL <= 0 {
		return errors.New("Token AccessTTL must be > 0")
	}
	if c.Token.RefreshTTL < 0 {
		return errors.New("Token RefreshTTL must be >= 0")
	}
	if c.Token.Leeway < 0 {
		return errors.New("Token Leeway must be >= 0")
	}

	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	if c.Identity.DefaultRole == "" {
		return errors.New("Identity DefaultRole is required")
	}
	if c.Identity.MaxUsernameLength <= 0 {
		return errors.New("Identity MaxUsernameLength must be > 0")
	}
	if c.Identity.MaxPasswordLength <= 0 {
		return errors.New("Identity MaxPasswordLength must be > 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
