package authcore

import "errors"

var (
	// ErrValidation reports a malformed request (empty username, empty
	// password, or an oversized field).
	ErrValidation = errors.New("invalid request")
	// ErrDuplicateIdentity reports a signup collision on username or email.
	ErrDuplicateIdentity = errors.New("identity already exists")
	// ErrInvalidCredentials is the uniform login failure. Unknown
	// username and wrong password both map here so callers cannot probe
	// which usernames exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPrincipalNotFound reports a principal lookup miss on internal
	// paths. Login never surfaces it.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrInvalidSession reports a refresh or logout attempt with a token
	// that is not the principal's current session: already rotated,
	// revoked, or never issued.
	ErrInvalidSession = errors.New("invalid session")
	// ErrInvalidSignature reports a token that fails signature or claims
	// verification.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrMissingToken reports an operation invoked with no token at
	// all: an absent bearer header, or an empty refresh token passed to
	// Refresh or Logout.
	ErrMissingToken = errors.New("missing token")
	// ErrUnauthorized is the uniform gate rejection.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrCorruptCredential reports a stored password hash that can no
	// longer be parsed. The account needs operator attention.
	ErrCorruptCredential = errors.New("corrupt stored credential")
	// ErrStoreUnavailable reports a persistence backend outage.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrEngineNotReady reports use of an engine that was not built.
	ErrEngineNotReady = errors.New("engine not initialized")
)
