package authcore

import "time"

// Principal is the public view of a stored identity. It never carries
// the password hash or the refresh-token digest.
type Principal struct {
	ID        string
	Username  string
	Email     string
	Role      string
	CreatedAt time.Time
}

// SignupRequest carries the fields accepted at account creation.
// Username and Email are normalized before storage; Role falls back to
// the configured default when empty.
type SignupRequest struct {
	Username string
	Email    string
	Password string
	Role     string
}

// TokenPair is one access token plus the refresh token that can renew
// it.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult is returned by Login and Refresh.
type LoginResult struct {
	Principal Principal
	Tokens    TokenPair
}
