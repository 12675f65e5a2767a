// Package store defines the persistence contract for principal records
// and their single active refresh token.
//
// Implementations index principals by normalized username and by the
// SHA-256 digest of the currently active refresh token. The raw token
// string never reaches the store; callers hash it first with HashToken.
//
// # Architecture boundaries
//
// The store holds bytes and answers lookups. It does not verify token
// signatures, hash passwords, or decide whether a credential is valid.
// Those judgements belong to the engine and the token manager.
//
// # What this package must NOT do
//
//   - Persist raw refresh tokens or raw passwords.
//   - Interpret the password hash field beyond opaque storage.
//   - Swallow backend outages; they surface as ErrUnavailable.
package store
