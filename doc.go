// Package authcore provides a credential and session-token engine with
// argon2id password storage, JWT access tokens, and rotating
// store-backed refresh tokens.
//
// The package is designed for concurrent server workloads: Engine
// methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder],
// [Config], and value types (Principal, LoginResult, MetricsSnapshot).
// Password hashing, token codecs, and persistence live in the
// password, token, and store sub-packages and are composed here, never
// re-implemented.
//
// # What this package must NOT do
//
//   - Expose store clients or raw password hashes in its public API.
//   - Persist raw refresh tokens; only their SHA-256 digest reaches
//     the store.
//   - Treat access-token verification as a liveness check. Access
//     tokens are stateless; only refresh operations consult the store.
//
// # Performance contract
//
// VerifyAccess is the hot path: no store round-trip, no allocations
// beyond the returned claims. Login, Refresh, Signup, and Logout are
// allowed store round-trips.
package authcore
