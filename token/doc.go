// Package token issues and verifies the two credential classes of the
// authentication core: short-lived access tokens and store-backed refresh
// tokens, both JWS-compact HS256 tokens carrying {principal id, username,
// role}.
//
// # Two secrets
//
// Access and refresh tokens are signed with distinct secrets, configured at
// [Manager] construction. Compromise of one key must not allow forging the
// other token class, so [NewManager] rejects configurations where the two
// secrets are equal.
//
// # Liveness
//
// Access tokens always carry an exp claim and verification requires it.
// Refresh tokens carry no exp claim by default, because the credential
// store's stored-token match is the liveness authority. Config.RefreshTTL
// may add one for defense in depth.
//
// # Architecture boundaries
//
// Verification is pure CPU work: no I/O, no store access, no side effects.
// Mapping verification failures onto the engine's error taxonomy happens in
// the root package, not here.
package token
