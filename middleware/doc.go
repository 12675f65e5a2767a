// Package middleware exposes an HTTP middleware adapter that gates
// requests on bearer access tokens via authcore.Engine verification.
//
// [Guard] reads the Authorization header, calls Engine.VerifyAccess,
// and injects the validated claims into the request context where
// [ClaimsFromContext] retrieves them.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does
// NOT implement authentication logic itself; all decisions are
// delegated to Engine.VerifyAccess.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Touch the principal store (Engine handles I/O).
//   - Leak why a token was rejected; every failure is a uniform 401.
package middleware
