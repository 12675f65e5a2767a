// Package password implements password hashing and verification with Argon2id defaults.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Each call to [Argon2.Hash] draws a fresh random salt, so hashing the same
// plaintext twice yields different encodings. [Argon2.Verify] recomputes the
// digest with the parameters embedded in the stored encoding and compares in
// constant time; a mismatch is reported as (false, nil), never as an error.
// A stored encoding that cannot be parsed is reported as [ErrMalformedHash]:
// a data-integrity fault in the credential record, not a bad password.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy (presence,
// length) is enforced by the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords; callers supply plaintext and receive hashes.
//   - Import any other authcore package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
