// Package pgstore implements the principal store on PostgreSQL.
//
// Principals live in a single principals table with unique constraints
// on username and email and a unique index on the refresh-token digest.
// The refresh-token swap is a conditional UPDATE whose WHERE clause
// names the expected digest, so the database serializes concurrent
// rotations and at most one caller sees a row change.
//
// Schema management uses embedded goose migrations; call [Migrate]
// before first use.
package pgstore
