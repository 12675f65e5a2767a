// Package redisstore implements the principal store on Redis.
//
// Each principal lives in a hash at "<prefix>:principal:<id>" with
// secondary index keys mapping normalized username, email, and the
// refresh-token digest back to the principal ID. Insert and the
// refresh-token swap run as Lua scripts so index and record always
// change together, and so exactly one of several concurrent rotations
// can win.
//
// # Architecture boundaries
//
// This package speaks the store contract and nothing else. It never
// sees raw tokens or raw passwords and never judges credential
// validity.
package redisstore
