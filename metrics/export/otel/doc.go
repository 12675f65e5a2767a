// Package otel bridges engine metrics into an OpenTelemetry meter via
// observable instruments. Counters and histogram buckets are read from
// snapshots inside a single registered callback, so collection never
// touches the request path.
package otel
