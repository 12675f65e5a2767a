// Package prometheus renders engine metrics in Prometheus text
// exposition format without taking a dependency on a metrics registry.
// The exporter reads immutable snapshots, so serving /metrics never
// contends with the request path.
package prometheus
