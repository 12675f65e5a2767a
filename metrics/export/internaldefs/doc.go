// Package internaldefs holds the shared metric name table consumed by
// the Prometheus and OTel exporters, so both surfaces expose identical
// names and bucket bounds.
package internaldefs
