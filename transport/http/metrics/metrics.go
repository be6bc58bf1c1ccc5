// Package metrics exposes HTTP and recompute metrics on a private
// Prometheus registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics interface {
	Registry() *prometheus.Registry
}

const namespace = "stepviz"
