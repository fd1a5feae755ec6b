// Package metrics defines metrics interfaces per domain (RegionMetrics)
// plus thin nil-safe wrapper functions, following the same indirection
// pattern as pkg/metrics/prometheus: a constructor here returns nil when
// disabled, and is backed by a Prometheus implementation registered from
// pkg/metrics/prometheus to avoid an import cycle.
package metrics

import (
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry   *prometheus.Registry
	enabled    bool
	instanceID string
)

// InitRegistry creates the process-wide Prometheus registry and enables
// metrics collection. Must be called before any NewXMetrics constructor;
// calling it more than once replaces the registry and generates a fresh
// instance ID.
func InitRegistry() *prometheus.Registry {
	registry = prometheus.NewRegistry()
	instanceID = uuid.NewString()
	enabled = true
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return enabled
}

// GetRegistry returns the process-wide registry. Callers must check
// IsEnabled first; GetRegistry before InitRegistry returns nil.
func GetRegistry() *prometheus.Registry {
	return registry
}

// InstanceID returns a random identifier generated at InitRegistry time,
// used as a constant label so metrics scraped from multiple regionctl or
// server processes sharing one Prometheus target can be told apart.
func InstanceID() string {
	return instanceID
}

// Reset disables metrics and drops the registry. Intended for test
// isolation between cases that call InitRegistry.
func Reset() {
	registry = nil
	enabled = false
	instanceID = ""
}
