// Package metrics provides metrics integration for the query-protocol client
// and its consumer loop.
package metrics

import (
	"net/http"
)

// Provider is the unified interface for metrics backends. Implementations
// include Prometheus, CloudWatch and Noop providers.
type Provider interface {
	// IncRequests counts one API request; outcome is "success", "api_error"
	// or "transport_error".
	IncRequests(service, action, outcome string)
	// ObserveRequestDuration records the wall time of one API request.
	ObserveRequestDuration(service, action string, seconds float64)

	// IncMessagesConsumed counts one consumed message by handling status.
	IncMessagesConsumed(queue, status string)
	// SetQueueDepth records the approximate number of messages in a queue.
	SetQueueDepth(queue string, depth float64)

	// Provider info
	Name() string
	Enabled() bool
}

// HTTPProvider is an optional interface for providers that expose an HTTP
// scrape handler (e.g. Prometheus).
type HTTPProvider interface {
	Provider
	Handler() http.Handler
}

// ProviderType represents the type of metrics provider
type ProviderType string

const (
	ProviderTypePrometheus ProviderType = "prometheus"
	ProviderTypeCloudWatch ProviderType = "cloudwatch"
	ProviderTypeNoop       ProviderType = "noop"
)
