package awsquery

import (
	"github.com/angelcam/go-aws-query/internal/metrics"
)

// Re-export metrics types for convenience

// MetricsProvider is the unified interface for all metrics providers.
type MetricsProvider = metrics.Provider

// HTTPMetricsProvider is an optional interface for providers that expose HTTP handlers.
type HTTPMetricsProvider = metrics.HTTPProvider

// MetricsProviderType represents the type of metrics provider.
type MetricsProviderType = metrics.ProviderType

// Metrics provider type constants
const (
	MetricsProviderPrometheus = metrics.ProviderTypePrometheus
	MetricsProviderCloudWatch = metrics.ProviderTypeCloudWatch
	MetricsProviderNoop       = metrics.ProviderTypeNoop
)
