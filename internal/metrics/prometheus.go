package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// PrometheusProvider exposes request and consumer metrics to Prometheus.
type PrometheusProvider struct {
	logger    zerolog.Logger
	namespace string
	enabled   bool

	registry prometheus.Registerer
	gatherer prometheus.Gatherer

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	messagesConsumed *prometheus.CounterVec
	queueDepth       *prometheus.GaugeVec

	registered bool
	mu         sync.Mutex
}

// PrometheusConfig holds configuration for the Prometheus provider.
type PrometheusConfig struct {
	Enabled   bool
	Namespace string                // Metric namespace (e.g. "awsquery")
	Registry  prometheus.Registerer // Custom registry (optional, defaults to prometheus.DefaultRegisterer)
}

// NewPrometheusProvider creates a new Prometheus metrics provider
func NewPrometheusProvider(logger zerolog.Logger, cfg PrometheusConfig) *PrometheusProvider {
	if cfg.Namespace == "" {
		cfg.Namespace = "awsquery"
	}

	p := &PrometheusProvider{
		logger:    logger,
		namespace: cfg.Namespace,
		registry:  cfg.Registry,
		enabled:   cfg.Enabled,
	}

	if cfg.Registry != nil {
		if reg, ok := cfg.Registry.(*prometheus.Registry); ok {
			p.gatherer = reg
		}
	}

	p.initMetrics()
	return p
}

var _ Provider = (*PrometheusProvider)(nil)
var _ HTTPProvider = (*PrometheusProvider)(nil)

// Name returns the provider name
func (p *PrometheusProvider) Name() string {
	return string(ProviderTypePrometheus)
}

// Enabled returns whether Prometheus metrics are enabled
func (p *PrometheusProvider) Enabled() bool {
	return p.enabled
}

func (p *PrometheusProvider) initMetrics() {
	p.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "api_requests_total",
			Help:      "Total number of AWS API requests issued",
		},
		[]string{"service", "action", "outcome"},
	)

	p.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: p.namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Duration of AWS API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "action"},
	)

	p.messagesConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "messages_consumed_total",
			Help:      "Total number of messages handled by the consumer",
		},
		[]string{"queue", "status"},
	)

	p.queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: p.namespace,
			Name:      "queue_depth",
			Help:      "Approximate number of messages in the queue",
		},
		[]string{"queue"},
	)
}

// Collectors returns all Prometheus collectors managed by this provider.
func (p *PrometheusProvider) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		p.requestsTotal,
		p.requestDuration,
		p.messagesConsumed,
		p.queueDepth,
	}
}

// Register registers the collectors with the configured registry, or the
// default registerer when none was provided. Safe to call more than once.
func (p *PrometheusProvider) Register() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.registered {
		return nil
	}

	registry := p.registry
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	for _, c := range p.Collectors() {
		if err := registry.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}

	p.registered = true
	return nil
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (p *PrometheusProvider) Handler() http.Handler {
	if p.gatherer != nil {
		return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

// IncRequests counts one API request by outcome.
func (p *PrometheusProvider) IncRequests(service, action, outcome string) {
	if !p.enabled {
		return
	}
	p.requestsTotal.WithLabelValues(service, action, outcome).Inc()
}

// ObserveRequestDuration records the duration of one API request.
func (p *PrometheusProvider) ObserveRequestDuration(service, action string, seconds float64) {
	if !p.enabled {
		return
	}
	p.requestDuration.WithLabelValues(service, action).Observe(seconds)
}

// IncMessagesConsumed counts one consumed message by status.
func (p *PrometheusProvider) IncMessagesConsumed(queue, status string) {
	if !p.enabled {
		return
	}
	p.messagesConsumed.WithLabelValues(queue, status).Inc()
}

// SetQueueDepth records the approximate queue depth.
func (p *PrometheusProvider) SetQueueDepth(queue string, depth float64) {
	if !p.enabled {
		return
	}
	p.queueDepth.WithLabelValues(queue).Set(depth)
}
