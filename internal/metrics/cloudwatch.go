package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/angelcam/go-aws-query/internal/query"
)

const (
	cloudwatchVersion = "2010-08-01"
	cloudwatchService = "monitoring"

	// CloudWatch rejects timestamps older than two weeks; puts are issued
	// immediately so a short call timeout is enough.
	cloudwatchPutTimeout = 10 * time.Second
)

// CloudWatchProvider ships metrics to AWS CloudWatch through the repository's
// own query-protocol invoker (PutMetricData on the monitoring endpoint), so
// metric delivery uses the same signing engine as the service clients.
//
// Puts are issued asynchronously and failures are logged, never propagated:
// metric delivery must not fail API calls.
type CloudWatchProvider struct {
	invoker   *query.Invoker
	endpoint  string
	namespace string
	logger    zerolog.Logger
	enabled   bool
}

// CloudWatchConfig holds configuration for the CloudWatch provider.
type CloudWatchConfig struct {
	Enabled   bool
	Namespace string
	// Endpoint overrides the monitoring endpoint, for testing.
	Endpoint string
}

// NewCloudWatchProvider creates a CloudWatch metrics provider signing with
// the given credentials. The provider's own requests are not recorded by any
// metrics recorder.
func NewCloudWatchProvider(httpClient query.HTTPClient, creds query.Credentials, region string, logger zerolog.Logger, cfg CloudWatchConfig) *CloudWatchProvider {
	if cfg.Namespace == "" {
		cfg.Namespace = "AWSQuery"
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://" + cloudwatchService + "." + region + ".amazonaws.com/"
	}
	return &CloudWatchProvider{
		invoker:   query.NewInvoker(httpClient, creds, region, cloudwatchService, logger, nil),
		endpoint:  endpoint,
		namespace: cfg.Namespace,
		logger:    logger,
		enabled:   cfg.Enabled,
	}
}

var _ Provider = (*CloudWatchProvider)(nil)

// Name returns the provider name
func (p *CloudWatchProvider) Name() string {
	return string(ProviderTypeCloudWatch)
}

// Enabled returns whether CloudWatch metrics are enabled
func (p *CloudWatchProvider) Enabled() bool {
	return p.enabled
}

// IncRequests counts one API request by outcome.
func (p *CloudWatchProvider) IncRequests(service, action, outcome string) {
	p.put("RequestCount", 1, "Count", map[string]string{
		"Service": service,
		"Action":  action,
		"Outcome": outcome,
	})
}

// ObserveRequestDuration records the duration of one API request.
func (p *CloudWatchProvider) ObserveRequestDuration(service, action string, seconds float64) {
	p.put("RequestDuration", seconds, "Seconds", map[string]string{
		"Service": service,
		"Action":  action,
	})
}

// IncMessagesConsumed counts one consumed message by status.
func (p *CloudWatchProvider) IncMessagesConsumed(queue, status string) {
	p.put("MessagesConsumed", 1, "Count", map[string]string{
		"Queue":  queue,
		"Status": status,
	})
}

// SetQueueDepth records the approximate queue depth.
func (p *CloudWatchProvider) SetQueueDepth(queue string, depth float64) {
	p.put("QueueDepth", depth, "Count", map[string]string{
		"Queue": queue,
	})
}

// PutMetric synchronously sends a single metric datum. The asynchronous
// Provider methods funnel through put; PutMetric is exposed for callers that
// need delivery confirmation.
func (p *CloudWatchProvider) PutMetric(ctx context.Context, name string, value float64, unit string, dimensions map[string]string) error {
	params := p.metricParams(name, value, unit, dimensions)
	_, err := p.invoker.Invoke(ctx, p.endpoint, params)
	return err
}

func (p *CloudWatchProvider) put(name string, value float64, unit string, dimensions map[string]string) {
	if !p.enabled {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cloudwatchPutTimeout)
		defer cancel()
		if err := p.PutMetric(ctx, name, value, unit, dimensions); err != nil {
			p.logger.Warn().
				Str("metric", name).
				Err(err).
				Msg("Failed to put CloudWatch metric")
		}
	}()
}

func (p *CloudWatchProvider) metricParams(name string, value float64, unit string, dimensions map[string]string) map[string]string {
	params := map[string]string{
		"Action":    "PutMetricData",
		"Version":   cloudwatchVersion,
		"Namespace": p.namespace,

		"MetricData.member.1.MetricName": name,
		"MetricData.member.1.Value":      strconv.FormatFloat(value, 'f', -1, 64),
		"MetricData.member.1.Unit":       unit,
	}

	i := 0
	for _, dim := range sortedKeys(dimensions) {
		i++
		prefix := "MetricData.member.1.Dimensions.member." + strconv.Itoa(i)
		params[prefix+".Name"] = dim
		params[prefix+".Value"] = dimensions[dim]
	}
	return params
}
