// Package awsquery is a self-contained client for AWS's query-style REST
// APIs (SQS, SNS), signing every call with AWS Signature Version 4 and
// exposing typed operations for message queues and pub/sub topics.
//
// It speaks the query protocol directly - signed HTTPS GET requests, XML
// responses - with no AWS SDK dependency. Retry policy, credential refresh
// and pagination are deliberately left to callers.
//
// Basic usage:
//
//	client, err := awsquery.New(
//	    awsquery.WithCredentials("access-key", "secret-key"),
//	    awsquery.WithRegion("us-east-1"),
//	    awsquery.WithAccountID("123456789012"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Send a message
//	sqs, _ := client.SQS()
//	id, err := sqs.SendMessage(ctx, "orders", `{"order_id": 42}`)
//
//	// Publish to a topic
//	sns := client.SNS()
//	id, err = sns.Publish(ctx, "arn:aws:sns:us-east-1:123456789012:events", "hello")
package awsquery

import (
	"net/http"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/angelcam/go-aws-query/internal/config"
	"github.com/angelcam/go-aws-query/internal/metrics"
	"github.com/angelcam/go-aws-query/internal/query"
)

// Client is the entry point of the library. It holds the credentials and
// shared collaborators and hands out the service-specific clients. All state
// is read-only after construction, so a Client and the service clients it
// returns are safe for concurrent use.
type Client struct {
	config     *config.Config
	logger     zerolog.Logger
	httpClient HTTPClient

	metricsProvider    metrics.Provider
	prometheusProvider *metrics.PrometheusProvider

	mu  sync.Mutex
	sqs *SQSClient
	sns *SNSClient
}

// New creates a new client with the provided options. Credentials and a
// region are required; an account ID is additionally required before SQS()
// can be used.
func New(opts ...Option) (*Client, error) {
	options := &Options{
		config: config.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	cfg := options.config
	if cfg.AWS.AccessKeyID == "" || cfg.AWS.SecretAccessKey == "" {
		return nil, ErrCredentialsRequired
	}
	if cfg.AWS.Region == "" {
		return nil, ErrRegionRequired
	}

	logger := options.logger
	if !options.loggerSet {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	httpClient := options.httpClient
	if httpClient == nil {
		// Long polling keeps a receive open for up to 20s, so the default
		// transport carries no overall timeout.
		httpClient = &http.Client{}
	}

	client := &Client{
		config:     cfg,
		logger:     logger,
		httpClient: httpClient,
	}

	var provider metrics.Provider = metrics.NewNoopProvider()
	if cfg.Metrics.Prometheus.Enabled {
		prom := metrics.NewPrometheusProvider(logger, metrics.PrometheusConfig{
			Enabled:   true,
			Namespace: cfg.Metrics.Prometheus.Namespace,
			Registry:  options.prometheusRegistry,
		})
		if err := prom.Register(); err != nil {
			logger.Warn().Err(err).Msg("Failed to register Prometheus metrics")
		}
		client.prometheusProvider = prom
		provider = prom
	} else if cfg.Metrics.CloudWatch.Enabled {
		provider = metrics.NewCloudWatchProvider(httpClient, client.credentials(), cfg.AWS.Region, logger, metrics.CloudWatchConfig{
			Enabled:   true,
			Namespace: cfg.Metrics.CloudWatch.Namespace,
		})
	}
	client.metricsProvider = provider

	return client, nil
}

func (c *Client) credentials() query.Credentials {
	return query.Credentials{
		AccessKeyID:     c.config.AWS.AccessKeyID,
		SecretAccessKey: c.config.AWS.SecretAccessKey,
	}
}

// SQS returns the SQS operations client. It fails if no account ID was
// configured, since SQS queue URLs embed the account.
func (c *Client) SQS() (*SQSClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sqs != nil {
		return c.sqs, nil
	}
	if c.config.AWS.AccountID == "" {
		return nil, ErrAccountIDRequired
	}

	c.sqs = &SQSClient{
		invoker:   query.NewInvoker(c.httpClient, c.credentials(), c.config.AWS.Region, "sqs", c.logger, c.metricsProvider),
		region:    c.config.AWS.Region,
		accountID: c.config.AWS.AccountID,
		endpoint:  c.config.AWS.Endpoint,
		logger:    c.logger,
		metrics:   c.metricsProvider,
	}
	return c.sqs, nil
}

// SNS returns the SNS operations client.
func (c *Client) SNS() *SNSClient {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sns != nil {
		return c.sns
	}

	c.sns = &SNSClient{
		invoker:  query.NewInvoker(c.httpClient, c.credentials(), c.config.AWS.Region, "sns", c.logger, c.metricsProvider),
		region:   c.config.AWS.Region,
		endpoint: c.config.AWS.Endpoint,
		logger:   c.logger,
	}
	return c.sns
}

// PrometheusHandler returns the HTTP handler for Prometheus metrics so the
// endpoint can be mounted on any HTTP server. Returns nil if Prometheus
// metrics are not enabled.
//
// Example:
//
//	http.Handle("/metrics", client.PrometheusHandler())
//	http.ListenAndServe(":9090", nil)
func (c *Client) PrometheusHandler() http.Handler {
	if c.prometheusProvider == nil {
		return nil
	}
	return c.prometheusProvider.Handler()
}

// PrometheusEnabled returns true if Prometheus metrics are enabled.
func (c *Client) PrometheusEnabled() bool {
	return c.prometheusProvider != nil
}
