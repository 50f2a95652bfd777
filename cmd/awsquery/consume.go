package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	awsquery "github.com/angelcam/go-aws-query"
)

// newConsumeCmd creates the consume command
func newConsumeCmd() *cobra.Command {
	var maxMessages int
	var waitTime int
	var queues string

	cmd := &cobra.Command{
		Use:   "consume [queue]",
		Short: "Consume messages from one or more SQS queues",
		Long: `Runs a polling consumer until interrupted. Each received message is
printed and deleted. Pass --queues to consume from several queues
concurrently instead of the positional argument.

When Prometheus metrics are enabled, an HTTP listener serving /metrics is
started on PROMETHEUS_LISTEN_ADDR.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			queueNames := splitQueues(queues)
			if len(args) > 0 {
				queueNames = append(queueNames, args[0])
			}
			if len(queueNames) == 0 {
				return fmt.Errorf("no queues specified")
			}
			return runConsume(cmd.Context(), queueNames, maxMessages, waitTime)
		},
	}

	cmd.Flags().IntVarP(&maxMessages, "max", "m", 10, "Maximum messages to receive per poll")
	cmd.Flags().IntVarP(&waitTime, "wait", "w", 20, "Long polling wait time in seconds")
	cmd.Flags().StringVarP(&queues, "queues", "q", "", "Comma-separated list of queues to consume")

	return cmd
}

func runConsume(ctx context.Context, queueNames []string, maxMessages, waitTime int) error {
	client, err := createClient()
	if err != nil {
		return err
	}

	// Serve /metrics while the consumer runs
	if client.PrometheusEnabled() {
		startMetricsListener(ctx, client)
	}

	handler := func(ctx context.Context, msg awsquery.ReceivedMessage) error {
		logger.Info().
			Str("queue", awsquery.QueueNameFromContext(ctx)).
			Str("message_id", msg.MessageID).
			Str("trace_id", awsquery.TraceIDFromContext(ctx)).
			Msg("Received message")
		fmt.Printf("[%s] %s\n", msg.MessageID, msg.Body)
		return nil
	}

	opts := []awsquery.ConsumerOption{
		awsquery.WithReceiveOptions(
			awsquery.WithMaxMessages(maxMessages),
			awsquery.WithWaitTimeSeconds(waitTime),
		),
	}

	if len(queueNames) == 1 {
		err = client.StartConsumer(ctx, queueNames[0], handler, opts...)
	} else {
		err = client.StartMultiConsumer(ctx, queueNames, handler, opts...)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func startMetricsListener(ctx context.Context, client *awsquery.Client) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", client.PrometheusHandler())

	server := &http.Server{
		Addr:    cfg.Metrics.Prometheus.ListenAddr,
		Handler: mux,
	}

	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Msg("Serving Prometheus metrics")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics listener failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Metrics listener shutdown failed")
		}
	}()
}
