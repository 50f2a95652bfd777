package awsquery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// StartConsumer polls the named queue and dispatches every received message
// to the handler. Successfully handled messages are deleted in batches;
// failed ones are left in the queue for redelivery after their visibility
// timeout. This is a blocking call that runs until the context is cancelled.
//
// Example:
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//
//	err := client.StartConsumer(ctx, "orders", func(ctx context.Context, msg awsquery.ReceivedMessage) error {
//	    fmt.Println(msg.Body)
//	    return nil
//	})
func (c *Client) StartConsumer(ctx context.Context, queueName string, handler Handler, opts ...ConsumerOption) error {
	sqs, err := c.SQS()
	if err != nil {
		return err
	}

	consumerOpts := defaultConsumerOptions()
	for _, opt := range opts {
		opt(consumerOpts)
	}

	c.logger.Info().
		Str("queue", queueName).
		Msg("Starting consumer")

	return c.runConsumerLoop(ctx, sqs, queueName, handler, consumerOpts)
}

// StartMultiConsumer consumes from several queues concurrently, one polling
// loop per queue, all dispatching to the same handler. The first loop to
// fail cancels the others.
//
// Example:
//
//	err := client.StartMultiConsumer(ctx,
//	    []string{"orders", "payments", "notifications"},
//	    handler,
//	)
func (c *Client) StartMultiConsumer(ctx context.Context, queueNames []string, handler Handler, opts ...ConsumerOption) error {
	if len(queueNames) == 0 {
		return fmt.Errorf("awsquery: no queues specified")
	}

	sqs, err := c.SQS()
	if err != nil {
		return err
	}

	consumerOpts := defaultConsumerOptions()
	for _, opt := range opts {
		opt(consumerOpts)
	}

	c.logger.Info().
		Strs("queues", queueNames).
		Msg("Starting multi-queue consumer")

	g, gctx := errgroup.WithContext(ctx)
	for _, queueName := range queueNames {
		queueName := queueName
		g.Go(func() error {
			return c.runConsumerLoop(gctx, sqs, queueName, handler, consumerOpts)
		})
	}
	return g.Wait()
}

func defaultConsumerOptions() *consumerOptions {
	return &consumerOptions{
		receiveOpts: []ReceiveOption{
			WithMaxMessages(maxBatchEntries),
			WithWaitTimeSeconds(20),
		},
		errorBackoff: errorBackoffConfig{
			initialDelay: 1 * time.Second,
			maxDelay:     30 * time.Second,
			multiplier:   2.0,
		},
	}
}

func (c *Client) runConsumerLoop(ctx context.Context, sqs *SQSClient, queueName string, handler Handler, opts *consumerOptions) error {
	consecutiveErrors := 0

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().
				Str("queue", queueName).
				Msg("Consumer shutting down")
			return ctx.Err()
		default:
		}

		messages, err := sqs.ReceiveMessages(ctx, queueName, opts.receiveOpts...)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			consecutiveErrors++
			c.logger.Error().
				Str("queue", queueName).
				Err(err).
				Msg("Failed to receive messages")
			if opts.onError != nil {
				opts.onError(err)
			}
			if err := sleepBackoff(ctx, opts.errorBackoff, consecutiveErrors); err != nil {
				return err
			}
			continue
		}
		consecutiveErrors = 0

		if len(messages) == 0 {
			continue
		}
		c.logger.Debug().
			Str("queue", queueName).
			Int("count", len(messages)).
			Msg("Received messages")

		handled := make([]string, 0, len(messages))
		for _, msg := range messages {
			msgCtx := context.WithValue(ctx, ContextKeyQueueName, queueName)
			msgCtx = context.WithValue(msgCtx, ContextKeyMessageID, msg.MessageID)
			msgCtx = context.WithValue(msgCtx, ContextKeyTraceID, uuid.New().String())

			if err := handler(msgCtx, msg); err != nil {
				c.metricsProvider.IncMessagesConsumed(queueName, "error")
				c.logger.Error().
					Str("queue", queueName).
					Str("message_id", msg.MessageID).
					Err(err).
					Msg("Handler failed, leaving message for redelivery")
				continue
			}
			c.metricsProvider.IncMessagesConsumed(queueName, "success")
			handled = append(handled, msg.ReceiptHandle)
		}

		if len(handled) == 0 {
			continue
		}
		results, err := sqs.DeleteMessages(ctx, queueName, handled)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error().
				Str("queue", queueName).
				Err(err).
				Msg("Failed to delete handled messages")
			continue
		}
		for _, entry := range results {
			if entry.Err != nil {
				c.logger.Warn().
					Str("queue", queueName).
					Err(entry.Err).
					Msg("Failed to delete message, it will be redelivered")
			}
		}
	}
}

// sleepBackoff waits the exponential backoff delay for the given consecutive
// error count, or returns early when the context is cancelled.
func sleepBackoff(ctx context.Context, cfg errorBackoffConfig, consecutiveErrors int) error {
	delay := cfg.initialDelay
	for i := 1; i < consecutiveErrors; i++ {
		delay = time.Duration(float64(delay) * cfg.multiplier)
		if delay >= cfg.maxDelay {
			delay = cfg.maxDelay
			break
		}
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
