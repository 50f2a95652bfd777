package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	awsquery "github.com/angelcam/go-aws-query"
)

// createClient builds a client from the loaded configuration.
func createClient() (*awsquery.Client, error) {
	opts := []awsquery.Option{
		awsquery.WithCredentials(cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey),
		awsquery.WithRegion(cfg.AWS.Region),
		awsquery.WithLogger(logger),
	}
	if cfg.AWS.AccountID != "" {
		opts = append(opts, awsquery.WithAccountID(cfg.AWS.AccountID))
	}
	if cfg.AWS.Endpoint != "" {
		opts = append(opts, awsquery.WithEndpoint(cfg.AWS.Endpoint))
	}
	if cfg.Metrics.Prometheus.Enabled {
		opts = append(opts, awsquery.WithPrometheusMetrics(true, cfg.Metrics.Prometheus.Namespace))
	}
	if cfg.Metrics.CloudWatch.Enabled {
		opts = append(opts, awsquery.WithCloudWatchMetrics(true, cfg.Metrics.CloudWatch.Namespace))
	}
	return awsquery.New(opts...)
}

// newSendCmd creates the send command
func newSendCmd() *cobra.Command {
	var delaySeconds int

	cmd := &cobra.Command{
		Use:   "send [queue] [body]",
		Short: "Send a message to an SQS queue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient()
			if err != nil {
				return err
			}
			sqs, err := client.SQS()
			if err != nil {
				return err
			}

			var opts []awsquery.SendOption
			if cmd.Flags().Changed("delay") {
				opts = append(opts, awsquery.WithDelaySeconds(delaySeconds))
			}

			messageID, err := sqs.SendMessage(cmd.Context(), args[0], args[1], opts...)
			if err != nil {
				return fmt.Errorf("failed to send message: %w", err)
			}

			fmt.Printf("Sent message: %s\n", messageID)
			return nil
		},
	}

	cmd.Flags().IntVarP(&delaySeconds, "delay", "d", 0, "Delay delivery by this many seconds")

	return cmd
}

// newReceiveCmd creates the receive command
func newReceiveCmd() *cobra.Command {
	var maxMessages int
	var waitTime int

	cmd := &cobra.Command{
		Use:   "receive [queue]",
		Short: "Receive messages from an SQS queue",
		Long: `Receives up to --max messages from the queue and prints them. Received
messages stay in flight until their visibility timeout expires; use the
delete command to remove them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient()
			if err != nil {
				return err
			}
			sqs, err := client.SQS()
			if err != nil {
				return err
			}

			messages, err := sqs.ReceiveMessages(cmd.Context(), args[0],
				awsquery.WithMaxMessages(maxMessages),
				awsquery.WithWaitTimeSeconds(waitTime),
			)
			if err != nil {
				return fmt.Errorf("failed to receive messages: %w", err)
			}

			if len(messages) == 0 {
				fmt.Println("No messages received")
				return nil
			}

			for i, msg := range messages {
				fmt.Printf("--- Message %d ---\n", i+1)
				fmt.Printf("Message ID: %s\n", msg.MessageID)
				fmt.Printf("Receipt Handle: %s\n", msg.ReceiptHandle)
				fmt.Printf("Body: %s\n\n", msg.Body)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&maxMessages, "max", "m", 10, "Maximum messages to receive")
	cmd.Flags().IntVarP(&waitTime, "wait", "w", 5, "Long polling wait time in seconds")

	return cmd
}

// newDeleteCmd creates the delete command
func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [queue] [receipt-handle...]",
		Short: "Delete messages from an SQS queue",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient()
			if err != nil {
				return err
			}
			sqs, err := client.SQS()
			if err != nil {
				return err
			}

			queueName := args[0]
			handles := args[1:]

			if len(handles) == 1 {
				if _, err := sqs.DeleteMessage(cmd.Context(), queueName, handles[0]); err != nil {
					return fmt.Errorf("failed to delete message: %w", err)
				}
				fmt.Println("Deleted 1 message")
				return nil
			}

			results, err := sqs.DeleteMessages(cmd.Context(), queueName, handles)
			if err != nil {
				return fmt.Errorf("failed to delete messages: %w", err)
			}

			deleted := 0
			for _, entry := range results {
				if entry.Err != nil {
					fmt.Printf("Failed to delete %s: %v\n", entry.ReceiptHandle, entry.Err)
				} else {
					deleted++
				}
			}
			fmt.Printf("Deleted %d of %d messages\n", deleted, len(handles))
			return nil
		},
	}
}

// newDepthCmd creates the depth command
func newDepthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "depth [queue]",
		Short: "Display the approximate number of messages in a queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient()
			if err != nil {
				return err
			}
			sqs, err := client.SQS()
			if err != nil {
				return err
			}

			depth, err := sqs.QueueDepth(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get queue depth: %w", err)
			}

			fmt.Printf("Messages in %s: %d\n", args[0], depth)
			return nil
		},
	}
}

// newPublishCmd creates the publish command
func newPublishCmd() *cobra.Command {
	var subject string
	var messageStructure string

	cmd := &cobra.Command{
		Use:   "publish [topic-arn] [message]",
		Short: "Publish a message to an SNS topic",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient()
			if err != nil {
				return err
			}

			var opts []awsquery.PublishOption
			if subject != "" {
				opts = append(opts, awsquery.WithSubject(subject))
			}
			if messageStructure != "" {
				opts = append(opts, awsquery.WithMessageStructure(messageStructure))
			}

			messageID, err := client.SNS().Publish(cmd.Context(), args[0], args[1], opts...)
			if err != nil {
				return fmt.Errorf("failed to publish message: %w", err)
			}

			fmt.Printf("Published message: %s\n", messageID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Optional message subject")
	cmd.Flags().StringVar(&messageStructure, "structure", "", `Message structure ("json" for per-protocol payloads)`)

	return cmd
}

// newSubscribeCmd creates the subscribe command
func newSubscribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subscribe [topic-arn] [protocol] [endpoint]",
		Short: "Subscribe an endpoint to an SNS topic",
		Long: `Subscribes an endpoint to a topic. For protocols that require
confirmation (http, https, email) the returned ARN is "pending confirmation"
until the endpoint confirms with the confirm command.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient()
			if err != nil {
				return err
			}

			arn, err := client.SNS().Subscribe(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return fmt.Errorf("failed to subscribe: %w", err)
			}

			fmt.Printf("Subscription ARN: %s\n", arn)
			return nil
		},
	}
}

// newConfirmCmd creates the confirm command
func newConfirmCmd() *cobra.Command {
	var authenticateOnUnsubscribe bool

	cmd := &cobra.Command{
		Use:   "confirm [topic-arn] [token]",
		Short: "Confirm a pending SNS subscription",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient()
			if err != nil {
				return err
			}

			var opts []awsquery.ConfirmOption
			if cmd.Flags().Changed("authenticate-on-unsubscribe") {
				opts = append(opts, awsquery.WithAuthenticateOnUnsubscribe(authenticateOnUnsubscribe))
			}

			arn, err := client.SNS().ConfirmSubscription(cmd.Context(), args[0], args[1], opts...)
			if err != nil {
				return fmt.Errorf("failed to confirm subscription: %w", err)
			}

			fmt.Printf("Subscription ARN: %s\n", arn)
			return nil
		},
	}

	cmd.Flags().BoolVar(&authenticateOnUnsubscribe, "authenticate-on-unsubscribe", false,
		"Require signed requests to unsubscribe")

	return cmd
}

// newUnsubscribeCmd creates the unsubscribe command
func newUnsubscribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unsubscribe [subscription-arn]",
		Short: "Remove an SNS subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient()
			if err != nil {
				return err
			}

			if _, err := client.SNS().Unsubscribe(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to unsubscribe: %w", err)
			}

			fmt.Println("Unsubscribed")
			return nil
		},
	}
}

// splitQueues splits a comma-separated queue list, dropping empty entries.
func splitQueues(s string) []string {
	var queues []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			queues = append(queues, name)
		}
	}
	return queues
}
