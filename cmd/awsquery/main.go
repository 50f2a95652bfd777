// Package main provides the CLI entry point for the AWS query client
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/angelcam/go-aws-query/internal/config"
)

var (
	cfg    *config.Config
	logger zerolog.Logger
)

func main() {
	// Initialize logger
	logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	// Load configuration from .env file and environment variables
	cfg = config.Load()
	logger.Debug().
		Str("region", cfg.AWS.Region).
		Str("account_id", cfg.AWS.AccountID).
		Msg("Configuration loaded")

	// Create root command
	rootCmd := &cobra.Command{
		Use:   "awsquery",
		Short: "CLI for AWS query-protocol APIs (SQS, SNS)",
		Long: `awsquery provides commands for sending, receiving and deleting SQS
messages, publishing SNS notifications and managing SNS subscriptions,
using SigV4-signed query-protocol requests.`,
	}

	// Add subcommands
	rootCmd.AddCommand(
		newSendCmd(),
		newReceiveCmd(),
		newDeleteCmd(),
		newDepthCmd(),
		newPublishCmd(),
		newSubscribeCmd(),
		newConfirmCmd(),
		newUnsubscribeCmd(),
		newConsumeCmd(),
	)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("Received shutdown signal")
		cancel()
	}()

	// Execute
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
