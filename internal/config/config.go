// Package config provides configuration management for the query client CLI.
package config

import (
	"github.com/spf13/viper"
)

// Config holds all configuration for the client
type Config struct {
	AWS     AWSConfig
	Metrics MetricsConfig
}

// AWSConfig holds AWS credentials and addressing
type AWSConfig struct {
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	Region          string `json:"region" yaml:"region"`
	// AccountID is required for building SQS queue URLs
	AccountID string `json:"account_id" yaml:"account_id"`
	// Endpoint overrides the per-service AWS endpoints (LocalStack etc.)
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// MetricsConfig holds metrics backend settings
type MetricsConfig struct {
	Prometheus PrometheusConfig `json:"prometheus" yaml:"prometheus"`
	CloudWatch CloudWatchConfig `json:"cloudwatch" yaml:"cloudwatch"`
}

// PrometheusConfig holds Prometheus metrics settings
type PrometheusConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Namespace string `json:"namespace" yaml:"namespace"`
	// ListenAddr is where the consume command serves /metrics
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`
}

// CloudWatchConfig holds CloudWatch metrics settings
type CloudWatchConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Namespace string `json:"namespace" yaml:"namespace"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		AWS: AWSConfig{
			Region: "us-east-1",
		},
		Metrics: MetricsConfig{
			Prometheus: PrometheusConfig{
				Enabled:    false,
				Namespace:  "awsquery",
				ListenAddr: ":9090",
			},
			CloudWatch: CloudWatchConfig{
				Enabled:   false,
				Namespace: "AWSQuery",
			},
		},
	}
}

// Helper functions using Viper

func getViperString(key, defaultValue string) string {
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func getViperBool(key string, defaultValue bool) bool {
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	return defaultValue
}

// LoadDotEnv loads environment variables from .env file using Viper
func LoadDotEnv() error {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")

	viper.AutomaticEnv()

	// Missing .env files are fine
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}
	return nil
}

// Load loads configuration from .env file and environment variables
func Load() *Config {
	_ = LoadDotEnv()
	return LoadFromViper()
}

// LoadFromViper loads configuration from Viper (after .env is loaded)
func LoadFromViper() *Config {
	cfg := DefaultConfig()

	cfg.AWS.AccessKeyID = getViperString("AWS_ACCESS_KEY_ID", cfg.AWS.AccessKeyID)
	cfg.AWS.SecretAccessKey = getViperString("AWS_SECRET_ACCESS_KEY", cfg.AWS.SecretAccessKey)
	cfg.AWS.Region = getViperString("AWS_DEFAULT_REGION", cfg.AWS.Region)
	cfg.AWS.AccountID = getViperString("AWS_ACCOUNT_ID", cfg.AWS.AccountID)
	cfg.AWS.Endpoint = getViperString("AWS_ENDPOINT", cfg.AWS.Endpoint)

	cfg.Metrics.Prometheus.Enabled = getViperBool("PROMETHEUS_ENABLED", cfg.Metrics.Prometheus.Enabled)
	if ns := getViperString("PROMETHEUS_NAMESPACE", ""); ns != "" {
		cfg.Metrics.Prometheus.Namespace = ns
	}
	if addr := getViperString("PROMETHEUS_LISTEN_ADDR", ""); addr != "" {
		cfg.Metrics.Prometheus.ListenAddr = addr
	}

	cfg.Metrics.CloudWatch.Enabled = getViperBool("CLOUDWATCH_ENABLED", cfg.Metrics.CloudWatch.Enabled)
	if ns := getViperString("CLOUDWATCH_NAMESPACE", ""); ns != "" {
		cfg.Metrics.CloudWatch.Namespace = ns
	}

	return cfg
}
