// Package config defines the run configuration for the pipeline: input and
// output roots, optional AWS credentials for syncing the output tree to S3,
// an optional warehouse DSN, metrics, and runtime knobs.
//
// Configuration is loaded from a TOML file (conventionally dl.cfg) with
// environment-variable overrides. Priority: environment > file > defaults.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config is the complete run configuration.
type Config struct {
	// InputRoot is the path tree holding song_data/ and log_data/.
	InputRoot string `toml:"input_root"`
	// OutputRoot receives the five table datasets.
	OutputRoot string `toml:"output_root"`

	AWS       AWSConfig       `toml:"aws"`
	Warehouse WarehouseConfig `toml:"warehouse"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Runtime   RuntimeConfig   `toml:"runtime"`
}

// AWSConfig holds the credentials and target bucket for the optional S3
// sync of the output tree. An empty Bucket disables the sync entirely.
type AWSConfig struct {
	Region          string `toml:"region"`
	Bucket          string `toml:"bucket"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	// EndpointURL overrides the S3 endpoint (MinIO and friends).
	EndpointURL string `toml:"endpoint_url"`
	// KeyPrefix is prepended to every uploaded object key.
	KeyPrefix string `toml:"key_prefix"`
}

// WarehouseConfig holds the optional Postgres target for loading the star
// schema after the columnar write. An empty DSN disables the load.
type WarehouseConfig struct {
	DSN string `toml:"dsn"`
}

// MetricsConfig selects the metrics backend.
type MetricsConfig struct {
	// Backend is "none" (default) or "pushgateway".
	Backend        string `toml:"backend"`
	PushgatewayURL string `toml:"pushgateway_url"`
	Job            string `toml:"job"`
}

// RuntimeConfig holds tuning knobs.
type RuntimeConfig struct {
	// ParquetParallel is the per-file marshal worker count.
	ParquetParallel int64 `toml:"parquet_parallel"`
}

// Default returns a Config with default values applied.
func Default() *Config {
	return &Config{
		Metrics: MetricsConfig{Backend: "none", Job: "songlake"},
		Runtime: RuntimeConfig{ParquetParallel: 4},
	}
}

// Load reads configuration from a TOML file (if path is non-empty) and
// then applies environment-variable overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse TOML config: %w", err)
		}
	}

	setenv := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setenv(&cfg.InputRoot, "SONGLAKE_INPUT_ROOT")
	setenv(&cfg.OutputRoot, "SONGLAKE_OUTPUT_ROOT")
	setenv(&cfg.AWS.Region, "SONGLAKE_AWS_REGION")
	setenv(&cfg.AWS.Bucket, "SONGLAKE_AWS_BUCKET")
	setenv(&cfg.AWS.AccessKeyID, "AWS_ACCESS_KEY_ID")
	setenv(&cfg.AWS.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	setenv(&cfg.AWS.EndpointURL, "SONGLAKE_AWS_ENDPOINT_URL")
	setenv(&cfg.AWS.KeyPrefix, "SONGLAKE_AWS_KEY_PREFIX")
	setenv(&cfg.Warehouse.DSN, "SONGLAKE_WAREHOUSE_DSN")
	setenv(&cfg.Metrics.Backend, "SONGLAKE_METRICS_BACKEND")
	setenv(&cfg.Metrics.PushgatewayURL, "SONGLAKE_PUSHGATEWAY_URL")
	if v := os.Getenv("SONGLAKE_PARQUET_PARALLEL"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.Runtime.ParquetParallel = n
		}
	}

	return cfg, nil
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if c.InputRoot == "" {
		return fmt.Errorf("input_root cannot be empty")
	}
	if c.OutputRoot == "" {
		return fmt.Errorf("output_root cannot be empty")
	}
	if c.AWS.Bucket != "" {
		if c.AWS.Region == "" {
			return fmt.Errorf("aws.region required when aws.bucket is set")
		}
		if c.AWS.AccessKeyID == "" || c.AWS.SecretAccessKey == "" {
			return fmt.Errorf("aws credentials required when aws.bucket is set")
		}
	}
	switch c.Metrics.Backend {
	case "", "none", "pushgateway":
	default:
		return fmt.Errorf("unknown metrics backend %q", c.Metrics.Backend)
	}
	if c.Metrics.Backend == "pushgateway" && c.Metrics.PushgatewayURL == "" {
		return fmt.Errorf("metrics.pushgateway_url required for the pushgateway backend")
	}
	if c.Runtime.ParquetParallel <= 0 {
		return fmt.Errorf("runtime.parquet_parallel must be positive")
	}
	return nil
}
