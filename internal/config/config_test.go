package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCfg(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dl.cfg")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Metrics.Backend != "none" || cfg.Metrics.Job != "songlake" {
		t.Fatalf("metrics defaults: %+v", cfg.Metrics)
	}
	if cfg.Runtime.ParquetParallel != 4 {
		t.Fatalf("parquet_parallel default: %d", cfg.Runtime.ParquetParallel)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeCfg(t, `
input_root = "/data/in"
output_root = "/data/out"

[aws]
region = "us-west-2"
bucket = "lake"
access_key_id = "AK"
secret_access_key = "SK"

[warehouse]
dsn = "postgres://localhost/songlake"

[runtime]
parquet_parallel = 2
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.InputRoot != "/data/in" || cfg.OutputRoot != "/data/out" {
		t.Fatalf("roots: %+v", cfg)
	}
	if cfg.AWS.Bucket != "lake" || cfg.AWS.Region != "us-west-2" {
		t.Fatalf("aws: %+v", cfg.AWS)
	}
	if cfg.Warehouse.DSN != "postgres://localhost/songlake" {
		t.Fatalf("warehouse: %+v", cfg.Warehouse)
	}
	if cfg.Runtime.ParquetParallel != 2 {
		t.Fatalf("runtime: %+v", cfg.Runtime)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeCfg(t, `input_root = "/from/file"`)
	t.Setenv("SONGLAKE_INPUT_ROOT", "/from/env")
	t.Setenv("SONGLAKE_OUTPUT_ROOT", "/out/env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.InputRoot != "/from/env" {
		t.Fatalf("env must win over file, got %q", cfg.InputRoot)
	}
	if cfg.OutputRoot != "/out/env" {
		t.Fatalf("got %q", cfg.OutputRoot)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.cfg")); err == nil {
		t.Fatal("expected error for a missing config file")
	}
}

func TestLoadBadTOML(t *testing.T) {
	path := writeCfg(t, `input_root = [broken`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := Default()
		cfg.InputRoot = "/in"
		cfg.OutputRoot = "/out"
		return cfg
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty input", func(c *Config) { c.InputRoot = "" }, "input_root"},
		{"empty output", func(c *Config) { c.OutputRoot = "" }, "output_root"},
		{"bucket without region", func(c *Config) {
			c.AWS.Bucket = "b"
			c.AWS.AccessKeyID, c.AWS.SecretAccessKey = "AK", "SK"
		}, "aws.region"},
		{"bucket without credentials", func(c *Config) {
			c.AWS.Bucket = "b"
			c.AWS.Region = "us-west-2"
		}, "credentials"},
		{"unknown metrics backend", func(c *Config) { c.Metrics.Backend = "statsd" }, "metrics backend"},
		{"pushgateway without url", func(c *Config) { c.Metrics.Backend = "pushgateway" }, "pushgateway_url"},
		{"bad parallelism", func(c *Config) { c.Runtime.ParquetParallel = 0 }, "parquet_parallel"},
	}
	for _, tc := range cases {
		cfg := base()
		tc.mutate(cfg)
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: got %v, want error mentioning %q", tc.name, err, tc.want)
		}
	}
}
