package config

import (
	"errors"
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Upstream.APIKey = "sk-test"
	return cfg
}

func TestValidate_Default(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("expected defaults with api key to be valid, got %v", err)
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad listen address", func(c *Config) { c.Server.ListenAddress = "nope" }, "server.listen_address"},
		{"negative read timeout", func(c *Config) { c.Server.ReadTimeout = -1 }, "server.read_timeout"},
		{"credentials with wildcard", func(c *Config) { c.Server.CORS.AllowCredentials = true }, "server.cors.allowed_origins"},
		{"relative base url", func(c *Config) { c.Upstream.BaseURL = "api.openai.com" }, "upstream.base_url"},
		{"ftp base url", func(c *Config) { c.Upstream.BaseURL = "ftp://example.com" }, "upstream.base_url"},
		{"missing api key", func(c *Config) { c.Upstream.APIKey = "" }, "upstream.api_key"},
		{"zero burst", func(c *Config) { c.Upstream.Burst = 0 }, "upstream.burst"},
		{"default chat model unsupported", func(c *Config) { c.Upstream.Defaults.ChatModel = "gpt-99" }, "upstream.defaults.chat_model"},
		{"default temperature out of range", func(c *Config) {
			v := 2.5
			c.Upstream.Defaults.Temperature = &v
		}, "upstream.defaults.temperature"},
		{"default max tokens too large", func(c *Config) { c.Upstream.Defaults.MaxTokens = 5000 }, "upstream.defaults.max_tokens"},
		{"zero requests", func(c *Config) { c.RateLimit.Requests = 0 }, "rate_limit.requests"},
		{"zero window", func(c *Config) { c.RateLimit.Window = 0 }, "rate_limit.window"},
		{"shards not power of two", func(c *Config) { c.RateLimit.Shards = 12 }, "rate_limit.shards"},
		{"bad sweep schedule", func(c *Config) { c.RateLimit.SweepSchedule = "every minute" }, "rate_limit.sweep_schedule"},
		{"unknown rate backend", func(c *Config) { c.RateLimit.Backend = "etcd" }, "rate_limit.backend"},
		{"redis without address", func(c *Config) {
			c.RateLimit.Backend = "redis"
			c.RateLimit.Redis.Address = ""
		}, "rate_limit.redis.address"},
		{"zero relay buffer", func(c *Config) { c.Relay.BufferSize = 0 }, "relay.buffer_size"},
		{"unknown usage backend", func(c *Config) { c.Usage.Backend = "postgres" }, "usage.backend"},
		{"negative retention", func(c *Config) { c.Usage.RetentionDays = -1 }, "usage.retention_days"},
		{"unknown estimator", func(c *Config) { c.Tokens.Estimator = "bpe" }, "tokens.estimator"},
		{"zero token ratio", func(c *Config) { c.Tokens.Models["gpt-4"] = 0 }, "tokens.models.gpt-4"},
		{"unknown log level", func(c *Config) { c.Telemetry.Logging.Level = "trace" }, "telemetry.logging.level"},
		{"metrics path", func(c *Config) { c.Telemetry.Metrics.Path = "metrics" }, "telemetry.metrics.path"},
		{"unsorted buckets", func(c *Config) { c.Telemetry.Metrics.RequestDurationBuckets = []float64{1, 0.5} }, "telemetry.metrics.request_duration_buckets"},
		{"sample ratio", func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 }, "telemetry.tracing.sample_ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}

			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %q, got %v", tt.field, verr.Errors)
			}
		})
	}
}

func TestValidationError_Format(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if single.Error() != "configuration validation failed: a: bad" {
		t.Errorf("unexpected single error format %q", single.Error())
	}

	multi := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	if !strings.Contains(multi.Error(), "2 errors") || !strings.Contains(multi.Error(), "  - b: worse") {
		t.Errorf("unexpected multi error format %q", multi.Error())
	}
}
