package config

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"listen address", cfg.Server.ListenAddress, DefaultListenAddress},
		{"write timeout disabled", cfg.Server.WriteTimeout, time.Duration(0)},
		{"upstream base url", cfg.Upstream.BaseURL, DefaultUpstreamBaseURL},
		{"upstream timeout", cfg.Upstream.Timeout, DefaultUpstreamTimeout},
		{"chat model", cfg.Upstream.Defaults.ChatModel, "gpt-3.5-turbo"},
		{"text model", cfg.Upstream.Defaults.TextModel, "gpt-3.5-turbo-instruct"},
		{"temperature", *cfg.Upstream.Defaults.Temperature, 0.7},
		{"max tokens", cfg.Upstream.Defaults.MaxTokens, 150},
		{"stream max tokens", cfg.Upstream.Defaults.StreamMaxTokens, 200},
		{"requests", cfg.RateLimit.Requests, 60},
		{"window", cfg.RateLimit.Window, time.Minute},
		{"backend", cfg.RateLimit.Backend, "memory"},
		{"shards", cfg.RateLimit.Shards, 32},
		{"rate limit enabled", cfg.RateLimit.Enabled, true},
		{"fail open", cfg.RateLimit.FailOpen, false},
		{"relay buffer", cfg.Relay.BufferSize, 8},
		{"usage backend", cfg.Usage.Backend, "memory"},
		{"estimator", cfg.Tokens.Estimator, "simple"},
		{"metrics namespace", cfg.Telemetry.Metrics.Namespace, "gateway"},
		{"tracing disabled", cfg.Telemetry.Tracing.Enabled, false},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, tt.got)
		}
	}

	if len(cfg.Upstream.Models.Chat) != 4 || len(cfg.Upstream.Models.Text) != 1 {
		t.Errorf("unexpected default models %+v", cfg.Upstream.Models)
	}
}

func TestDefault_ReturnsIndependentCopies(t *testing.T) {
	a := Default()
	b := Default()

	a.Upstream.Models.Chat[0] = "mutated"
	*a.Upstream.Defaults.Temperature = 1.5
	a.Tokens.Models["default"] = 1

	if b.Upstream.Models.Chat[0] == "mutated" {
		t.Error("default model lists must not be shared")
	}
	if *b.Upstream.Defaults.Temperature != DefaultTemperature {
		t.Error("default temperature must not be shared")
	}
	if DefaultTokenRatios["default"] != 4.0 {
		t.Error("default token ratios must not be shared")
	}
}

func TestApplyDefaults_KeepsSetValues(t *testing.T) {
	cfg := &Config{}
	cfg.RateLimit.Requests = 7
	cfg.Server.ListenAddress = ":9999"

	ApplyDefaults(cfg)

	if cfg.RateLimit.Requests != 7 {
		t.Errorf("expected requests 7, got %d", cfg.RateLimit.Requests)
	}
	if cfg.Server.ListenAddress != ":9999" {
		t.Errorf("expected listen address kept, got %q", cfg.Server.ListenAddress)
	}
	if cfg.RateLimit.Window != DefaultRateLimitWindow {
		t.Errorf("expected default window, got %v", cfg.RateLimit.Window)
	}
}
