package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:9000"
  read_timeout: "60s"
  trust_forwarded_for: true

upstream:
  api_key: "sk-test-123"
  timeout: "10s"
  models:
    chat: ["gpt-4", "gpt-3.5-turbo"]
  defaults:
    temperature: 0

rate_limit:
  requests: 2
  window: "60s"
  fail_open: true

telemetry:
  logging:
    level: "debug"
    format: "text"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:9000" {
		t.Errorf("expected listen address %q, got %q", "127.0.0.1:9000", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 60*time.Second {
		t.Errorf("expected read timeout 60s, got %v", cfg.Server.ReadTimeout)
	}
	if !cfg.Server.TrustForwardedFor {
		t.Error("expected trust_forwarded_for to be set")
	}
	if cfg.Upstream.Timeout != 10*time.Second {
		t.Errorf("expected upstream timeout 10s, got %v", cfg.Upstream.Timeout)
	}
	if len(cfg.Upstream.Models.Chat) != 2 {
		t.Errorf("expected file models to replace defaults, got %v", cfg.Upstream.Models.Chat)
	}
	if got := *cfg.Upstream.Defaults.Temperature; got != 0 {
		t.Errorf("expected explicit temperature 0 to be kept, got %v", got)
	}
	if cfg.RateLimit.Requests != 2 || cfg.RateLimit.Window != time.Minute || !cfg.RateLimit.FailOpen {
		t.Errorf("unexpected rate limit config %+v", cfg.RateLimit)
	}

	// Defaults still apply to sections the file omits.
	if !cfg.RateLimit.Enabled {
		t.Error("expected rate limiting enabled by default")
	}
	if cfg.RateLimit.SweepSchedule != DefaultSweepSchedule {
		t.Errorf("expected default sweep schedule, got %q", cfg.RateLimit.SweepSchedule)
	}
	if cfg.Relay.BufferSize != DefaultRelayBufferSize {
		t.Errorf("expected default relay buffer, got %d", cfg.Relay.BufferSize)
	}
	if !cfg.Usage.Enabled {
		t.Error("expected usage enabled by default")
	}
}

func TestLoadConfig_ExplicitFalseIsKept(t *testing.T) {
	path := writeConfig(t, `
upstream:
  api_key: "sk-test"
rate_limit:
  enabled: false
  sweep_schedule: ""
usage:
  enabled: false
  retention_days: 0
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.RateLimit.Enabled {
		t.Error("expected rate limiting disabled")
	}
	if cfg.RateLimit.SweepSchedule != "" {
		t.Errorf("expected sweep disabled, got %q", cfg.RateLimit.SweepSchedule)
	}
	if cfg.Usage.Enabled {
		t.Error("expected usage disabled")
	}
	if cfg.Usage.RetentionDays != 0 {
		t.Errorf("expected retention 0, got %d", cfg.Usage.RetentionDays)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		if err == nil || !strings.Contains(err.Error(), "failed to read") {
			t.Errorf("expected read error, got %v", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "server: [unclosed"))
		if err == nil || !strings.Contains(err.Error(), "failed to parse") {
			t.Errorf("expected parse error, got %v", err)
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, `
upstream:
  api_key: "sk-test"
rate_limit:
  requests: -1
  backend: "memcached"
`))
		var verr ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if len(verr.Errors) != 2 {
			t.Errorf("expected 2 field errors, got %d: %v", len(verr.Errors), verr.Errors)
		}
	})
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
upstream:
  api_key: "sk-file"
rate_limit:
  requests: 10
`)

	t.Setenv("GATEWAY_RATE_LIMIT_REQUESTS", "5")
	t.Setenv("GATEWAY_RATE_LIMIT_WINDOW", "30s")
	t.Setenv("GATEWAY_RATE_LIMIT_FAIL_OPEN", "true")
	t.Setenv("GATEWAY_UPSTREAM_MODELS_CHAT", "gpt-4, gpt-3.5-turbo")
	t.Setenv("GATEWAY_TELEMETRY_LOGGING_LEVEL", "warn")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.RateLimit.Requests != 5 {
		t.Errorf("expected env to override requests, got %d", cfg.RateLimit.Requests)
	}
	if cfg.RateLimit.Window != 30*time.Second {
		t.Errorf("expected window 30s, got %v", cfg.RateLimit.Window)
	}
	if !cfg.RateLimit.FailOpen {
		t.Error("expected fail_open from env")
	}
	if got := cfg.Upstream.Models.Chat; len(got) != 2 || got[0] != "gpt-4" || got[1] != "gpt-3.5-turbo" {
		t.Errorf("expected trimmed model list, got %v", got)
	}
	if cfg.Upstream.APIKey != "sk-file" {
		t.Errorf("expected file api key, got %q", cfg.Upstream.APIKey)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("expected level warn, got %q", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfigWithEnvOverrides_APIKeyFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-openai-env")

	cfg, err := LoadConfigWithEnvOverrides(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected defaults plus env to load, got %v", err)
	}
	if cfg.Upstream.APIKey != "sk-from-openai-env" {
		t.Errorf("expected OPENAI_API_KEY fallback, got %q", cfg.Upstream.APIKey)
	}

	t.Setenv("GATEWAY_UPSTREAM_API_KEY", "sk-gateway")
	cfg, err = LoadConfigWithEnvOverrides(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Upstream.APIKey != "sk-gateway" {
		t.Errorf("expected GATEWAY_UPSTREAM_API_KEY to win, got %q", cfg.Upstream.APIKey)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidValue(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GATEWAY_RATE_LIMIT_WINDOW", "soon")

	_, err := LoadConfigWithEnvOverrides(filepath.Join(t.TempDir(), "absent.yaml"))
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Errors[0].Field != "GATEWAY_RATE_LIMIT_WINDOW" {
		t.Errorf("expected error on the env var, got %q", verr.Errors[0].Field)
	}
}

func TestLoadConfigWithEnvOverrides_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := LoadConfigWithEnvOverrides(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || !strings.Contains(err.Error(), "upstream.api_key") {
		t.Errorf("expected missing api key error, got %v", err)
	}
}

func TestLoadUnvalidated_SkipsValidation(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GATEWAY_USAGE_BACKEND", "sqlite")

	cfg, err := LoadUnvalidated(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadUnvalidated() failed: %v", err)
	}
	if cfg.Upstream.APIKey != "" {
		t.Errorf("APIKey = %q, want empty", cfg.Upstream.APIKey)
	}
	if cfg.Usage.Backend != "sqlite" {
		t.Errorf("env override not applied: backend = %q", cfg.Usage.Backend)
	}
}
