package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateUpstream(&cfg.Upstream)...)
	errs = append(errs, validateRateLimit(&cfg.RateLimit)...)
	errs = append(errs, validateRelay(&cfg.Relay)...)
	errs = append(errs, validateUsage(&cfg.Usage)...)
	errs = append(errs, validateTokens(&cfg.Tokens)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: "listen address is required"})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: fmt.Sprintf("invalid address: %v", err)})
	}

	durations := map[string]int64{
		"server.read_timeout":     int64(cfg.ReadTimeout),
		"server.write_timeout":    int64(cfg.WriteTimeout),
		"server.idle_timeout":     int64(cfg.IdleTimeout),
		"server.shutdown_timeout": int64(cfg.ShutdownTimeout),
		"server.request_timeout":  int64(cfg.RequestTimeout),
	}
	for _, field := range sortedKeys(durations) {
		if durations[field] < 0 {
			errs = append(errs, FieldError{Field: field, Message: "must not be negative"})
		}
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{Field: "server.max_header_bytes", Message: "must not be negative"})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{Field: "server.max_body_bytes", Message: "must not be negative"})
	}
	if cfg.CORS.MaxAge < 0 {
		errs = append(errs, FieldError{Field: "server.cors.max_age", Message: "must not be negative"})
	}
	if cfg.CORS.AllowCredentials {
		for _, origin := range cfg.CORS.AllowedOrigins {
			if origin == "*" {
				errs = append(errs, FieldError{
					Field:   "server.cors.allowed_origins",
					Message: "wildcard origin cannot be combined with allow_credentials",
				})
				break
			}
		}
	}

	return errs
}

func validateUpstream(cfg *UpstreamConfig) []FieldError {
	var errs []FieldError

	if cfg.BaseURL == "" {
		errs = append(errs, FieldError{Field: "upstream.base_url", Message: "base URL is required"})
	} else if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, FieldError{Field: "upstream.base_url", Message: "must be an absolute URL"})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, FieldError{Field: "upstream.base_url", Message: "scheme must be http or https"})
	}

	if cfg.APIKey == "" {
		errs = append(errs, FieldError{
			Field:   "upstream.api_key",
			Message: "API key is required (set upstream.api_key, GATEWAY_UPSTREAM_API_KEY or OPENAI_API_KEY)",
		})
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{Field: "upstream.timeout", Message: "must be positive"})
	}
	if cfg.StreamTimeout <= 0 {
		errs = append(errs, FieldError{Field: "upstream.stream_timeout", Message: "must be positive"})
	}
	if cfg.RequestsPerSecond < 0 {
		errs = append(errs, FieldError{Field: "upstream.requests_per_second", Message: "must not be negative"})
	}
	if cfg.Burst < 1 {
		errs = append(errs, FieldError{Field: "upstream.burst", Message: "must be at least 1"})
	}
	if cfg.UnhealthyThreshold < 1 {
		errs = append(errs, FieldError{Field: "upstream.unhealthy_threshold", Message: "must be at least 1"})
	}

	if len(cfg.Models.Chat) == 0 && len(cfg.Models.Text) == 0 {
		errs = append(errs, FieldError{Field: "upstream.models", Message: "at least one model is required"})
	}

	d := cfg.Defaults
	if !contains(cfg.Models.Chat, d.ChatModel) {
		errs = append(errs, FieldError{
			Field:   "upstream.defaults.chat_model",
			Message: fmt.Sprintf("%q is not in upstream.models.chat", d.ChatModel),
		})
	}
	if !contains(cfg.Models.Text, d.TextModel) {
		errs = append(errs, FieldError{
			Field:   "upstream.defaults.text_model",
			Message: fmt.Sprintf("%q is not in upstream.models.text", d.TextModel),
		})
	}
	if d.Temperature != nil && (*d.Temperature < 0 || *d.Temperature > 2) {
		errs = append(errs, FieldError{Field: "upstream.defaults.temperature", Message: "must be between 0 and 2"})
	}
	if d.MaxTokens < 1 || d.MaxTokens > 4000 {
		errs = append(errs, FieldError{Field: "upstream.defaults.max_tokens", Message: "must be between 1 and 4000"})
	}
	if d.StreamMaxTokens < 1 || d.StreamMaxTokens > 4000 {
		errs = append(errs, FieldError{Field: "upstream.defaults.stream_max_tokens", Message: "must be between 1 and 4000"})
	}

	return errs
}

func validateRateLimit(cfg *RateLimitConfig) []FieldError {
	var errs []FieldError

	if cfg.Requests < 1 {
		errs = append(errs, FieldError{Field: "rate_limit.requests", Message: "must be at least 1"})
	}
	if cfg.Window <= 0 {
		errs = append(errs, FieldError{Field: "rate_limit.window", Message: "must be positive"})
	}
	if cfg.IdleTTL < 0 {
		errs = append(errs, FieldError{Field: "rate_limit.idle_ttl", Message: "must not be negative"})
	}
	if cfg.Shards < 1 || cfg.Shards&(cfg.Shards-1) != 0 {
		errs = append(errs, FieldError{Field: "rate_limit.shards", Message: "must be a power of two"})
	}
	if err := validateSchedule(cfg.SweepSchedule); err != nil {
		errs = append(errs, FieldError{Field: "rate_limit.sweep_schedule", Message: err.Error()})
	}

	switch cfg.Backend {
	case "memory":
	case "redis":
		if cfg.Redis.Address == "" {
			errs = append(errs, FieldError{Field: "rate_limit.redis.address", Message: "address is required for the redis backend"})
		}
		if cfg.Redis.DB < 0 {
			errs = append(errs, FieldError{Field: "rate_limit.redis.db", Message: "must not be negative"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "rate_limit.backend",
			Message: fmt.Sprintf("unknown backend %q (valid: memory, redis)", cfg.Backend),
		})
	}

	return errs
}

func validateRelay(cfg *RelayConfig) []FieldError {
	if cfg.BufferSize < 1 {
		return []FieldError{{Field: "relay.buffer_size", Message: "must be at least 1"}}
	}
	return nil
}

func validateUsage(cfg *UsageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{Field: "usage.sqlite.path", Message: "path is required for the sqlite backend"})
		}
		if cfg.SQLite.MaxOpenConns < 1 {
			errs = append(errs, FieldError{Field: "usage.sqlite.max_open_conns", Message: "must be at least 1"})
		}
		if cfg.SQLite.MaxIdleConns < 0 {
			errs = append(errs, FieldError{Field: "usage.sqlite.max_idle_conns", Message: "must not be negative"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "usage.backend",
			Message: fmt.Sprintf("unknown backend %q (valid: memory, sqlite)", cfg.Backend),
		})
	}

	if cfg.AsyncBuffer < 1 {
		errs = append(errs, FieldError{Field: "usage.async_buffer", Message: "must be at least 1"})
	}
	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{Field: "usage.retention_days", Message: "must not be negative"})
	}
	if err := validateSchedule(cfg.PruneSchedule); err != nil {
		errs = append(errs, FieldError{Field: "usage.prune_schedule", Message: err.Error()})
	}

	return errs
}

func validateTokens(cfg *TokensConfig) []FieldError {
	var errs []FieldError

	switch cfg.Estimator {
	case "simple", "tiktoken":
	default:
		errs = append(errs, FieldError{
			Field:   "tokens.estimator",
			Message: fmt.Sprintf("unknown estimator %q (valid: simple, tiktoken)", cfg.Estimator),
		})
	}
	for _, model := range sortedKeys(cfg.Models) {
		if cfg.Models[model] <= 0 {
			errs = append(errs, FieldError{
				Field:   "tokens.models." + model,
				Message: "characters per token must be positive",
			})
		}
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown level %q (valid: debug, info, warn, error)", cfg.Logging.Level),
		})
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown format %q (valid: json, text)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "must start with /"})
	}
	for i, b := range cfg.Metrics.RequestDurationBuckets {
		if b <= 0 || (i > 0 && b <= cfg.Metrics.RequestDurationBuckets[i-1]) {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.request_duration_buckets",
				Message: "buckets must be positive and increasing",
			})
			break
		}
	}

	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "must be between 0 and 1"})
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "endpoint is required when tracing is enabled"})
	}
	if cfg.Health.CheckTimeout <= 0 {
		errs = append(errs, FieldError{Field: "telemetry.health.check_timeout", Message: "must be positive"})
	}

	return errs
}

// validateSchedule accepts an empty spec (disabled) or a standard cron spec,
// including descriptors such as "@every 1m".
func validateSchedule(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %v", spec, err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
