package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GATEWAY_"

// LoadConfig loads configuration from a YAML file at the specified path.
// The file is decoded on top of Default, then defaults are re-applied and
// the result validated. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML on top of the defaults without validating.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention GATEWAY_SECTION_FIELD (e.g., GATEWAY_RATE_LIMIT_REQUESTS) and
// always take precedence over the file. A missing file is not an error: the
// gateway then runs on defaults plus environment.
//
// The loading sequence is:
// 1. Apply default values
// 2. Decode YAML from file, if present
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadUnvalidated(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadUnvalidated runs steps 1 to 3 of LoadConfigWithEnvOverrides. Offline
// commands that never reach the upstream use it so a missing API key does
// not stop them.
func LoadUnvalidated(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if cfg, err = Parse(data); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envOverride binds one environment variable to a config field.
type envOverride struct {
	name  string
	apply func(cfg *Config, val string) error
}

func stringVar(set func(*Config, string)) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		set(cfg, val)
		return nil
	}
}

func durationVar(set func(*Config, time.Duration)) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		d, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		set(cfg, d)
		return nil
	}
}

func intVar(set func(*Config, int)) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		i, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		set(cfg, i)
		return nil
	}
}

func floatVar(set func(*Config, float64)) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return err
		}
		set(cfg, f)
		return nil
	}
}

func boolVar(set func(*Config, bool)) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		set(cfg, b)
		return nil
	}
}

func listVar(set func(*Config, []string)) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		var out []string
		for _, item := range strings.Split(val, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		set(cfg, out)
		return nil
	}
}

var envOverrides = []envOverride{
	// Server
	{"SERVER_LISTEN_ADDRESS", stringVar(func(c *Config, v string) { c.Server.ListenAddress = v })},
	{"SERVER_READ_TIMEOUT", durationVar(func(c *Config, v time.Duration) { c.Server.ReadTimeout = v })},
	{"SERVER_WRITE_TIMEOUT", durationVar(func(c *Config, v time.Duration) { c.Server.WriteTimeout = v })},
	{"SERVER_REQUEST_TIMEOUT", durationVar(func(c *Config, v time.Duration) { c.Server.RequestTimeout = v })},
	{"SERVER_SHUTDOWN_TIMEOUT", durationVar(func(c *Config, v time.Duration) { c.Server.ShutdownTimeout = v })},
	{"SERVER_TRUST_FORWARDED_FOR", boolVar(func(c *Config, v bool) { c.Server.TrustForwardedFor = v })},
	{"SERVER_CORS_ENABLED", boolVar(func(c *Config, v bool) { c.Server.CORS.Enabled = v })},
	{"SERVER_CORS_ALLOWED_ORIGINS", listVar(func(c *Config, v []string) { c.Server.CORS.AllowedOrigins = v })},

	// Upstream
	{"UPSTREAM_BASE_URL", stringVar(func(c *Config, v string) { c.Upstream.BaseURL = v })},
	{"UPSTREAM_API_KEY", stringVar(func(c *Config, v string) { c.Upstream.APIKey = v })},
	{"UPSTREAM_TIMEOUT", durationVar(func(c *Config, v time.Duration) { c.Upstream.Timeout = v })},
	{"UPSTREAM_STREAM_TIMEOUT", durationVar(func(c *Config, v time.Duration) { c.Upstream.StreamTimeout = v })},
	{"UPSTREAM_REQUESTS_PER_SECOND", floatVar(func(c *Config, v float64) { c.Upstream.RequestsPerSecond = v })},
	{"UPSTREAM_BURST", intVar(func(c *Config, v int) { c.Upstream.Burst = v })},
	{"UPSTREAM_MODELS_CHAT", listVar(func(c *Config, v []string) { c.Upstream.Models.Chat = v })},
	{"UPSTREAM_MODELS_TEXT", listVar(func(c *Config, v []string) { c.Upstream.Models.Text = v })},

	// Rate limit
	{"RATE_LIMIT_ENABLED", boolVar(func(c *Config, v bool) { c.RateLimit.Enabled = v })},
	{"RATE_LIMIT_REQUESTS", intVar(func(c *Config, v int) { c.RateLimit.Requests = v })},
	{"RATE_LIMIT_WINDOW", durationVar(func(c *Config, v time.Duration) { c.RateLimit.Window = v })},
	{"RATE_LIMIT_BACKEND", stringVar(func(c *Config, v string) { c.RateLimit.Backend = v })},
	{"RATE_LIMIT_IDLE_TTL", durationVar(func(c *Config, v time.Duration) { c.RateLimit.IdleTTL = v })},
	{"RATE_LIMIT_SWEEP_SCHEDULE", stringVar(func(c *Config, v string) { c.RateLimit.SweepSchedule = v })},
	{"RATE_LIMIT_FAIL_OPEN", boolVar(func(c *Config, v bool) { c.RateLimit.FailOpen = v })},
	{"RATE_LIMIT_REDIS_ADDRESS", stringVar(func(c *Config, v string) { c.RateLimit.Redis.Address = v })},
	{"RATE_LIMIT_REDIS_PASSWORD", stringVar(func(c *Config, v string) { c.RateLimit.Redis.Password = v })},
	{"RATE_LIMIT_REDIS_DB", intVar(func(c *Config, v int) { c.RateLimit.Redis.DB = v })},

	// Relay
	{"RELAY_BUFFER_SIZE", intVar(func(c *Config, v int) { c.Relay.BufferSize = v })},

	// Usage
	{"USAGE_ENABLED", boolVar(func(c *Config, v bool) { c.Usage.Enabled = v })},
	{"USAGE_BACKEND", stringVar(func(c *Config, v string) { c.Usage.Backend = v })},
	{"USAGE_SQLITE_PATH", stringVar(func(c *Config, v string) { c.Usage.SQLite.Path = v })},
	{"USAGE_RETENTION_DAYS", intVar(func(c *Config, v int) { c.Usage.RetentionDays = v })},

	// Tokens
	{"TOKENS_ESTIMATOR", stringVar(func(c *Config, v string) { c.Tokens.Estimator = v })},

	// Telemetry
	{"TELEMETRY_LOGGING_LEVEL", stringVar(func(c *Config, v string) { c.Telemetry.Logging.Level = v })},
	{"TELEMETRY_LOGGING_FORMAT", stringVar(func(c *Config, v string) { c.Telemetry.Logging.Format = v })},
	{"TELEMETRY_METRICS_ENABLED", boolVar(func(c *Config, v bool) { c.Telemetry.Metrics.Enabled = v })},
	{"TELEMETRY_TRACING_ENABLED", boolVar(func(c *Config, v bool) { c.Telemetry.Tracing.Enabled = v })},
	{"TELEMETRY_TRACING_ENDPOINT", stringVar(func(c *Config, v string) { c.Telemetry.Tracing.Endpoint = v })},
	{"TELEMETRY_TRACING_SAMPLE_RATIO", floatVar(func(c *Config, v float64) { c.Telemetry.Tracing.SampleRatio = v })},
}

// applyEnvOverrides applies GATEWAY_* variables. A variable that is set but
// cannot be parsed is an error rather than silently ignored.
func applyEnvOverrides(cfg *Config) error {
	var errs []FieldError
	for _, o := range envOverrides {
		val, ok := os.LookupEnv(EnvPrefix + o.name)
		if !ok || val == "" {
			continue
		}
		if err := o.apply(cfg, val); err != nil {
			errs = append(errs, FieldError{
				Field:   EnvPrefix + o.name,
				Message: fmt.Sprintf("invalid value %q: %v", val, err),
			})
		}
	}

	// The conventional OpenAI variable is honored when nothing else set a key.
	if cfg.Upstream.APIKey == "" {
		cfg.Upstream.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
