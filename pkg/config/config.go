package config

import "time"

// Config is the root configuration for the gateway.
type Config struct {
	// Server configures the inbound HTTP listener.
	Server ServerConfig `yaml:"server"`

	// Upstream configures the OpenAI-compatible provider.
	Upstream UpstreamConfig `yaml:"upstream"`

	// RateLimit configures per-client admission.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Relay configures stream relaying.
	Relay RelayConfig `yaml:"relay"`

	// Usage configures the request usage ledger.
	Usage UsageConfig `yaml:"usage"`

	// Tokens configures token estimation for streams without upstream usage.
	Tokens TokensConfig `yaml:"tokens"`

	// Telemetry configures logging, metrics, tracing and health.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// ListenAddress is the host:port to listen on.
	// Default: "0.0.0.0:8000"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response writes.
	// Default: 0 (disabled, streamed responses are bounded by the upstream
	// stream timeout instead)
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// RequestTimeout bounds non-streaming requests.
	// Default: 60s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1MB
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes limits request body size.
	// Default: 1MB
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// TrustForwardedFor identifies clients by the first X-Forwarded-For hop.
	// Enable only behind a trusted proxy.
	TrustForwardedFor bool `yaml:"trust_forwarded_for"`

	// CORS configures cross-origin requests.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS settings.
type CORSConfig struct {
	// Enabled turns on CORS handling.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins lists allowed origins. "*" allows any.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is the preflight cache duration in seconds.
	// Default: 3600
	MaxAge int `yaml:"max_age"`

	AllowCredentials bool `yaml:"allow_credentials"`
}

// UpstreamConfig configures the upstream provider.
type UpstreamConfig struct {
	// Name identifies the upstream in logs and metrics.
	// Default: "openai"
	Name string `yaml:"name"`

	// BaseURL is the API base.
	// Default: "https://api.openai.com/v1"
	BaseURL string `yaml:"base_url"`

	// APIKey is the bearer credential. Falls back to OPENAI_API_KEY.
	APIKey string `yaml:"api_key"`

	// Timeout bounds a non-streaming call.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// StreamTimeout bounds an entire streaming call.
	// Default: 5m
	StreamTimeout time.Duration `yaml:"stream_timeout"`

	// RequestsPerSecond paces upstream calls. 0 disables pacing.
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst is the pacing bucket size.
	// Default: 1
	Burst int `yaml:"burst"`

	// UnhealthyThreshold is the consecutive failures before the upstream
	// reports not ready.
	// Default: 3
	UnhealthyThreshold int `yaml:"unhealthy_threshold"`

	MaxIdleConns        int           `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout"`

	// Models lists the supported models per completion kind.
	Models ModelsConfig `yaml:"models"`

	// Defaults are applied to requests that omit a field.
	Defaults RequestDefaults `yaml:"defaults"`
}

// ModelsConfig lists supported models.
type ModelsConfig struct {
	Chat []string `yaml:"chat"`
	Text []string `yaml:"text"`
}

// RequestDefaults are per-route request defaults.
type RequestDefaults struct {
	// ChatModel is used by chat, conversation and stream routes.
	// Default: "gpt-3.5-turbo"
	ChatModel string `yaml:"chat_model"`

	// TextModel is used by the text route.
	// Default: "gpt-3.5-turbo-instruct"
	TextModel string `yaml:"text_model"`

	// Temperature is a pointer so an explicit 0 is kept.
	// Default: 0.7
	Temperature *float64 `yaml:"temperature"`

	// MaxTokens for non-streaming routes.
	// Default: 150
	MaxTokens int `yaml:"max_tokens"`

	// StreamMaxTokens for the stream route.
	// Default: 200
	StreamMaxTokens int `yaml:"stream_max_tokens"`
}

// RateLimitConfig configures per-client fixed-window admission.
type RateLimitConfig struct {
	// Enabled turns rate limiting on.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Requests is the number of requests admitted per window.
	// Default: 60
	Requests int `yaml:"requests"`

	// Window is the fixed window length.
	// Default: 1m
	Window time.Duration `yaml:"window"`

	// Backend is "memory" or "redis".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// Shards is the memory store lock shard count, a power of two.
	// Default: 32
	Shards int `yaml:"shards"`

	// IdleTTL is how long an expired window may sit before the sweep evicts it.
	// Default: 10m
	IdleTTL time.Duration `yaml:"idle_ttl"`

	// SweepSchedule is a cron spec for the idle sweep. Empty disables it.
	// Default: "@every 1m"
	SweepSchedule string `yaml:"sweep_schedule"`

	// FailOpen admits requests when the store fails.
	// Default: false
	FailOpen bool `yaml:"fail_open"`

	// Redis configures the redis backend.
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig configures a Redis connection.
type RedisConfig struct {
	// Address is host:port.
	// Default: "localhost:6379"
	Address string `yaml:"address"`

	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	// KeyPrefix namespaces rate limit keys.
	// Default: "gateway:ratelimit"
	KeyPrefix string `yaml:"key_prefix"`

	// DialTimeout bounds connection setup.
	// Default: 5s
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// RelayConfig configures stream relaying.
type RelayConfig struct {
	// BufferSize bounds chunks read ahead of a slow client.
	// Default: 8
	BufferSize int `yaml:"buffer_size"`
}

// UsageConfig configures the usage ledger.
type UsageConfig struct {
	// Enabled turns on usage recording.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend is "memory" or "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLite configures the sqlite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// AsyncBuffer is the recorder queue size. Records are dropped when full.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout bounds one store write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// RetentionDays deletes older records. 0 keeps everything.
	// Default: 30
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron spec for retention.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// SQLiteConfig configures a SQLite database.
type SQLiteConfig struct {
	// Path is the database file.
	// Default: "data/usage.db"
	Path string `yaml:"path"`

	// MaxOpenConns limits open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns limits idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// TokensConfig configures token estimation.
type TokensConfig struct {
	// Estimator is "simple" or "tiktoken".
	// Default: "simple"
	Estimator string `yaml:"estimator"`

	// Models maps model names or prefixes to characters per token for the
	// simple estimator. "default" is the fallback.
	Models map[string]float64 `yaml:"models"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
	Health  HealthConfig  `yaml:"health"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	// Default: "info"
	Level string `yaml:"level"`

	// Format is json or text.
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file:line in records.
	AddSource bool `yaml:"add_source"`

	// Redact masks credential-shaped attributes.
	// Default: true
	Redact bool `yaml:"redact"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes metrics.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the exposition path.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric.
	// Default: "gateway"
	Namespace string `yaml:"namespace"`

	// RequestDurationBuckets are histogram buckets in seconds.
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Enabled turns on tracing.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	Insecure bool `yaml:"insecure"`

	// SampleRatio is the fraction of traces sampled.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is the resource service name.
	// Default: "llm-gateway"
	ServiceName string `yaml:"service_name"`

	// Timeout bounds exporter calls.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health check settings.
type HealthConfig struct {
	// CheckTimeout bounds one readiness check.
	// Default: 2s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}
