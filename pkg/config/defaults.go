package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "0.0.0.0:8000"
	DefaultReadTimeout     = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultRequestTimeout  = 60 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultMaxBodyBytes    = 1048576 // 1MB
	DefaultCORSMaxAge      = 3600

	// Upstream defaults
	DefaultUpstreamName          = "openai"
	DefaultUpstreamBaseURL       = "https://api.openai.com/v1"
	DefaultUpstreamTimeout       = 30 * time.Second
	DefaultUpstreamStreamTimeout = 5 * time.Minute
	DefaultUpstreamBurst         = 1
	DefaultUnhealthyThreshold    = 3
	DefaultMaxIdleConns          = 100
	DefaultMaxIdleConnsPerHost   = 10
	DefaultIdleConnTimeout       = 90 * time.Second

	// Request defaults
	DefaultChatModel       = "gpt-3.5-turbo"
	DefaultTextModel       = "gpt-3.5-turbo-instruct"
	DefaultTemperature     = 0.7
	DefaultMaxTokens       = 150
	DefaultStreamMaxTokens = 200

	// Rate limit defaults
	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = time.Minute
	DefaultRateLimitBackend  = "memory"
	DefaultRateLimitShards   = 32
	DefaultRateLimitIdleTTL  = 10 * time.Minute
	DefaultSweepSchedule     = "@every 1m"
	DefaultRedisAddress      = "localhost:6379"
	DefaultRedisKeyPrefix    = "gateway:ratelimit"
	DefaultRedisDialTimeout  = 5 * time.Second

	// Relay defaults
	DefaultRelayBufferSize = 8

	// Usage defaults
	DefaultUsageBackend       = "memory"
	DefaultUsageSQLitePath    = "data/usage.db"
	DefaultSQLiteMaxOpenConns = 10
	DefaultSQLiteMaxIdleConns = 5
	DefaultSQLiteBusyTimeout  = 5 * time.Second
	DefaultUsageAsyncBuffer   = 1000
	DefaultUsageWriteTimeout  = 5 * time.Second
	DefaultUsageRetentionDays = 30
	DefaultUsagePruneSchedule = "0 3 * * *"

	// Tokens defaults
	DefaultTokensEstimator = "simple"

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "gateway"
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingServiceName = "llm-gateway"
	DefaultTracingTimeout     = 10 * time.Second
	DefaultHealthCheckTimeout = 2 * time.Second
)

// Supported model defaults.
var (
	DefaultChatModels = []string{"gpt-3.5-turbo", "gpt-3.5-turbo-16k", "gpt-4", "gpt-4-1106-preview"}
	DefaultTextModels = []string{"gpt-3.5-turbo-instruct"}

	DefaultCORSAllowedMethods = []string{"GET", "POST", "OPTIONS"}
	DefaultCORSAllowedHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	DefaultCORSExposedHeaders = []string{
		"X-Request-ID",
		"X-RateLimit-Limit",
		"X-RateLimit-Remaining",
		"X-RateLimit-Reset",
		"Retry-After",
	}

	DefaultTokenRatios = map[string]float64{
		"gpt-4":   4.0,
		"gpt-3.5": 4.0,
		"default": 4.0,
	}
)

// Default returns a configuration with every default applied. Files are
// decoded on top of it, so fields whose zero value is meaningful (booleans
// that default to true, an empty sweep schedule, zero retention) keep their
// default unless the file sets them.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.CORS.Enabled = true
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.SweepSchedule = DefaultSweepSchedule
	cfg.Usage.RetentionDays = DefaultUsageRetentionDays
	cfg.Usage.Enabled = true
	cfg.Usage.SQLite.WALMode = true
	cfg.Telemetry.Logging.Redact = true
	cfg.Telemetry.Metrics.Enabled = true
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyUpstreamDefaults(&cfg.Upstream)
	applyRateLimitDefaults(&cfg.RateLimit)

	if cfg.Relay.BufferSize == 0 {
		cfg.Relay.BufferSize = DefaultRelayBufferSize
	}

	applyUsageDefaults(&cfg.Usage)

	if cfg.Tokens.Estimator == "" {
		cfg.Tokens.Estimator = DefaultTokensEstimator
	}
	if len(cfg.Tokens.Models) == 0 {
		cfg.Tokens.Models = make(map[string]float64, len(DefaultTokenRatios))
		for k, v := range DefaultTokenRatios {
			cfg.Tokens.Models[k] = v
		}
	}

	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyServerDefaults(s *ServerConfig) {
	if s.ListenAddress == "" {
		s.ListenAddress = DefaultListenAddress
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = DefaultShutdownTimeout
	}
	if s.RequestTimeout == 0 {
		s.RequestTimeout = DefaultRequestTimeout
	}
	if s.MaxHeaderBytes == 0 {
		s.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if s.MaxBodyBytes == 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}

	cors := &s.CORS
	if len(cors.AllowedOrigins) == 0 {
		cors.AllowedOrigins = []string{"*"}
	}
	if len(cors.AllowedMethods) == 0 {
		cors.AllowedMethods = append([]string(nil), DefaultCORSAllowedMethods...)
	}
	if len(cors.AllowedHeaders) == 0 {
		cors.AllowedHeaders = append([]string(nil), DefaultCORSAllowedHeaders...)
	}
	if len(cors.ExposedHeaders) == 0 {
		cors.ExposedHeaders = append([]string(nil), DefaultCORSExposedHeaders...)
	}
	if cors.MaxAge == 0 {
		cors.MaxAge = DefaultCORSMaxAge
	}
}

func applyUpstreamDefaults(u *UpstreamConfig) {
	if u.Name == "" {
		u.Name = DefaultUpstreamName
	}
	if u.BaseURL == "" {
		u.BaseURL = DefaultUpstreamBaseURL
	}
	if u.Timeout == 0 {
		u.Timeout = DefaultUpstreamTimeout
	}
	if u.StreamTimeout == 0 {
		u.StreamTimeout = DefaultUpstreamStreamTimeout
	}
	if u.Burst == 0 {
		u.Burst = DefaultUpstreamBurst
	}
	if u.UnhealthyThreshold == 0 {
		u.UnhealthyThreshold = DefaultUnhealthyThreshold
	}
	if u.MaxIdleConns == 0 {
		u.MaxIdleConns = DefaultMaxIdleConns
	}
	if u.MaxIdleConnsPerHost == 0 {
		u.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
	}
	if u.IdleConnTimeout == 0 {
		u.IdleConnTimeout = DefaultIdleConnTimeout
	}
	if len(u.Models.Chat) == 0 {
		u.Models.Chat = append([]string(nil), DefaultChatModels...)
	}
	if len(u.Models.Text) == 0 {
		u.Models.Text = append([]string(nil), DefaultTextModels...)
	}

	d := &u.Defaults
	if d.ChatModel == "" {
		d.ChatModel = DefaultChatModel
	}
	if d.TextModel == "" {
		d.TextModel = DefaultTextModel
	}
	if d.Temperature == nil {
		t := DefaultTemperature
		d.Temperature = &t
	}
	if d.MaxTokens == 0 {
		d.MaxTokens = DefaultMaxTokens
	}
	if d.StreamMaxTokens == 0 {
		d.StreamMaxTokens = DefaultStreamMaxTokens
	}
}

func applyRateLimitDefaults(r *RateLimitConfig) {
	if r.Requests == 0 {
		r.Requests = DefaultRateLimitRequests
	}
	if r.Window == 0 {
		r.Window = DefaultRateLimitWindow
	}
	if r.Backend == "" {
		r.Backend = DefaultRateLimitBackend
	}
	if r.Shards == 0 {
		r.Shards = DefaultRateLimitShards
	}
	if r.IdleTTL == 0 {
		r.IdleTTL = DefaultRateLimitIdleTTL
	}
	if r.Redis.Address == "" {
		r.Redis.Address = DefaultRedisAddress
	}
	if r.Redis.KeyPrefix == "" {
		r.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if r.Redis.DialTimeout == 0 {
		r.Redis.DialTimeout = DefaultRedisDialTimeout
	}
}

func applyUsageDefaults(u *UsageConfig) {
	if u.Backend == "" {
		u.Backend = DefaultUsageBackend
	}
	if u.SQLite.Path == "" {
		u.SQLite.Path = DefaultUsageSQLitePath
	}
	if u.SQLite.MaxOpenConns == 0 {
		u.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if u.SQLite.MaxIdleConns == 0 {
		u.SQLite.MaxIdleConns = DefaultSQLiteMaxIdleConns
	}
	if u.SQLite.BusyTimeout == 0 {
		u.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if u.AsyncBuffer == 0 {
		u.AsyncBuffer = DefaultUsageAsyncBuffer
	}
	if u.WriteTimeout == 0 {
		u.WriteTimeout = DefaultUsageWriteTimeout
	}
	if u.PruneSchedule == "" {
		u.PruneSchedule = DefaultUsagePruneSchedule
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}
	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if t.Tracing.Endpoint == "" {
		t.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if t.Tracing.SampleRatio == 0 {
		t.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultTracingServiceName
	}
	if t.Tracing.Timeout == 0 {
		t.Tracing.Timeout = DefaultTracingTimeout
	}
	if t.Health.CheckTimeout == 0 {
		t.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
