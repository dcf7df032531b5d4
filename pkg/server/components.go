package server

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/multierr"

	"mercator-hq/gateway/pkg/config"
	"mercator-hq/gateway/pkg/gateway"
	"mercator-hq/gateway/pkg/limits/ratelimit"
	"mercator-hq/gateway/pkg/limits/storage"
	"mercator-hq/gateway/pkg/processing/tokens"
	"mercator-hq/gateway/pkg/providers"
	"mercator-hq/gateway/pkg/providers/openai"
	"mercator-hq/gateway/pkg/relay"
	"mercator-hq/gateway/pkg/scheduler"
	"mercator-hq/gateway/pkg/telemetry/health"
	"mercator-hq/gateway/pkg/telemetry/metrics"
	"mercator-hq/gateway/pkg/telemetry/tracing"
	"mercator-hq/gateway/pkg/usage"
	"mercator-hq/gateway/pkg/usage/recorder"
	"mercator-hq/gateway/pkg/usage/retention"
	usagestorage "mercator-hq/gateway/pkg/usage/storage"
)

// SweepJobName is the scheduler job evicting idle rate-limit windows.
const SweepJobName = "ratelimit_sweep"

// Components holds the process-scoped collaborators of the gateway. They
// are built once at start and shared by every request.
type Components struct {
	Provider   *openai.Provider
	RateStore  ratelimit.Store
	Limiter    *ratelimit.FixedWindow
	UsageStore usage.Store
	Recorder   *recorder.Recorder
	Pruner     *retention.Pruner
	Metrics    *metrics.Collector
	Tracer     *tracing.Tracer
	Health     *health.Checker
	Scheduler  *scheduler.Scheduler
	Dispatcher *gateway.Dispatcher
}

// NewProvider builds the upstream adapter from cfg.
func NewProvider(cfg *config.UpstreamConfig) (*openai.Provider, error) {
	return openai.NewProvider(providers.ProviderConfig{
		Name:                cfg.Name,
		BaseURL:             cfg.BaseURL,
		APIKey:              cfg.APIKey,
		Timeout:             cfg.Timeout,
		StreamTimeout:       cfg.StreamTimeout,
		RequestsPerSecond:   cfg.RequestsPerSecond,
		Burst:               cfg.Burst,
		UnhealthyThreshold:  cfg.UnhealthyThreshold,
		Models:              providers.ModelCatalog{Chat: cfg.Models.Chat, Text: cfg.Models.Text},
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
	})
}

// NewRateStore opens the rate-limit store selected by cfg.Backend.
func NewRateStore(ctx context.Context, cfg *config.RateLimitConfig) (ratelimit.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return storage.NewMemoryStore(storage.MemoryConfig{Shards: cfg.Shards}), nil
	case "redis":
		store, err := storage.NewRedisStore(ctx, storage.RedisConfig{
			Address:     cfg.Redis.Address,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			KeyPrefix:   cfg.Redis.KeyPrefix,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported rate limit backend: %s", cfg.Backend)
	}
}

// NewComponents builds every collaborator described by cfg. On error the
// parts already built are closed.
func NewComponents(ctx context.Context, cfg *config.Config, version string) (_ *Components, err error) {
	logger := slog.Default()
	c := &Components{
		Scheduler: scheduler.New(logger),
		Health:    health.New(cfg.Telemetry.Health.CheckTimeout),
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, c.Close(context.Background()))
		}
	}()

	if cfg.Telemetry.Metrics.Enabled {
		c.Metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}

	c.Tracer, err = tracing.New(&cfg.Telemetry.Tracing, version)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	c.Provider, err = NewProvider(&cfg.Upstream)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize upstream: %w", err)
	}
	c.Health.Register("upstream", health.ProviderCheck(c.Provider))

	if err := c.buildLimiter(ctx, &cfg.RateLimit); err != nil {
		return nil, err
	}

	if cfg.Usage.Enabled {
		if err := c.buildUsage(ctx, &cfg.Usage); err != nil {
			return nil, err
		}
	}

	opts := gateway.Options{
		Provider:  c.Provider,
		Defaults:  gateway.DefaultsFromConfig(cfg.Upstream.Defaults),
		Relay:     relay.Options{BufferSize: cfg.Relay.BufferSize},
		Estimator: tokens.New(&cfg.Tokens),
		Metrics:   c.Metrics,
		Tracer:    c.Tracer,
		Logger:    logger,
	}
	// Typed nils must not reach the interface fields.
	if c.Limiter != nil {
		opts.Limiter = c.Limiter
	}
	if c.Recorder != nil {
		opts.Recorder = c.Recorder
	}

	c.Dispatcher, err = gateway.New(opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Components) buildLimiter(ctx context.Context, cfg *config.RateLimitConfig) error {
	if !cfg.Enabled {
		slog.Warn("rate limiting disabled")
		return nil
	}

	store, err := NewRateStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open rate limit store: %w", err)
	}
	c.RateStore = store
	if cfg.Backend == "redis" {
		c.Health.Register("rate_store", health.PingCheck("redis", store))
	}

	var limiterMetrics *ratelimit.Metrics
	if c.Metrics != nil {
		limiterMetrics = ratelimit.NewMetrics(c.Metrics.Registry(), c.Metrics.Namespace())
	}

	c.Limiter, err = ratelimit.NewFixedWindow(store, ratelimit.Config{
		Limit:    cfg.Requests,
		Window:   cfg.Window,
		FailOpen: cfg.FailOpen,
		Metrics:  limiterMetrics,
	})
	if err != nil {
		return fmt.Errorf("failed to create rate limiter: %w", err)
	}

	idle := cfg.IdleTTL
	return c.Scheduler.Add(ctx, SweepJobName, cfg.SweepSchedule, func(ctx context.Context) error {
		_, err := c.Limiter.Sweep(ctx, idle)
		return err
	})
}

func (c *Components) buildUsage(ctx context.Context, cfg *config.UsageConfig) error {
	store, err := usagestorage.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open usage store: %w", err)
	}
	c.UsageStore = store
	if p, ok := store.(health.Pinger); ok {
		c.Health.Register("usage_store", health.PingCheck(cfg.Backend, p))
	}

	c.Recorder = recorder.New(store, recorder.Config{
		AsyncBuffer:  cfg.AsyncBuffer,
		WriteTimeout: cfg.WriteTimeout,
	}, slog.Default())

	c.Pruner = retention.NewPruner(store, retention.Config{
		RetentionDays: cfg.RetentionDays,
		PruneSchedule: cfg.PruneSchedule,
	}, slog.Default())
	return c.Pruner.Schedule(ctx, c.Scheduler)
}

// Close releases every component in reverse dependency order. The recorder
// is drained before its store closes.
func (c *Components) Close(ctx context.Context) error {
	var err error
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.Recorder != nil {
		err = multierr.Append(err, c.Recorder.Close())
	}
	if c.UsageStore != nil {
		err = multierr.Append(err, c.UsageStore.Close())
	}
	if c.RateStore != nil {
		err = multierr.Append(err, c.RateStore.Close())
	}
	if c.Provider != nil {
		err = multierr.Append(err, c.Provider.Close())
	}
	if c.Tracer != nil {
		err = multierr.Append(err, c.Tracer.Shutdown(ctx))
	}
	return err
}
