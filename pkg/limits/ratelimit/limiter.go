package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Store holds client windows and applies Window.Advance atomically per key.
// Implementations must be safe for concurrent use.
type Store interface {
	// Hit applies one request for key at now and returns the resulting
	// window and whether the request was admitted.
	Hit(ctx context.Context, key string, now time.Time, p Policy) (Window, bool, error)

	// Sweep removes windows that have expired at now and were last hit
	// more than idle ago. It returns the number of windows removed.
	Sweep(ctx context.Context, now time.Time, p Policy, idle time.Duration) (int, error)

	// Len returns the number of tracked windows, or -1 if unknown.
	Len() int

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error

	// Close releases store resources.
	Close() error
}

// Limiter admits or rejects requests for a client identity.
type Limiter interface {
	Check(ctx context.Context, clientID string) (Decision, error)
	Policy() Policy
}

// Decision is the outcome of one admission check.
type Decision struct {
	// Allowed is true when the request was admitted.
	Allowed bool

	// Limit is the configured requests per window.
	Limit int

	// Count is the number of admitted requests in the current window,
	// including this one when admitted.
	Count int

	// Remaining is Limit - Count, never negative.
	Remaining int

	// Reset is when the current window closes.
	Reset time.Time

	// RetryAfter is how long a rejected client must wait. Zero when allowed.
	RetryAfter time.Duration

	// Degraded is set when the store failed and the request was admitted
	// because the limiter fails open.
	Degraded bool
}

// RetryAfterSeconds returns RetryAfter rounded up to whole seconds.
func (d Decision) RetryAfterSeconds() int {
	if d.RetryAfter <= 0 {
		return 0
	}
	secs := d.RetryAfter / time.Second
	if d.RetryAfter%time.Second != 0 {
		secs++
	}
	return int(secs)
}

// Config configures a FixedWindow limiter.
type Config struct {
	// Limit is the number of requests admitted per window.
	Limit int

	// Window is the counting window length.
	Window time.Duration

	// FailOpen admits requests when the store returns an error.
	FailOpen bool

	// Clock defaults to SystemClock.
	Clock Clock

	// Metrics is optional.
	Metrics *Metrics

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// FixedWindow is a Limiter counting requests in fixed windows per client.
type FixedWindow struct {
	store    Store
	policy   Policy
	failOpen bool
	clock    Clock
	metrics  *Metrics
	logger   *slog.Logger
}

// NewFixedWindow creates a fixed-window limiter over store.
func NewFixedWindow(store Store, cfg Config) (*FixedWindow, error) {
	if store == nil {
		return nil, fmt.Errorf("ratelimit: store is required")
	}
	if cfg.Limit <= 0 {
		return nil, fmt.Errorf("ratelimit: limit must be positive, got %d", cfg.Limit)
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("ratelimit: window must be positive, got %s", cfg.Window)
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &FixedWindow{
		store:    store,
		policy:   Policy{Limit: cfg.Limit, Window: cfg.Window},
		failOpen: cfg.FailOpen,
		clock:    cfg.Clock,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}, nil
}

// Policy returns the limiter's policy.
func (l *FixedWindow) Policy() Policy {
	return l.policy
}

// Check applies one request for clientID.
func (l *FixedWindow) Check(ctx context.Context, clientID string) (Decision, error) {
	start := time.Now()
	now := l.clock.Now()

	w, admitted, err := l.store.Hit(ctx, clientID, now, l.policy)
	if err != nil {
		if l.failOpen {
			l.logger.WarnContext(ctx, "rate limit store failed, admitting request",
				"error", err,
			)
			l.metrics.observe("degraded", time.Since(start))
			return Decision{
				Allowed:   true,
				Limit:     l.policy.Limit,
				Remaining: l.policy.Limit,
				Reset:     now.Add(l.policy.Window),
				Degraded:  true,
			}, nil
		}
		l.metrics.observe("error", time.Since(start))
		return Decision{}, fmt.Errorf("rate limit check: %w", err)
	}

	d := Decision{
		Allowed:   admitted,
		Limit:     l.policy.Limit,
		Count:     w.Count,
		Remaining: l.policy.Limit - w.Count,
		Reset:     w.ResetAt(l.policy.Window),
	}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if !admitted {
		d.RetryAfter = w.Remaining(now, l.policy.Window)
		l.metrics.observe("rejected", time.Since(start))
		return d, nil
	}

	l.metrics.observe("allowed", time.Since(start))
	return d, nil
}

// Sweep evicts idle windows from the store.
func (l *FixedWindow) Sweep(ctx context.Context, idle time.Duration) (int, error) {
	n, err := l.store.Sweep(ctx, l.clock.Now(), l.policy, idle)
	if err != nil {
		return 0, err
	}
	l.metrics.evicted(n)
	l.metrics.tracked(l.store.Len())
	return n, nil
}
