package health

import (
	"context"
	"fmt"
)

// HealthReporter is implemented by upstream providers that track the
// outcome of recent calls.
type HealthReporter interface {
	Name() string
	HealthCheck(ctx context.Context) error
}

// Pinger is implemented by shared stores such as the Redis rate-limit
// backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProviderCheck reports the provider's passive health. It makes no
// upstream call.
func ProviderCheck(p HealthReporter) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.HealthCheck(ctx); err != nil {
			return fmt.Errorf("provider %s: %w", p.Name(), err)
		}
		return nil
	}
}

// PingCheck pings a store.
func PingCheck(name string, p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
		return nil
	}
}
