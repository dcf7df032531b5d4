package storage

import (
	"context"
	"fmt"

	"mercator-hq/gateway/pkg/config"
	"mercator-hq/gateway/pkg/usage"
)

// Open returns the store selected by cfg.Backend.
func Open(ctx context.Context, cfg *config.UsageConfig) (usage.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		store, err := NewSQLiteStore(ctx, cfg.SQLite)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported usage backend: %s", cfg.Backend)
	}
}
