// Package storage provides window stores for the ratelimit package.
//
// # Overview
//
// Two implementations of ratelimit.Store are provided:
//
//   - Memory: a sharded lock table held in process memory (default)
//   - Redis: windows kept in Redis so several gateway replicas share budgets
//
// # Usage
//
//	store := storage.NewMemoryStore(storage.MemoryConfig{Shards: 32})
//	limiter, err := ratelimit.NewFixedWindow(store, ratelimit.Config{
//	    Limit:  60,
//	    Window: time.Minute,
//	})
//
// # Thread Safety
//
// The memory store hashes each client ID with murmur3 onto one of a fixed
// number of shards. A shard's mutex covers the read-check-increment of every
// window on that shard, so requests from the same client are serialized while
// clients on other shards proceed in parallel. The Redis store evaluates a
// Lua script per check, which Redis executes atomically.
package storage
