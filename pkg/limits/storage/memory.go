package storage

import (
	"context"
	"sync"
	"time"

	"github.com/spaolacci/murmur3"

	"mercator-hq/gateway/pkg/limits/ratelimit"
)

// DefaultShards is the shard count used when MemoryConfig.Shards is zero.
const DefaultShards = 32

// MemoryConfig configures the memory store.
type MemoryConfig struct {
	// Shards is the number of lock shards. Rounded up to a power of two.
	// Default: 32
	Shards int
}

// MemoryStore implements ratelimit.Store in process memory.
// All windows are lost when the process exits.
type MemoryStore struct {
	shards []*shard
	mask   uint64
}

type shard struct {
	mu      sync.Mutex
	windows map[string]*entry
}

type entry struct {
	window   ratelimit.Window
	lastSeen time.Time
}

var _ ratelimit.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty sharded memory store.
func NewMemoryStore(cfg MemoryConfig) *MemoryStore {
	n := cfg.Shards
	if n <= 0 {
		n = DefaultShards
	}
	size := 1
	for size < n {
		size <<= 1
	}

	s := &MemoryStore{
		shards: make([]*shard, size),
		mask:   uint64(size - 1),
	}
	for i := range s.shards {
		s.shards[i] = &shard{windows: make(map[string]*entry)}
	}
	return s
}

func (s *MemoryStore) shardFor(key string) *shard {
	return s.shards[murmur3.Sum64([]byte(key))&s.mask]
}

// Hit applies one request for key under the key's shard lock.
func (s *MemoryStore) Hit(_ context.Context, key string, now time.Time, p ratelimit.Policy) (ratelimit.Window, bool, error) {
	sh := s.shardFor(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.windows[key]
	if !ok {
		e = &entry{}
		sh.windows[key] = e
	}

	w, admitted := e.window.Advance(now, p)
	e.window = w
	if now.After(e.lastSeen) {
		e.lastSeen = now
	}
	return w, admitted, nil
}

// Sweep removes expired windows that have been idle longer than idle.
// A window that has not expired is kept regardless of idleness, so a sweep
// never hands a client a fresh budget early.
func (s *MemoryStore) Sweep(_ context.Context, now time.Time, p ratelimit.Policy, idle time.Duration) (int, error) {
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for key, e := range sh.windows {
			if !e.window.Expired(now, p.Window) {
				continue
			}
			if now.Sub(e.lastSeen) < idle {
				continue
			}
			delete(sh.windows, key)
			removed++
		}
		sh.mu.Unlock()
	}
	return removed, nil
}

// Len returns the number of tracked windows.
func (s *MemoryStore) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		total += len(sh.windows)
		sh.mu.Unlock()
	}
	return total
}

// Get returns the window held for key.
func (s *MemoryStore) Get(key string) (ratelimit.Window, bool) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.windows[key]
	if !ok {
		return ratelimit.Window{}, false
	}
	return e.window, true
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
