package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"mercator-hq/gateway/pkg/usage"
)

// MemoryStore implements usage.Store in process memory. Records are lost on
// restart.
type MemoryStore struct {
	records []*usage.Record
	mu      sync.RWMutex
}

var _ usage.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Store appends a copy of record.
func (s *MemoryStore) Store(ctx context.Context, record *usage.Record) error {
	if err := ctx.Err(); err != nil {
		return usage.NewStorageError("memory", "store", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recordCopy := *record
	s.records = append(s.records, &recordCopy)
	return nil
}

// Query returns copies of the matching records.
func (s *MemoryStore) Query(ctx context.Context, q *usage.Query) ([]*usage.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, usage.NewStorageError("memory", "query", err)
	}

	s.mu.RLock()
	results := make([]*usage.Record, 0, len(s.records))
	for _, record := range s.records {
		if q.Matches(record) {
			recordCopy := *record
			results = append(results, &recordCopy)
		}
	}
	s.mu.RUnlock()

	ascending := q.Ascending()
	sort.SliceStable(results, func(i, j int) bool {
		if ascending {
			return results[i].Timestamp.Before(results[j].Timestamp)
		}
		return results[i].Timestamp.After(results[j].Timestamp)
	})

	limit := defaultQueryLimit
	offset := 0
	if q != nil {
		if q.Limit > 0 {
			limit = q.Limit
		}
		offset = q.Offset
	}

	if offset >= len(results) {
		return []*usage.Record{}, nil
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end], nil
}

// Count returns the number of matching records.
func (s *MemoryStore) Count(ctx context.Context, q *usage.Query) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, usage.NewStorageError("memory", "count", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, record := range s.records {
		if q.Matches(record) {
			n++
		}
	}
	return n, nil
}

// DeleteBefore removes records with a timestamp before cutoff.
func (s *MemoryStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, usage.NewStorageError("memory", "delete", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var deleted int64
	for _, record := range s.records {
		if record.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, record)
	}
	for i := len(kept); i < len(s.records); i++ {
		s.records[i] = nil
	}
	s.records = kept
	return deleted, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
