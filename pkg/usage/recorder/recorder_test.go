package recorder

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"mercator-hq/gateway/pkg/usage"
	"mercator-hq/gateway/pkg/usage/storage"
)

// gatedStore blocks every Store call until release is closed.
type gatedStore struct {
	*storage.MemoryStore
	entered chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		MemoryStore: storage.NewMemoryStore(),
		entered:     make(chan struct{}, 16),
		release:     make(chan struct{}),
	}
}

func (s *gatedStore) Store(ctx context.Context, r *usage.Record) error {
	s.entered <- struct{}{}
	<-s.release
	return s.MemoryStore.Store(ctx, r)
}

type failingStore struct {
	*storage.MemoryStore
}

func (failingStore) Store(context.Context, *usage.Record) error {
	return errors.New("disk full")
}

func record(i int) *usage.Record {
	return &usage.Record{
		ID:        fmt.Sprintf("rec-%d", i),
		Timestamp: time.Now(),
		Route:     "/chat",
		Outcome:   usage.OutcomeCompleted,
	}
}

func TestRecorder_WritesRecords(t *testing.T) {
	store := storage.NewMemoryStore()
	r := New(store, Config{AsyncBuffer: 10}, nil)

	for i := 0; i < 5; i++ {
		r.Record(context.Background(), record(i))
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	if store.Len() != 5 {
		t.Errorf("stored %d records, want 5", store.Len())
	}
	written, dropped, failed := r.Stats()
	if written != 5 || dropped != 0 || failed != 0 {
		t.Errorf("Stats() = %d/%d/%d, want 5/0/0", written, dropped, failed)
	}
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	store := newGatedStore()
	r := New(store, Config{AsyncBuffer: 1, WriteTimeout: time.Minute}, nil)

	// The worker takes the first record and blocks in Store.
	r.Record(context.Background(), record(1))
	select {
	case <-store.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never reached the store")
	}

	// One more fits in the queue; the third is dropped.
	r.Record(context.Background(), record(2))
	r.Record(context.Background(), record(3))

	close(store.release)
	r.Close()

	written, dropped, _ := r.Stats()
	if written != 2 {
		t.Errorf("written = %d, want 2", written)
	}
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
}

func TestRecorder_RecordAfterClose(t *testing.T) {
	store := storage.NewMemoryStore()
	r := New(store, DefaultConfig(), nil)
	r.Close()
	r.Close()

	r.Record(context.Background(), record(1))
	r.Record(context.Background(), nil)

	if store.Len() != 0 {
		t.Errorf("stored %d records after Close, want 0", store.Len())
	}
	if _, dropped, _ := r.Stats(); dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
}

func TestRecorder_StoreFailure(t *testing.T) {
	r := New(failingStore{storage.NewMemoryStore()}, DefaultConfig(), nil)
	r.Record(context.Background(), record(1))
	r.Close()

	if _, _, failed := r.Stats(); failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
}
