package recorder

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"mercator-hq/gateway/pkg/usage"
)

// Config configures the recorder.
type Config struct {
	// AsyncBuffer is the queue capacity. Records arriving while the queue
	// is full are dropped.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout bounds a single store write.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() Config {
	return Config{
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder writes usage records to a store from a background worker so
// that request handling never waits on storage.
type Recorder struct {
	store      usage.Store
	config     Config
	recordChan chan *usage.Record
	done       chan struct{}
	wg         sync.WaitGroup
	closeOnce  sync.Once
	closed     atomic.Bool
	logger     *slog.Logger

	written atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

// New starts a recorder writing to store.
func New(store usage.Store, cfg Config, logger *slog.Logger) *Recorder {
	defaults := DefaultConfig()
	if cfg.AsyncBuffer <= 0 {
		cfg.AsyncBuffer = defaults.AsyncBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		store:      store,
		config:     cfg,
		recordChan: make(chan *usage.Record, cfg.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     logger.With("component", "usage.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("usage recorder initialized",
		"async_buffer", cfg.AsyncBuffer,
		"write_timeout", cfg.WriteTimeout,
	)
	return r
}

// Record enqueues rec and returns immediately. A full queue or a closed
// recorder drops the record with a warning.
func (r *Recorder) Record(ctx context.Context, rec *usage.Record) {
	if rec == nil {
		return
	}
	if r.closed.Load() {
		r.drop(ctx, rec, "recorder closed")
		return
	}

	select {
	case r.recordChan <- rec:
	default:
		r.drop(ctx, rec, "queue full")
	}
}

func (r *Recorder) drop(ctx context.Context, rec *usage.Record, reason string) {
	r.dropped.Add(1)
	r.logger.WarnContext(ctx, "dropping usage record",
		"reason", reason,
		"record_id", rec.ID,
		"request_id", rec.RequestID,
		"capacity", r.config.AsyncBuffer,
	)
}

// Close stops accepting records, drains the queue and waits for pending
// writes. It is safe to call more than once.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		close(r.done)
		r.wg.Wait()
		r.logger.Info("usage recorder shut down",
			"written", r.written.Load(),
			"dropped", r.dropped.Load(),
			"failed", r.failed.Load(),
		)
	})
	return nil
}

// Stats reports how many records were written, dropped and failed.
func (r *Recorder) Stats() (written, dropped, failed int64) {
	return r.written.Load(), r.dropped.Load(), r.failed.Load()
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case rec := <-r.recordChan:
			r.write(rec)
		case <-r.done:
			for {
				select {
				case rec := <-r.recordChan:
					r.write(rec)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(rec *usage.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.store.Store(ctx, rec); err != nil {
		r.failed.Add(1)
		r.logger.Error("failed to store usage record",
			"record_id", rec.ID,
			"request_id", rec.RequestID,
			"error", err,
		)
		return
	}
	r.written.Add(1)
}
