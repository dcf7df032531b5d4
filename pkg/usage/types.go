package usage

import (
	"context"
	"time"
)

// Outcomes of a dispatched request.
const (
	OutcomeCompleted   = "completed"
	OutcomeRejected    = "rejected"
	OutcomeInvalid     = "invalid"
	OutcomeFailed      = "failed"
	OutcomeInterrupted = "interrupted"
	OutcomeCanceled    = "canceled"
)

// Record is the ledger entry for one request. It never carries message,
// prompt or completion content.
type Record struct {
	// Identity
	ID        string    `json:"id"`         // UUID v4
	Timestamp time.Time `json:"timestamp"`  // When the request was received
	RequestID string    `json:"request_id"` // From the request ID middleware
	ClientID  string    `json:"client_id"`  // Rate-limit identity

	// Request
	Route  string `json:"route"`
	Model  string `json:"model"`
	Stream bool   `json:"stream"`

	// Result
	Outcome    string `json:"outcome"`
	ErrorKind  string `json:"error_kind,omitempty"`
	StatusCode int    `json:"status_code"`

	// Usage
	PromptTokens     int  `json:"prompt_tokens"`
	CompletionTokens int  `json:"completion_tokens"`
	TokensUsed       int  `json:"tokens_used"`
	TokensEstimated  bool `json:"tokens_estimated"`
	Chunks           int  `json:"chunks,omitempty"`

	LatencyMS int64 `json:"latency_ms"`
}

// Query filters ledger records. Zero fields match everything.
type Query struct {
	// Time range
	StartTime *time.Time `json:"start_time,omitempty"` // Inclusive
	EndTime   *time.Time `json:"end_time,omitempty"`   // Inclusive

	// Filters
	ClientID string `json:"client_id,omitempty"`
	Route    string `json:"route,omitempty"`
	Model    string `json:"model,omitempty"`
	Outcome  string `json:"outcome,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// SortOrder is "desc" (newest first, default) or "asc".
	SortOrder string `json:"sort_order,omitempty"`
}

// Store persists ledger records. Implementations are safe for concurrent use.
type Store interface {
	// Store persists one record.
	Store(ctx context.Context, record *Record) error

	// Query returns the records matching q, ordered by timestamp.
	Query(ctx context.Context, q *Query) ([]*Record, error)

	// Count returns the number of records matching q, ignoring pagination.
	Count(ctx context.Context, q *Query) (int64, error)

	// DeleteBefore removes records older than cutoff and returns how many
	// were removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases backend resources.
	Close() error
}

// Totals aggregates a set of records.
type Totals struct {
	Requests   int            `json:"requests"`
	Tokens     int            `json:"tokens"`
	ByOutcome  map[string]int `json:"by_outcome"`
	ByModel    map[string]int `json:"by_model"`
	AvgLatency time.Duration  `json:"avg_latency"`
}

// Summarize computes totals over records.
func Summarize(records []*Record) Totals {
	t := Totals{
		ByOutcome: make(map[string]int),
		ByModel:   make(map[string]int),
	}

	var latency int64
	for _, r := range records {
		t.Requests++
		t.Tokens += r.TokensUsed
		t.ByOutcome[r.Outcome]++
		if r.Model != "" {
			t.ByModel[r.Model]++
		}
		latency += r.LatencyMS
	}
	if t.Requests > 0 {
		t.AvgLatency = time.Duration(latency/int64(t.Requests)) * time.Millisecond
	}
	return t
}

// Matches reports whether r passes the filters of q. Pagination and sort
// order are ignored.
func (q *Query) Matches(r *Record) bool {
	if q == nil {
		return true
	}
	if q.StartTime != nil && r.Timestamp.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && r.Timestamp.After(*q.EndTime) {
		return false
	}
	if q.ClientID != "" && r.ClientID != q.ClientID {
		return false
	}
	if q.Route != "" && r.Route != q.Route {
		return false
	}
	if q.Model != "" && r.Model != q.Model {
		return false
	}
	if q.Outcome != "" && r.Outcome != q.Outcome {
		return false
	}
	return true
}

// Ascending reports whether results are ordered oldest first.
func (q *Query) Ascending() bool {
	return q != nil && q.SortOrder == "asc"
}
