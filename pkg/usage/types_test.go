package usage

import (
	"testing"
	"time"
)

func TestQuery_Matches(t *testing.T) {
	ts := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	before := ts.Add(-time.Hour)
	after := ts.Add(time.Hour)
	r := &Record{Timestamp: ts, ClientID: "a", Route: "/chat", Model: "gpt-4", Outcome: OutcomeCompleted}

	tests := []struct {
		name  string
		query *Query
		want  bool
	}{
		{"nil", nil, true},
		{"empty", &Query{}, true},
		{"inside range", &Query{StartTime: &before, EndTime: &after}, true},
		{"start inclusive", &Query{StartTime: &ts}, true},
		{"end inclusive", &Query{EndTime: &ts}, true},
		{"after end", &Query{EndTime: &before}, false},
		{"before start", &Query{StartTime: &after}, false},
		{"client", &Query{ClientID: "b"}, false},
		{"route", &Query{Route: "/text"}, false},
		{"model", &Query{Model: "gpt-4"}, true},
		{"outcome", &Query{Outcome: OutcomeFailed}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.query.Matches(r); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	records := []*Record{
		{Outcome: OutcomeCompleted, Model: "gpt-4", TokensUsed: 10, LatencyMS: 100},
		{Outcome: OutcomeCompleted, Model: "gpt-4", TokensUsed: 20, LatencyMS: 300},
		{Outcome: OutcomeRejected},
	}

	got := Summarize(records)
	if got.Requests != 3 || got.Tokens != 30 {
		t.Errorf("Requests = %d, Tokens = %d", got.Requests, got.Tokens)
	}
	if got.ByOutcome[OutcomeCompleted] != 2 || got.ByOutcome[OutcomeRejected] != 1 {
		t.Errorf("ByOutcome = %v", got.ByOutcome)
	}
	if got.ByModel["gpt-4"] != 2 || len(got.ByModel) != 1 {
		t.Errorf("ByModel = %v", got.ByModel)
	}
	if got.AvgLatency != 133*time.Millisecond {
		t.Errorf("AvgLatency = %v, want 133ms", got.AvgLatency)
	}

	if empty := Summarize(nil); empty.Requests != 0 || empty.AvgLatency != 0 {
		t.Errorf("Summarize(nil) = %+v", empty)
	}
}
