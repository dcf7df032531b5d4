package metrics

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mercator-hq/gateway/pkg/config"
)

// Helper function to create test config
func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:                true,
		Namespace:              "test",
		RequestDurationBuckets: []float64{0.1, 0.5, 1.0, 5.0},
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector == nil {
		t.Fatal("Expected non-nil collector")
	}
	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
	if collector.Namespace() != "test" {
		t.Errorf("Expected namespace test, got %q", collector.Namespace())
	}
}

func TestCollector_Defaults(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	collector := NewCollector(cfg, nil)

	if cfg.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("Expected default namespace, got %q", cfg.Namespace)
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		t.Error("Expected default buckets")
	}

	// The default registry carries runtime collectors.
	families, err := collector.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "go_goroutines" {
			found = true
		}
	}
	if !found {
		t.Error("Expected Go runtime collector on default registry")
	}
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordHTTPRequest("/chat", http.StatusOK, 120*time.Millisecond)
	collector.RecordHTTPRequest("/chat", http.StatusOK, 80*time.Millisecond)
	collector.RecordHTTPRequest("/chat", http.StatusTooManyRequests, time.Millisecond)

	ok := testutil.ToFloat64(collector.requestMetrics.httpTotal.WithLabelValues("/chat", "200"))
	if ok != 2 {
		t.Errorf("Expected 2 successful requests, got %f", ok)
	}
	limited := testutil.ToFloat64(collector.requestMetrics.httpTotal.WithLabelValues("/chat", "429"))
	if limited != 1 {
		t.Errorf("Expected 1 rejected request, got %f", limited)
	}
}

func TestCollector_RecordDispatch(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	tests := []struct {
		route   string
		model   string
		outcome string
	}{
		{"/chat", "gpt-4", "completed"},
		{"/text", "gpt-3.5-turbo-instruct", "upstream_timeout"},
		{"/chat", "", "validation_error"},
	}

	for _, tt := range tests {
		t.Run(tt.outcome, func(t *testing.T) {
			collector.RecordDispatch(tt.route, tt.model, tt.outcome, time.Second)

			model := tt.model
			if model == "" {
				model = "none"
			}
			count := testutil.ToFloat64(collector.requestMetrics.dispatchTotal.WithLabelValues(tt.route, model, tt.outcome))
			if count != 1 {
				t.Errorf("Expected dispatch counter 1, got %f", count)
			}
		})
	}
}

func TestCollector_RecordTokens(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordTokens("gpt-4", 10, 20, false)
	collector.RecordTokens("gpt-4", 5, 0, true)

	tests := []struct {
		kind, source string
		want         float64
	}{
		{"prompt", "upstream", 10},
		{"completion", "upstream", 20},
		{"prompt", "estimated", 5},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(collector.requestMetrics.tokensTotal.WithLabelValues("gpt-4", tt.kind, tt.source))
		if got != tt.want {
			t.Errorf("%s/%s: expected %f, got %f", tt.kind, tt.source, tt.want, got)
		}
	}
}

func TestCollector_UpstreamMetrics(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	t.Run("update health", func(t *testing.T) {
		collector.UpdateProviderHealth("openai", true)
		health := testutil.ToFloat64(collector.upstreamMetrics.health.WithLabelValues("openai"))
		if health != 1.0 {
			t.Errorf("Expected health=1.0, got %f", health)
		}

		collector.UpdateProviderHealth("openai", false)
		health = testutil.ToFloat64(collector.upstreamMetrics.health.WithLabelValues("openai"))
		if health != 0.0 {
			t.Errorf("Expected health=0.0, got %f", health)
		}
	})

	t.Run("calls and errors", func(t *testing.T) {
		collector.RecordUpstreamCall("openai", "gpt-4", 300*time.Millisecond)
		collector.RecordUpstreamError("openai", "upstream_timeout")

		calls := testutil.ToFloat64(collector.upstreamMetrics.requests.WithLabelValues("openai", "gpt-4"))
		if calls != 1 {
			t.Errorf("Expected 1 upstream call, got %f", calls)
		}
		errs := testutil.ToFloat64(collector.upstreamMetrics.errors.WithLabelValues("openai", "upstream_timeout"))
		if errs != 1 {
			t.Errorf("Expected 1 upstream error, got %f", errs)
		}
	})
}

func TestCollector_StreamMetrics(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.StreamStarted()
	collector.StreamStarted()
	if active := testutil.ToFloat64(collector.streamMetrics.active); active != 2 {
		t.Errorf("Expected 2 active streams, got %f", active)
	}

	collector.StreamFinished("completed", 5)
	collector.StreamFinished("interrupted", 3)

	if active := testutil.ToFloat64(collector.streamMetrics.active); active != 0 {
		t.Errorf("Expected 0 active streams, got %f", active)
	}
	if chunks := testutil.ToFloat64(collector.streamMetrics.chunks); chunks != 8 {
		t.Errorf("Expected 8 chunks, got %f", chunks)
	}
	if n := testutil.ToFloat64(collector.streamMetrics.streams.WithLabelValues("interrupted")); n != 1 {
		t.Errorf("Expected 1 interrupted stream, got %f", n)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, prometheus.NewRegistry())

	collector.RecordHTTPRequest("/chat", 200, time.Second)
	collector.RecordDispatch("/chat", "gpt-4", "completed", time.Second)

	if n := testutil.CollectAndCount(collector.requestMetrics.httpTotal); n != 0 {
		t.Errorf("Expected no series when disabled, got %d", n)
	}

	// A nil collector is also a no-op.
	var nilCollector *Collector
	nilCollector.RecordDispatch("/chat", "gpt-4", "completed", time.Second)
	nilCollector.StreamStarted()
}

func TestCollector_ModelCardinality(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.cardinalityLimiter = NewCardinalityLimiter(2)

	for i := 0; i < 5; i++ {
		collector.RecordDispatch("/chat", fmt.Sprintf("model-%d", i), "validation_error", time.Millisecond)
	}

	other := testutil.ToFloat64(collector.requestMetrics.dispatchTotal.WithLabelValues("/chat", otherLabel, "validation_error"))
	if other != 3 {
		t.Errorf("Expected 3 requests folded into other, got %f", other)
	}
	if collector.cardinalityLimiter.Count() != 2 {
		t.Errorf("Expected cardinality 2, got %d", collector.cardinalityLimiter.Count())
	}
}

func TestCardinalityLimiter(t *testing.T) {
	limiter := NewCardinalityLimiter(3)

	for _, label := range []string{"a", "b", "c"} {
		if !limiter.Allow(label) {
			t.Errorf("Expected %q to be allowed", label)
		}
	}
	if limiter.Allow("d") {
		t.Error("Expected limit to be enforced")
	}
	if !limiter.Allow("a") {
		t.Error("Expected existing label to be allowed")
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordHTTPRequest("/text", 200, time.Second)

	srv := httptest.NewServer(collector.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("Failed to scrape: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `test_http_requests_total{route="/text",status="200"} 1`) {
		t.Errorf("Expected request counter in exposition, got:\n%s", body)
	}
}
