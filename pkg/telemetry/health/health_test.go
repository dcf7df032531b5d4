package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakeProvider struct {
	name string
	err  error
}

func (f fakeProvider) Name() string                      { return f.name }
func (f fakeProvider) HealthCheck(context.Context) error { return f.err }

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{"default timeout", 0, defaultCheckTimeout},
		{"negative timeout", -time.Second, defaultCheckTimeout},
		{"custom timeout", 10 * time.Second, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.timeout)
			if c.checkTimeout != tt.want {
				t.Errorf("expected timeout %v, got %v", tt.want, c.checkTimeout)
			}
			if len(c.Names()) != 0 {
				t.Errorf("expected no checks, got %v", c.Names())
			}
		})
	}
}

func TestRegister(t *testing.T) {
	c := New(time.Second)
	c.Register("upstream", func(context.Context) error { return nil })
	c.Register("rate_store", func(context.Context) error { return nil })
	c.Register("upstream", func(context.Context) error { return errors.New("replaced") })

	names := c.Names()
	if len(names) != 2 || names[0] != "rate_store" || names[1] != "upstream" {
		t.Fatalf("expected sorted names [rate_store upstream], got %v", names)
	}

	report := c.Readiness(context.Background())
	if report.Checks["upstream"].Message != "replaced" {
		t.Errorf("expected replaced check to run, got %+v", report.Checks["upstream"])
	}
}

func TestLiveness(t *testing.T) {
	c := New(time.Second)
	c.Register("broken", func(context.Context) error { return errors.New("down") })

	report := c.Liveness(context.Background())
	if report.Status != StatusOK {
		t.Errorf("expected liveness ok regardless of checks, got %q", report.Status)
	}
	if report.Checks != nil {
		t.Errorf("expected liveness to run no checks, got %v", report.Checks)
	}
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus string
		wantReady  bool
	}{
		{
			name:       "no checks",
			checks:     nil,
			wantStatus: StatusReady,
			wantReady:  true,
		},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"upstream":   ProviderCheck(fakeProvider{name: "openai"}),
				"rate_store": PingCheck("redis", fakePinger{}),
			},
			wantStatus: StatusReady,
			wantReady:  true,
		},
		{
			name: "provider unhealthy",
			checks: map[string]CheckFunc{
				"upstream":   ProviderCheck(fakeProvider{name: "openai", err: errors.New("3 consecutive failures")}),
				"rate_store": PingCheck("redis", fakePinger{}),
			},
			wantStatus: StatusDegraded,
			wantReady:  false,
		},
		{
			name: "store unreachable",
			checks: map[string]CheckFunc{
				"rate_store": PingCheck("redis", fakePinger{err: errors.New("connection refused")}),
			},
			wantStatus: StatusDegraded,
			wantReady:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(time.Second)
			for name, check := range tt.checks {
				c.Register(name, check)
			}

			report := c.Readiness(context.Background())
			if report.Status != tt.wantStatus {
				t.Errorf("expected status %q, got %q", tt.wantStatus, report.Status)
			}
			if report.Ready() != tt.wantReady {
				t.Errorf("expected Ready() = %v", tt.wantReady)
			}
			if len(report.Checks) != len(tt.checks) {
				t.Errorf("expected %d results, got %d", len(tt.checks), len(report.Checks))
			}
		})
	}
}

func TestReadiness_CheckMessages(t *testing.T) {
	c := New(time.Second)
	c.Register("upstream", ProviderCheck(fakeProvider{name: "openai", err: errors.New("unhealthy")}))
	c.Register("rate_store", PingCheck("redis", fakePinger{err: errors.New("refused")}))

	report := c.Readiness(context.Background())
	if got := report.Checks["upstream"].Message; got != "provider openai: unhealthy" {
		t.Errorf("unexpected provider message %q", got)
	}
	if got := report.Checks["rate_store"].Message; got != "redis ping failed: refused" {
		t.Errorf("unexpected ping message %q", got)
	}
}

func TestReadiness_Timeout(t *testing.T) {
	c := New(20 * time.Millisecond)
	release := make(chan struct{})
	defer close(release)

	c.Register("stuck", func(context.Context) error {
		<-release
		return nil
	})
	c.Register("fast", func(context.Context) error { return nil })

	start := time.Now()
	report := c.Readiness(context.Background())
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("readiness blocked for %v", elapsed)
	}

	if report.Checks["stuck"].Message != ErrCheckTimeout.Error() {
		t.Errorf("expected timeout message, got %+v", report.Checks["stuck"])
	}
	if report.Checks["fast"].Status != StatusOK {
		t.Errorf("expected fast check ok, got %+v", report.Checks["fast"])
	}
}

func TestReadiness_Concurrent(t *testing.T) {
	c := New(time.Second)
	for _, name := range []string{"a", "b", "c", "d"} {
		c.Register(name, func(ctx context.Context) error {
			time.Sleep(50 * time.Millisecond)
			return nil
		})
	}

	start := time.Now()
	c.Readiness(context.Background())
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Errorf("expected checks to run concurrently, took %v", elapsed)
	}
}

func TestLivenessHandler(t *testing.T) {
	c := New(time.Second)
	c.Register("broken", func(context.Context) error { return errors.New("down") })
	handler := c.LivenessHandler()

	tests := []struct {
		method     string
		wantStatus int
		wantBody   bool
	}{
		{http.MethodGet, http.StatusOK, true},
		{http.MethodHead, http.StatusOK, false},
		{http.MethodPost, http.StatusMethodNotAllowed, true},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler(rec, httptest.NewRequest(tt.method, "/health", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if (rec.Body.Len() > 0) != tt.wantBody {
				t.Errorf("unexpected body %q", rec.Body.String())
			}
		})
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
		wantReport string
	}{
		{"ready", nil, http.StatusOK, StatusReady},
		{"degraded", errors.New("refused"), http.StatusServiceUnavailable, StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(time.Second)
			c.Register("rate_store", PingCheck("redis", fakePinger{err: tt.pingErr}))

			rec := httptest.NewRecorder()
			c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
				t.Errorf("unexpected content type %q", ct)
			}

			var report Report
			if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if report.Status != tt.wantReport {
				t.Errorf("expected report status %q, got %q", tt.wantReport, report.Status)
			}
			if _, ok := report.Checks["rate_store"]; !ok {
				t.Error("expected rate_store check in report")
			}
		})
	}
}
