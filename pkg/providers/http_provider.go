package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// maxErrorBody bounds how much of an upstream error body is read.
	maxErrorBody = 64 * 1024

	defaultUnhealthyThreshold = 3
)

// HTTPProvider is the base for HTTP-based provider adapters.
// It provides connection pooling, egress pacing, deadline handling, status
// mapping and passive health tracking. It never retries.
type HTTPProvider struct {
	config ProviderConfig
	client *http.Client

	// pacer is nil when pacing is disabled.
	pacer *rate.Limiter

	health   Health
	healthMu sync.RWMutex
}

// NewHTTPProvider creates a base HTTP provider with connection pooling.
func NewHTTPProvider(config ProviderConfig) *HTTPProvider {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	if config.UnhealthyThreshold <= 0 {
		config.UnhealthyThreshold = defaultUnhealthyThreshold
	}

	p := &HTTPProvider{
		config: config,
		// Deadlines come from the per-call context so streams are not cut
		// off by a client-wide timeout.
		client: &http.Client{Transport: transport},
		health: Health{
			IsHealthy:             true,
			LastCheck:             time.Now(),
			LastSuccessfulRequest: time.Now(),
		},
	}

	if config.RequestsPerSecond > 0 {
		burst := config.Burst
		if burst <= 0 {
			burst = 1
		}
		p.pacer = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}

	return p
}

// Name returns the provider's configured name.
func (p *HTTPProvider) Name() string {
	return p.config.Name
}

// Config returns the provider's configuration.
func (p *HTTPProvider) Config() ProviderConfig {
	return p.config
}

// Models returns the configured model catalog.
func (p *HTTPProvider) Models() ModelCatalog {
	return p.config.Models
}

// IsHealthy returns the current health status.
func (p *HTTPProvider) IsHealthy() bool {
	p.healthMu.RLock()
	defer p.healthMu.RUnlock()
	return p.health.IsHealthy
}

// Health returns detailed health information.
func (p *HTTPProvider) Health() Health {
	p.healthMu.RLock()
	defer p.healthMu.RUnlock()
	return p.health
}

// HealthCheck returns an error when the provider has crossed the
// consecutive failure threshold.
func (p *HTTPProvider) HealthCheck(context.Context) error {
	h := p.Health()
	if h.IsHealthy {
		return nil
	}
	return fmt.Errorf("provider %q unhealthy after %d consecutive failures: %v",
		p.config.Name, h.ConsecutiveFailures, h.LastError)
}

// RecordOutcome updates passive health after a call. Caller cancellations
// and local validation failures are not upstream faults and are ignored.
func (p *HTTPProvider) RecordOutcome(err error) {
	if err != nil && !isUpstreamFault(err) {
		return
	}

	p.healthMu.Lock()
	defer p.healthMu.Unlock()

	p.health.LastCheck = time.Now()
	p.health.TotalRequests++

	if err == nil {
		p.health.IsHealthy = true
		p.health.ConsecutiveFailures = 0
		p.health.LastError = nil
		p.health.LastSuccessfulRequest = p.health.LastCheck
		return
	}

	p.health.FailedRequests++
	p.health.ConsecutiveFailures++
	p.health.LastError = err

	if p.health.IsHealthy && p.health.ConsecutiveFailures >= p.config.UnhealthyThreshold {
		p.health.IsHealthy = false
		slog.Warn("provider marked unhealthy",
			"provider", p.config.Name,
			"consecutive_failures", p.health.ConsecutiveFailures,
			"error", err,
		)
	}
}

func isUpstreamFault(err error) bool {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

// DoRequest performs exactly one HTTP request. A 2xx response is returned
// with its body open; every other outcome is mapped to a typed error.
// timeout is the deadline the caller applied to ctx and is only used for
// error reporting.
func (p *HTTPProvider) DoRequest(ctx context.Context, method, url string, body []byte, headers map[string]string, timeout time.Duration) (*http.Response, error) {
	if p.pacer != nil {
		// Wait fails early when the delay would outlast the deadline.
		if err := p.pacer.Wait(ctx); err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil, ctx.Err()
			}
			return nil, &TimeoutError{Provider: p.config.Name, Timeout: timeout}
		}
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("Content-Type") == "" && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	slog.DebugContext(ctx, "sending request to provider",
		"provider", p.config.Name,
		"method", method,
		"url", url,
	)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, p.contextError(ctx, err, timeout)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
	message := truncate(string(errorBody), 512)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{
			Provider: p.config.Name,
			Message:  message,
		}

	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{
			Provider:   p.config.Name,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    message,
		}

	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusGatewayTimeout:
		return nil, &TimeoutError{
			Provider: p.config.Name,
			Timeout:  timeout,
		}

	default:
		return nil, &ProviderError{
			Provider:   p.config.Name,
			StatusCode: resp.StatusCode,
			Message:    message,
		}
	}
}

// contextError maps a transport or wait failure to a typed error.
func (p *HTTPProvider) contextError(ctx context.Context, err error, timeout time.Duration) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Provider: p.config.Name, Timeout: timeout}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Provider: p.config.Name, Timeout: timeout}
	}
	return &ProviderError{
		Provider: p.config.Name,
		Message:  "request failed",
		Cause:    err,
	}
}

// DoJSONRequest performs a JSON request and decodes a 2xx response into respBody.
func (p *HTTPProvider) DoJSONRequest(ctx context.Context, method, url string, reqBody, respBody interface{}, headers map[string]string, timeout time.Duration) error {
	var bodyBytes []byte
	if reqBody != nil {
		var err error
		bodyBytes, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := p.DoRequest(ctx, method, url, bodyBytes, headers, timeout)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	responseBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return p.contextError(ctx, err, timeout)
	}

	if respBody != nil {
		if err := json.Unmarshal(responseBytes, respBody); err != nil {
			return &ParseError{
				Provider:    p.config.Name,
				RawResponse: truncate(string(responseBytes), 512),
				Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
			}
		}
	}

	return nil
}

// Close closes idle pooled connections.
func (p *HTTPProvider) Close() error {
	p.client.CloseIdleConnections()
	slog.Info("provider closed", "provider", p.config.Name)
	return nil
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(header); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}

	return 0
}
