// Package health implements the liveness and readiness probes.
//
// Liveness answers 200 as long as the process serves HTTP. Readiness runs
// the registered checks concurrently, each bounded by a timeout, and
// answers 503 when any of them fails:
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.Register("upstream", health.ProviderCheck(provider))
//	checker.Register("rate_store", health.PingCheck("redis", store))
//
//	mux.Handle("GET /health", checker.LivenessHandler())
//	mux.Handle("GET /ready", checker.ReadinessHandler())
//
// Provider checks read the health the adapter derives from the outcome of
// recent calls; a readiness hit never sends a request upstream.
package health
