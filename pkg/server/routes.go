package server

import (
	"net/http"

	"mercator-hq/gateway/pkg/gateway"
	"mercator-hq/gateway/pkg/proxy/handlers"
	"mercator-hq/gateway/pkg/proxy/middleware"
	"mercator-hq/gateway/pkg/telemetry/tracing"
)

// Paths of the routes that are not completion routes.
const (
	PathInfo   = "/"
	PathHealth = "/health"
	PathReady  = "/ready"
	PathModels = "/advanced/models"
)

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	c := s.components

	h := handlers.New(c.Dispatcher, handlers.Config{
		MaxBodyBytes: s.config.Server.MaxBodyBytes,
		Version:      s.version,
	})
	timeout := middleware.TimeoutMiddleware(s.config.Server.RequestTimeout)

	for _, route := range []gateway.Route{gateway.RouteChat, gateway.RouteText, gateway.RouteConversation} {
		s.handle(mux, http.MethodPost, string(route), timeout(h.Completion(route)))
	}
	s.handle(mux, http.MethodPost, string(gateway.RouteStream), h.Stream())
	s.handle(mux, http.MethodGet, PathModels, h.Models())

	s.handle(mux, http.MethodGet, PathHealth, c.Health.LivenessHandler())
	s.handle(mux, http.MethodGet, PathReady, c.Health.ReadinessHandler())
	if c.Metrics != nil {
		mux.Handle(http.MethodGet+" "+s.config.Telemetry.Metrics.Path, c.Metrics.Handler())
	}

	// "/{$}" matches only the root, not every unregistered path.
	mux.Handle(http.MethodGet+" /{$}", middleware.MetricsMiddleware(c.Metrics, PathInfo)(h.Info()))

	var handler http.Handler = mux
	handler = tracing.HTTPMiddleware(handler)
	handler = middleware.CORSMiddleware(&s.config.Server.CORS)(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ClientMiddleware(s.config.Server.TrustForwardedFor)(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}

func (s *Server) handle(mux *http.ServeMux, method, path string, h http.Handler) {
	mux.Handle(method+" "+path, middleware.MetricsMiddleware(s.components.Metrics, path)(h))
}
