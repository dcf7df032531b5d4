// Package server assembles the gateway: it builds the process-scoped
// components from configuration, routes the HTTP endpoints and manages the
// server lifecycle.
//
// # Components
//
// NewComponents builds, in order:
//   - metrics collector and tracer
//   - the OpenAI-compatible upstream adapter
//   - the rate-limit store (memory or redis) and fixed-window limiter
//   - the usage store (memory or sqlite), async recorder and retention pruner
//   - the dispatcher that ties them together
//
// The idle-window sweep and usage retention run on the shared scheduler,
// which starts with the server.
//
// # Basic Usage
//
//	cfg := config.GetConfig()
//	components, err := server.NewComponents(ctx, cfg, version)
//	if err != nil {
//	    return err
//	}
//	srv := server.NewServer(cfg, components, version)
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//
// Start blocks until ctx is cancelled and then shuts down gracefully:
// in-flight requests get server.shutdown_timeout to finish, after which the
// recorder drains and every store is closed.
package server
