// Package handlers implements the gateway's HTTP endpoints.
//
// # Routes
//
//	POST /chat              single message chat completion
//	POST /text              legacy text completion
//	POST /conversation      chat completion with prior history
//	POST /advanced/stream   chat completion relayed as Server-Sent Events
//	GET  /advanced/models   supported model catalog
//	GET  /                  service info
//
// Handlers decode the body, hand a gateway.Request to the dispatcher and
// format the outcome. Validation, rate limiting and upstream error mapping
// all happen in the dispatcher; handlers only translate its results to
// HTTP through the proxy package.
//
// # Usage
//
//	h := handlers.New(dispatcher, handlers.Config{
//	    MaxBodyBytes: cfg.Server.MaxBodyBytes,
//	    Version:      version,
//	})
//	mux.Handle("POST /chat", h.Completion(gateway.RouteChat))
//	mux.Handle("POST /advanced/stream", h.Stream())
package handlers
