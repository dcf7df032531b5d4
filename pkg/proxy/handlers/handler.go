package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"mercator-hq/gateway/pkg/gateway"
	"mercator-hq/gateway/pkg/providers"
	"mercator-hq/gateway/pkg/proxy"
	"mercator-hq/gateway/pkg/proxy/types"
	"mercator-hq/gateway/pkg/telemetry/logging"
)

// modelsNote accompanies the model listing.
const modelsNote = "Availability depends on your OpenAI API access level"

// Dispatcher runs admitted requests against the upstream.
// *gateway.Dispatcher implements it.
type Dispatcher interface {
	Complete(ctx context.Context, req *gateway.Request) (*gateway.Completion, error)
	OpenStream(ctx context.Context, req *gateway.Request) (*gateway.Session, error)
	Models() providers.ModelCatalog
}

// Config configures the handlers.
type Config struct {
	// MaxBodyBytes bounds request bodies. Default: proxy.DefaultMaxBodyBytes
	MaxBodyBytes int64

	// Version is reported by the info endpoint.
	Version string
}

// Handler serves the gateway's HTTP routes.
type Handler struct {
	dispatcher Dispatcher
	config     Config
}

// New creates a handler set over d.
func New(d Dispatcher, cfg Config) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = proxy.DefaultMaxBodyBytes
	}
	return &Handler{dispatcher: d, config: cfg}
}

// Completion serves a buffered completion route: /chat, /text or
// /conversation.
func (h *Handler) Completion(route gateway.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		req, err := h.decode(w, r, route)
		if err != nil {
			proxy.WriteError(w, r, err)
			return
		}

		completion, err := h.dispatcher.Complete(ctx, req)
		if err != nil {
			proxy.WriteError(w, r, err)
			return
		}

		proxy.SetRateLimitHeaders(w.Header(), completion.Decision)
		if err := proxy.WriteJSONResponse(w, http.StatusOK, proxy.FormatCompletionResponse(completion)); err != nil {
			slog.ErrorContext(ctx, "failed to write response",
				"route", string(route),
				"error", err,
			)
		}
	}
}

// Stream serves /advanced/stream as Server-Sent Events. Errors before the
// first frame are answered with a JSON error body; later failures end the
// stream with an error event.
func (h *Handler) Stream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		req, err := h.decode(w, r, gateway.RouteStream)
		if err != nil {
			proxy.WriteError(w, r, err)
			return
		}

		session, err := h.dispatcher.OpenStream(ctx, req)
		if err != nil {
			proxy.WriteError(w, r, err)
			return
		}

		proxy.SetRateLimitHeaders(w.Header(), session.Decision)
		sink, err := proxy.NewSSEWriter(w)
		if err != nil {
			if cerr := session.Close(); cerr != nil {
				slog.DebugContext(ctx, "failed to close upstream stream", "error", cerr)
			}
			proxy.WriteError(w, r, gateway.NewInternalError(err))
			return
		}

		summary, err := session.Relay(ctx, sink)
		if err != nil {
			slog.DebugContext(ctx, "stream ended early",
				"chunks", summary.Chunks,
				"error", err,
			)
		}
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, route gateway.Route) (*gateway.Request, error) {
	body, err := proxy.DecodeCompletionRequest(w, r, h.config.MaxBodyBytes)
	if err != nil {
		return nil, err
	}
	ctx := r.Context()
	return proxy.ToGatewayRequest(route, body, logging.GetClient(ctx), logging.GetRequestID(ctx)), nil
}

// Info serves GET / with the service description.
func (h *Handler) Info() http.HandlerFunc {
	resp := &types.InfoResponse{
		Status:  "success",
		Message: "LLM gateway is running",
		Version: h.config.Version,
		Endpoints: map[string]string{
			"health":       "GET /health",
			"ready":        "GET /ready",
			"metrics":      "GET /metrics",
			"chat":         "POST " + string(gateway.RouteChat),
			"text":         "POST " + string(gateway.RouteText),
			"conversation": "POST " + string(gateway.RouteConversation),
			"stream":       "POST " + string(gateway.RouteStream),
			"models":       "GET /advanced/models",
		},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if err := proxy.WriteJSONResponse(w, http.StatusOK, resp); err != nil {
			slog.ErrorContext(r.Context(), "failed to write response", "error", err)
		}
	}
}

// Models serves GET /advanced/models.
func (h *Handler) Models() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalog := h.dispatcher.Models()
		resp := &types.ModelsResponse{
			ChatModels: nonNil(catalog.Chat),
			TextModels: nonNil(catalog.Text),
			Note:       modelsNote,
		}
		if err := proxy.WriteJSONResponse(w, http.StatusOK, resp); err != nil {
			slog.ErrorContext(r.Context(), "failed to write response", "error", err)
		}
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
