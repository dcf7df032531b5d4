package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"mercator-hq/gateway/pkg/proxy"
	"mercator-hq/gateway/pkg/telemetry/logging"
)

// maxRequestIDLength bounds client-supplied request IDs.
const maxRequestIDLength = 128

// RequestIDMiddleware assigns each request an ID and stores it in the
// context for logging. A client-supplied X-Request-ID of sane length is
// reused; otherwise a UUID v4 is generated. The ID is echoed in the
// response header.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(proxy.RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}

		ctx := logging.WithRequestID(r.Context(), requestID)
		w.Header().Set(proxy.RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientMiddleware resolves the client identity used for rate limiting and
// stores it, with the request path, in the context. With trustForwarded the
// first X-Forwarded-For hop is used.
func ClientMiddleware(trustForwarded bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logging.WithClient(r.Context(), proxy.ClientIP(r, trustForwarded))
			ctx = logging.WithRoute(ctx, r.URL.Path)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
