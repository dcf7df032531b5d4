// Package gateway is the request dispatcher between the HTTP handlers and
// the upstream adapter.
//
// Each request moves through a checked lifecycle:
//
//	Received -> Validated -> RateChecked -> Admitted -> Dispatched -> Completed
//	                                     \-> Rejected               \-> Failed
//
// Validation failures never reach the rate limiter or the upstream. Every
// validated request costs exactly one limiter check. Adapter and relay
// failures are reduced to a Kind with a caller-safe message; the original
// error stays in Error.Cause for logs and spans.
//
// Non-streaming routes call Complete. The stream route calls OpenStream and
// then Session.Relay with a sink that writes Server-Sent Events:
//
//	session, err := dispatcher.OpenStream(ctx, req)
//	if err != nil {
//	    writeError(w, gateway.As(err))
//	    return
//	}
//	_, err = session.Relay(ctx, sink)
//
// Each finished request is counted in metrics, closes its span, is logged
// without message content and is handed to the usage recorder.
package gateway
