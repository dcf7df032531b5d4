package proxy

import (
	"mercator-hq/gateway/pkg/gateway"
	"mercator-hq/gateway/pkg/proxy/types"
)

// HandleError reduces err to the gateway taxonomy and returns the response
// body and status code. Errors that are not *gateway.Error are internal.
func HandleError(err error) (*types.ErrorResponse, int) {
	gerr := gateway.As(err)
	if gerr == nil {
		gerr = gateway.NewInternalError(err)
	}
	resp := types.NewErrorResponse(string(gerr.Kind), gerr.Message, gerr.Param, 0)
	if gerr.RetryAfter > 0 {
		resp.Error.RetryAfter = gerr.RetryAfterSeconds()
	}
	return resp, statusOf(gerr)
}

func statusOf(gerr *gateway.Error) int {
	if gerr.Canceled() {
		return gateway.StatusClientClosed
	}
	return gerr.StatusCode()
}
