package testutil

import (
	"net/http"

	"regpulse/pkg/requestcontext"
)

// WithActor adds an authenticated actor to the request context, simulating
// what the auth middleware does for requests carrying a valid token.
func WithActor(req *http.Request, actor string) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// WithRequestID adds a request ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
