package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"regpulse/pkg/requestcontext"
)

// RequestID assigns each request a correlation ID, honoring one supplied by
// the caller, and captures a request-scoped "now" so all timestamps within
// one request agree.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithTime(ctx, time.Now())

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
