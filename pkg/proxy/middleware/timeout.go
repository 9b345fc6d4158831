package middleware

import (
	"context"
	"net/http"
	"time"
)

// TimeoutMiddleware attaches a deadline to every request context. The
// deadline propagates through the pipeline into the outbound forward,
// where an expired context surfaces as an upstream timeout and is
// answered with 504 by the destination handler.
//
// The middleware deliberately does not race the handler against a timer
// and write its own response: two writers on one ResponseWriter corrupt
// the reply. The context is the single timeout mechanism.
//
// Example usage:
//
//	handler = TimeoutMiddleware(60 * time.Second)(handler)
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
