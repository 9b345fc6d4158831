package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
)

// RequestIDHeader carries the request ID on requests and responses.
const RequestIDHeader = "X-Request-ID"

// maxInboundIDLength bounds client-supplied request IDs so an arbitrary
// header value cannot bloat every log line of the request.
const maxInboundIDLength = 64

// RequestIDMiddleware tags each request with an ID for log correlation.
// A client-supplied X-Request-ID is kept when it is reasonably sized;
// otherwise a fresh random ID is generated. The ID is stored in the
// request context and echoed on the response.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxInboundIDLength {
			id = newRequestID()
		}

		ctx := context.WithValue(r.Context(), RequestIDKey, id)
		w.Header().Set(RequestIDHeader, id)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// newRequestID returns 16 random bytes hex-encoded. crypto/rand does
// not fail on supported platforms, so the error is ignored.
func newRequestID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// GetRequestID returns the request ID stored by the middleware, or ""
// when the request never passed through it.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
