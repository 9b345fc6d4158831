package admin

import (
	"crypto/subtle"
	"net/http"
)

// AdminKeyHeader carries the API key on guarded endpoints.
const AdminKeyHeader = "X-Admin-Key"

// requireKey wraps a handler with API key authentication. With no key
// configured the handler is served openly; the loopback bind is the
// boundary then. The comparison is constant time so a caller cannot
// probe the key byte by byte.
func (s *Server) requireKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := s.config.APIKey
		if key == "" {
			next(w, r)
			return
		}

		got := r.Header.Get(AdminKeyHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			s.logger.Warn("admin key rejected",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			writeJSON(w, http.StatusUnauthorized, Response{
				Success: false,
				Message: "missing or invalid admin key",
			})
			return
		}

		next(w, r)
	}
}
