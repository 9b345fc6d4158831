package proxy

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"stratos-hq/charon/pkg/admission"
	"stratos-hq/charon/pkg/upstream"
)

// ErrorResponse is the JSON envelope for every error the data plane
// produces itself. Upstream error bodies are relayed untouched; this
// envelope only appears when Charon answers on its own behalf.
type ErrorResponse struct {
	// Error contains the error details.
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Status is the HTTP status code, repeated in the body so clients
	// reading only the payload see it too.
	Status int `json:"status"`

	// Reason is a machine-readable cause (e.g. "rate_limited",
	// "no_healthy_upstream"). Empty when the status says it all.
	Reason string `json:"reason,omitempty"`
}

// WriteError writes a JSON error envelope with the given status.
func WriteError(w http.ResponseWriter, status int, message, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Status:  status,
			Reason:  reason,
		},
	})
}

// writeDenial answers a denied admission decision. Rate-class verdicts
// get 429 with a Retry-After hint, blacklisted sources get 403, and
// connection-ceiling denials get 503.
func writeDenial(w http.ResponseWriter, d admission.Decision) {
	status := denialStatus(d.Verdict)

	if d.RetryAfter > 0 {
		seconds := int(math.Ceil(d.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	reason := string(d.Verdict)
	if d.Reason != "" {
		reason = string(d.Reason)
	}

	WriteError(w, status, denialMessage(d.Verdict), reason)
}

// denialStatus maps an admission verdict onto an HTTP status.
func denialStatus(v admission.Verdict) int {
	switch v {
	case admission.VerdictBlacklisted:
		return http.StatusForbidden
	case admission.VerdictTooManyConnections:
		return http.StatusServiceUnavailable
	default:
		// Blocked, RateLimited, GloballyLimited
		return http.StatusTooManyRequests
	}
}

// denialMessage renders a client-facing message for a denied verdict.
// Messages stay generic; the journal keeps the detail.
func denialMessage(v admission.Verdict) string {
	switch v {
	case admission.VerdictBlacklisted:
		return "Access denied."
	case admission.VerdictTooManyConnections:
		return "Too many open connections from your address."
	case admission.VerdictGloballyLimited:
		return "The service is at capacity. Please retry later."
	default:
		return "Too many requests. Please retry later."
	}
}

// writeUpstreamError answers a failed forward. Timeouts become 504,
// everything else 502.
func writeUpstreamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, upstream.ErrNoHealthyUpstream):
		WriteError(w, http.StatusBadGateway, "No healthy upstream available.", "no_healthy_upstream")
	case errors.Is(err, upstream.ErrConnectionTimeout):
		WriteError(w, http.StatusGatewayTimeout, "The upstream did not respond in time.", "upstream_timeout")
	case errors.Is(err, upstream.ErrConnectionFailed):
		WriteError(w, http.StatusBadGateway, "Could not connect to the upstream.", "connection_failed")
	default:
		WriteError(w, http.StatusBadGateway, "The upstream is unavailable.", "upstream_unavailable")
	}
}
