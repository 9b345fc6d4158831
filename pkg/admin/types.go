package admin

import (
	"encoding/json"
	"net/http"

	"stratos-hq/charon/pkg/admission"
	"stratos-hq/charon/pkg/upstream"
)

// Response is the envelope every /admin and /status endpoint returns.
// Data carries the payload on success; Message explains a failure.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// Status describes the running process, served by GET /status.
type Status struct {
	// Status is always "running"; a stopped process cannot answer.
	Status string `json:"status"`

	// UptimeSeconds is the time since the admin server started.
	UptimeSeconds int64 `json:"uptime_seconds"`

	// Version is the build version string.
	Version string `json:"version"`

	// GoVersion is the Go runtime that built the binary.
	GoVersion string `json:"go_version"`
}

// Stats aggregates engine statistics, served by GET /admin/stats.
type Stats struct {
	// Upstreams is the pool snapshot: totals plus per-member state.
	Upstreams upstream.Stats `json:"upstreams"`

	// Admission is the controller snapshot: blocked and tracked sources.
	Admission admission.Stats `json:"admission"`

	// Routes is the number of entries in the route table.
	Routes int `json:"routes"`

	// UptimeSeconds is the time since the admin server started.
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// UnblockRequest is the body of POST /admin/unblock.
type UnblockRequest struct {
	IP string `json:"ip"`
}

// UnblockResult reports the outcome of an unblock call.
type UnblockResult struct {
	IP      string `json:"ip"`
	Removed bool   `json:"removed"`
}

// writeJSON writes an envelope with the given HTTP status.
func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeMethodNotAllowed rejects a request with the wrong verb.
func writeMethodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, Response{
		Success: false,
		Message: "method not allowed",
	})
}
