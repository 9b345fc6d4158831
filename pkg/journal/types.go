package journal

import (
	"context"
	"time"
)

// Kind classifies a journal event.
type Kind string

// Event kinds written by the engine. The journal is append-only and
// never read back into engine state; a restart starts from an empty
// blocklist regardless of what the journal holds.
const (
	// KindAdmissionDenied records a request refused at the door.
	KindAdmissionDenied Kind = "admission_denied"

	// KindIPBlocked records a source IP entering the blocklist.
	KindIPBlocked Kind = "ip_blocked"

	// KindIPUnblocked records a manual unblock via the admin API.
	KindIPUnblocked Kind = "ip_unblocked"

	// KindUpstreamUnhealthy records a pool member leaving rotation.
	KindUpstreamUnhealthy Kind = "upstream_unhealthy"

	// KindUpstreamRecovered records a pool member re-entering rotation.
	KindUpstreamRecovered Kind = "upstream_recovered"

	// KindConfigReloaded records a successful configuration reload.
	KindConfigReloaded Kind = "config_reloaded"
)

// Event is a single journal entry. Only ID, Time, and Kind are always
// set; the remaining fields depend on the kind.
type Event struct {
	// Identity
	ID   string    `json:"id"`   // UUID v4
	Time time.Time `json:"time"` // When the event occurred
	Kind Kind      `json:"kind"` // Event classification

	// Admission events
	SourceIP          string `json:"source_ip,omitempty"`           // Client address
	Reason            string `json:"reason,omitempty"`              // Denial or block reason
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"` // Hint sent to the client

	// Upstream and routing events
	Upstream string `json:"upstream,omitempty"` // Pool member name
	Route    string `json:"route,omitempty"`    // Matched route path

	// Free-form context (config path on reload, fail counts, ...)
	Detail string `json:"detail,omitempty"`
}

// Query defines filter parameters for listing journal events.
type Query struct {
	// Time range (inclusive)
	Since *time.Time `json:"since,omitempty"`
	Until *time.Time `json:"until,omitempty"`

	// Filters
	Kind     Kind   `json:"kind,omitempty"`      // Filter by event kind
	SourceIP string `json:"source_ip,omitempty"` // Filter by client address

	// Pagination. Results are newest-first; Limit defaults to 100.
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// Storage defines the interface for journal storage backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Append persists one event.
	Append(ctx context.Context, event *Event) error

	// List retrieves events matching the query, newest first.
	// Returns an empty slice if no events match.
	List(ctx context.Context, query *Query) ([]*Event, error)

	// Count returns the number of events matching the query.
	Count(ctx context.Context, query *Query) (int64, error)

	// PruneBefore deletes events older than the cutoff and returns the
	// number removed. Used for age-based retention.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Trim deletes the oldest events until at most max remain and
	// returns the number removed. Used for count-based retention.
	Trim(ctx context.Context, max int64) (int64, error)

	// Close releases any resources held by the storage backend.
	Close() error
}
