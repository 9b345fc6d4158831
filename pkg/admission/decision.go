package admission

import "time"

// Verdict classifies the outcome of an admission check.
type Verdict string

// Admission verdicts, in the order the checks run.
const (
	// VerdictAllowed admits the request with no special standing.
	VerdictAllowed Verdict = "allowed"

	// VerdictWhitelisted admits the request because the source IP is
	// whitelisted. Whitelisted sources skip every other check.
	VerdictWhitelisted Verdict = "whitelisted"

	// VerdictBlacklisted denies the request because the source IP is
	// blacklisted. No block record is created; the list itself is the ban.
	VerdictBlacklisted Verdict = "blacklisted"

	// VerdictBlocked denies the request because an unexpired block record
	// exists for the source IP.
	VerdictBlocked Verdict = "blocked"

	// VerdictRateLimited denies the request because the per-IP token
	// bucket is exhausted or the request body exceeds the size limit.
	VerdictRateLimited Verdict = "rate_limited"

	// VerdictGloballyLimited denies the request because the shared global
	// token bucket is exhausted.
	VerdictGloballyLimited Verdict = "globally_limited"

	// VerdictTooManyConnections denies the request because the source IP
	// holds more concurrent connections than the configured ceiling.
	VerdictTooManyConnections Verdict = "too_many_connections"
)

// BlockReason names why a block record was created.
type BlockReason string

// Block reasons.
const (
	ReasonRateLimitExceeded  BlockReason = "rate_limit_exceeded"
	ReasonRequestTooLarge    BlockReason = "request_too_large"
	ReasonTooManyConnections BlockReason = "too_many_connections"
	ReasonDDoSDetection      BlockReason = "ddos_detection"
)

// Decision is the outcome of one admission check. Denials are ordinary
// traffic conditions, not errors, so they travel as values.
type Decision struct {
	// Verdict classifies the outcome.
	Verdict Verdict

	// RetryAfter hints how long the client should wait before retrying.
	// Zero for admitted requests and for verdicts without a hint.
	RetryAfter time.Duration

	// Reason is set for VerdictBlocked and names why the block record
	// was created.
	Reason BlockReason
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool {
	return d.Verdict == VerdictAllowed || d.Verdict == VerdictWhitelisted
}
