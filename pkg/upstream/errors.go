package upstream

import (
	"errors"
	"fmt"
)

// Sentinel errors for upstream selection and forwarding. Callers match
// them with errors.Is to choose a response status.
var (
	// ErrNoHealthyUpstream indicates selection found no usable member.
	ErrNoHealthyUpstream = errors.New("no healthy upstream available")

	// ErrConnectionTimeout indicates the forward deadline elapsed before
	// the upstream produced response headers.
	ErrConnectionTimeout = errors.New("upstream connection timed out")

	// ErrConnectionFailed indicates the upstream could not be dialed.
	ErrConnectionFailed = errors.New("upstream connection failed")

	// ErrUpstreamUnavailable indicates any other transport failure while
	// talking to the upstream.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// NoHealthyUpstreamError reports a selection that found no healthy member.
type NoHealthyUpstreamError struct {
	// Pool is the requested pool name; "" or "*" means any member.
	Pool string

	// Members is the number of configured members.
	Members int
}

func (e *NoHealthyUpstreamError) Error() string {
	if e.Pool != "" && e.Pool != "*" {
		return fmt.Sprintf("no healthy upstream available in pool %q (%d members configured)", e.Pool, e.Members)
	}
	return fmt.Sprintf("no healthy upstream available (%d members configured)", e.Members)
}

// Is makes the error match ErrNoHealthyUpstream.
func (e *NoHealthyUpstreamError) Is(target error) bool {
	return target == ErrNoHealthyUpstream
}

// ForwardError wraps a transport failure while forwarding to a specific
// member.
type ForwardError struct {
	// Member is the member name.
	Member string

	// Addr is the member's host:port.
	Addr string

	// Kind is the sentinel classifying the failure: ErrConnectionTimeout,
	// ErrConnectionFailed, or ErrUpstreamUnavailable.
	Kind error

	// Cause is the underlying transport error.
	Cause error
}

func (e *ForwardError) Error() string {
	return fmt.Sprintf("forward to %s (%s): %v", e.Member, e.Addr, e.Cause)
}

// Is makes the error match its Kind sentinel.
func (e *ForwardError) Is(target error) bool {
	return target == e.Kind
}

// Unwrap returns the underlying transport error.
func (e *ForwardError) Unwrap() error {
	return e.Cause
}
