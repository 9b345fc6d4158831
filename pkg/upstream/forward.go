package upstream

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"stratos-hq/charon/pkg/telemetry/tracing"
)

// hopByHopHeaders describe the client connection, not the end-to-end
// request, and are stripped before forwarding.
var hopByHopHeaders = []string{
	"Connection",
	"Upgrade",
	"Proxy-Authorization",
	"Proxy-Authenticate",
	"Te",
	"Trailer",
	"Transfer-Encoding",
}

// Forward selects a member for pool and relays the request to it. The
// returned response streams the upstream body; the caller must close it.
// The member's active-connection count stays raised until the body is
// closed, so least-connections selection sees bodies still in flight.
//
// Failures come back as *ForwardError wrapping one of the sentinel
// errors; selection misses come back as *NoHealthyUpstreamError.
func (m *Manager) Forward(ctx context.Context, r *http.Request, pool string) (*http.Response, error) {
	member, err := m.Select(pool)
	if err != nil {
		return nil, err
	}

	m.totalRequests.Add(1)
	member.totalRequests.Add(1)
	member.activeConns.Add(1)
	if m.collector != nil {
		m.collector.UpdateUpstreamActive(member.name, member.activeConns.Load())
	}

	out, err := m.outboundRequest(ctx, r, member)
	if err != nil {
		m.finishForward(member)
		return nil, &ForwardError{Member: member.name, Addr: member.Addr(), Kind: ErrUpstreamUnavailable, Cause: err}
	}

	start := time.Now()
	resp, err := m.client.Do(out)
	duration := time.Since(start)

	if err != nil {
		m.finishForward(member)
		kind := classifyForwardError(err)
		if m.collector != nil {
			m.collector.RecordUpstreamRequest(member.name, outcomeName(kind), duration)
		}
		m.logger.Warn("forward failed",
			"upstream", member.name,
			"addr", member.Addr(),
			"error", err,
		)
		return nil, &ForwardError{Member: member.name, Addr: member.Addr(), Kind: kind, Cause: err}
	}

	if m.collector != nil {
		m.collector.RecordUpstreamRequest(member.name, "success", duration)
	}

	// Upstream HTTP errors are relayed as-is; only transport failures
	// count against the member.
	resp.Body = &forwardBody{ReadCloser: resp.Body, finish: func() { m.finishForward(member) }}
	return resp, nil
}

// outboundRequest builds the upstream request: same method, path, and
// query against the member's address, headers minus hop-by-hop, plus the
// client appended to X-Forwarded-For and the active trace context in
// W3C headers.
func (m *Manager) outboundRequest(ctx context.Context, r *http.Request, member *Member) (*http.Request, error) {
	target := *r.URL
	target.Scheme = "http"
	target.Host = member.Addr()

	out, err := http.NewRequestWithContext(ctx, r.Method, target.String(), r.Body)
	if err != nil {
		return nil, err
	}
	out.ContentLength = r.ContentLength

	copyEndToEndHeaders(out.Header, r.Header)
	appendForwardedFor(out.Header, clientIP(r.RemoteAddr))
	tracing.Inject(ctx, out.Header)

	return out, nil
}

func (m *Manager) finishForward(member *Member) {
	member.activeConns.Add(-1)
	if m.collector != nil {
		m.collector.UpdateUpstreamActive(member.name, member.activeConns.Load())
	}
}

// forwardBody releases the member's active-connection slot when the
// relayed response body is closed.
type forwardBody struct {
	io.ReadCloser
	once   sync.Once
	finish func()
}

func (b *forwardBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(b.finish)
	return err
}

// copyEndToEndHeaders copies src into dst, skipping hop-by-hop headers.
func copyEndToEndHeaders(dst, src http.Header) {
	for name, values := range src {
		if isHopByHop(name) {
			continue
		}
		for _, v := range values {
			dst.Add(name, v)
		}
	}
}

func isHopByHop(name string) bool {
	for _, h := range hopByHopHeaders {
		if strings.EqualFold(name, h) {
			return true
		}
	}
	return false
}

// appendForwardedFor adds the client IP to X-Forwarded-For, preserving
// any chain built by proxies in front of us.
func appendForwardedFor(h http.Header, client string) {
	if client == "" {
		return
	}
	if prior := h.Get("X-Forwarded-For"); prior != "" {
		h.Set("X-Forwarded-For", prior+", "+client)
		return
	}
	h.Set("X-Forwarded-For", client)
}

// clientIP extracts the bare IP from a RemoteAddr host:port.
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// classifyForwardError maps a transport error onto a sentinel.
func classifyForwardError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return ErrConnectionTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrConnectionTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return ErrConnectionFailed
	}

	return ErrUpstreamUnavailable
}

// outcomeName renders a sentinel as a metrics label value.
func outcomeName(kind error) string {
	switch kind {
	case ErrConnectionTimeout:
		return "timeout"
	case ErrConnectionFailed:
		return "connection_failed"
	default:
		return "error"
	}
}
