// Package backendtest provides origin-server fixtures for exercising
// the proxy pipeline end to end. A Backend is a named httptest server
// that records what it receives, answers configurable responses per
// path, and can be flipped unhealthy to drive probe transitions.
package backendtest

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"stratos-hq/charon/pkg/config"
)

// Backend is one fake origin server.
type Backend struct {
	name   string
	server *httptest.Server

	mu        sync.Mutex
	responses map[string]Response
	requests  []CapturedRequest
	healthy   bool
}

// Response configures what a Backend answers on one path.
type Response struct {
	StatusCode int
	// Body may be a string, []byte, or any JSON-encodable value.
	Body    any
	Delay   time.Duration
	Headers map[string]string
}

// CapturedRequest is a copy of one request a Backend received.
type CapturedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// New starts a backend named name. The default behavior answers 200
// with a JSON body identifying the backend, so load-balancing tests can
// tell members apart. GET /health answers 200 until SetHealthy(false).
func New(name string) *Backend {
	b := &Backend{
		name:      name,
		responses: make(map[string]Response),
		healthy:   true,
	}
	b.server = httptest.NewServer(http.HandlerFunc(b.handler))
	return b
}

// Close shuts the backend down.
func (b *Backend) Close() {
	b.server.Close()
}

// Name returns the backend's name.
func (b *Backend) Name() string {
	return b.name
}

// URL returns the backend's base URL.
func (b *Backend) URL() string {
	return b.server.URL
}

// Host returns the backend's listen IP.
func (b *Backend) Host() string {
	host, _, _ := net.SplitHostPort(b.server.Listener.Addr().String())
	return host
}

// Port returns the backend's listen port.
func (b *Backend) Port() int {
	_, portStr, _ := net.SplitHostPort(b.server.Listener.Addr().String())
	port, _ := strconv.Atoi(portStr)
	return port
}

// UpstreamConfig returns a pool member entry pointing at this backend.
// MaxFails is set to 2 so probe-transition tests settle quickly.
func (b *Backend) UpstreamConfig(weight int) config.UpstreamConfig {
	return config.UpstreamConfig{
		Name:     b.name,
		Address:  b.Host(),
		Port:     b.Port(),
		Weight:   weight,
		MaxFails: 2,
	}
}

// SetResponse configures the response for one path, overriding the
// default echo behavior.
func (b *Backend) SetResponse(path string, resp Response) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.responses[path] = resp
}

// SetHealthy flips what GET /health answers: 200 when healthy, 503
// otherwise.
func (b *Backend) SetHealthy(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.healthy = ok
}

// RequestCount returns how many requests the backend has received,
// health probes included.
func (b *Backend) RequestCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

// Requests returns copies of every captured request.
func (b *Backend) Requests() []CapturedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]CapturedRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

// LastRequest returns the most recent captured request, or nil when the
// backend has not been hit.
func (b *Backend) LastRequest() *CapturedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return nil
	}
	req := b.requests[len(b.requests)-1]
	return &req
}

// Reset clears the captured requests.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = nil
}

func (b *Backend) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	b.mu.Lock()
	b.requests = append(b.requests, CapturedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
	resp, configured := b.responses[r.URL.Path]
	healthy := b.healthy
	b.mu.Unlock()

	if !configured && r.URL.Path == "/health" {
		if healthy {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"down"}`))
		}
		return
	}

	if !configured {
		b.writeEcho(w, r)
		return
	}

	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)

	switch v := resp.Body.(type) {
	case nil:
	case string:
		w.Write([]byte(v))
	case []byte:
		w.Write(v)
	default:
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeEcho answers the default response: the backend's name plus the
// request line, as JSON.
func (b *Backend) writeEcho(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"backend": b.name,
		"method":  r.Method,
		"path":    r.URL.Path,
	})
}

// EchoBody decodes the default echo response and returns the backend
// name it carries.
func EchoBody(body []byte) (string, error) {
	var echo struct {
		Backend string `json:"backend"`
	}
	if err := json.Unmarshal(body, &echo); err != nil {
		return "", err
	}
	return echo.Backend, nil
}

// Pool starts n backends named backend-1..backend-n. Close the returned
// cleanup when done.
func Pool(n int) ([]*Backend, func()) {
	backends := make([]*Backend, n)
	for i := range backends {
		backends[i] = New("backend-" + strconv.Itoa(i+1))
	}
	cleanup := func() {
		for _, b := range backends {
			b.Close()
		}
	}
	return backends, cleanup
}

// UpstreamConfigs builds pool member entries for a set of backends, all
// with weight 1.
func UpstreamConfigs(backends ...*Backend) []config.UpstreamConfig {
	configs := make([]config.UpstreamConfig, len(backends))
	for i, b := range backends {
		configs[i] = b.UpstreamConfig(1)
	}
	return configs
}
