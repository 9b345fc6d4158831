// Package upstream manages the pool of backend members: selection by
// load-balancing method, request forwarding, background health probes,
// and per-member statistics.
//
// The member list is fixed at construction; changing it requires a
// restart. Member state (health, counters) lives in atomics, so the
// request path runs without locks.
package upstream

import (
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"stratos-hq/charon/pkg/config"
	"stratos-hq/charon/pkg/telemetry/metrics"
)

// HealthListener observes member health transitions. Callbacks run on
// the prober goroutine and must return quickly.
type HealthListener interface {
	// MemberUnhealthy is called when consecutive probe failures reach the
	// member's limit and it stops receiving traffic.
	MemberUnhealthy(name string, consecutiveFails int64)

	// MemberRecovered is called when a probe succeeds against a member
	// that was unhealthy.
	MemberRecovered(name string)
}

// Manager owns the upstream members and forwards requests to them.
// All methods are safe for concurrent use.
type Manager struct {
	members []*Member
	method  Method

	// counter drives round-robin and weighted selection.
	counter atomic.Uint64

	totalRequests atomic.Uint64

	client      *http.Client
	probeClient *http.Client

	healthMu  sync.RWMutex
	healthCfg config.HealthCheckConfig

	listener  HealthListener
	collector *metrics.Collector
	logger    *slog.Logger

	probeStopMu sync.Mutex
	probeStop   chan struct{}
	probeDone   chan struct{}
}

// NewManager builds a manager from the configured members. Members with
// enabled=false are left out of the pool.
func NewManager(
	upstreams []config.UpstreamConfig,
	lb config.LoadBalancingConfig,
	healthCfg config.HealthCheckConfig,
	forwardTimeout time.Duration,
) (*Manager, error) {
	method, err := ParseMethod(lb.Method)
	if err != nil {
		return nil, err
	}

	members := make([]*Member, 0, len(upstreams))
	for i := range upstreams {
		if !upstreams[i].IsEnabled() {
			continue
		}
		members = append(members, newMember(upstreams[i]))
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Manager{
		members: members,
		method:  method,
		client: &http.Client{
			Transport: transport,
			Timeout:   forwardTimeout,
			// Redirects are relayed to the client, never followed.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		probeClient: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		healthCfg: healthCfg,
		logger:    slog.Default().With("component", "upstream"),
	}, nil
}

// SetHealthListener registers a listener for health transitions. Call
// before StartHealthChecks.
func (m *Manager) SetHealthListener(l HealthListener) {
	m.listener = l
}

// SetMetrics attaches a metrics collector. Call before the manager
// starts serving traffic.
func (m *Manager) SetMetrics(collector *metrics.Collector) {
	m.collector = collector
}

// Select picks a member for the given pool name. A non-empty name other
// than "*" pins the request to that member while it is healthy; if the
// pinned member is missing or unhealthy, selection falls back to load
// balancing across all healthy members.
func (m *Manager) Select(pool string) (*Member, error) {
	if pool != "" && pool != "*" {
		for _, mem := range m.members {
			if mem.name == pool && mem.Healthy() {
				return mem, nil
			}
		}
	}

	healthy := make([]*Member, 0, len(m.members))
	for _, mem := range m.members {
		if mem.Healthy() {
			healthy = append(healthy, mem)
		}
	}
	if len(healthy) == 0 {
		return nil, &NoHealthyUpstreamError{Pool: pool, Members: len(m.members)}
	}

	return m.pick(healthy), nil
}

// Members returns the configured members in declaration order.
func (m *Manager) Members() []*Member {
	return m.members
}

// Stats is a point-in-time snapshot of the pool, served by the admin API.
type Stats struct {
	// TotalRequests counts every forward attempt since startup.
	TotalRequests uint64 `json:"total_requests"`

	// HealthyMembers is the number of members currently accepting traffic.
	HealthyMembers int `json:"healthy_members"`

	// Members lists per-member state in declaration order.
	Members []MemberStats `json:"members"`
}

// MemberStats describes one member's state.
type MemberStats struct {
	Name              string    `json:"name"`
	Address           string    `json:"address"`
	Healthy           bool      `json:"healthy"`
	Weight            int       `json:"weight"`
	ActiveConnections int64     `json:"active_connections"`
	TotalRequests     int64     `json:"total_requests"`
	ConsecutiveFails  int64     `json:"consecutive_fails"`
	LastHealthCheck   time.Time `json:"last_health_check"`
}

// Stats returns a snapshot of the pool state.
func (m *Manager) Stats() Stats {
	members := make([]MemberStats, 0, len(m.members))
	healthy := 0
	for _, mem := range m.members {
		isHealthy := mem.Healthy()
		if isHealthy {
			healthy++
		}
		members = append(members, MemberStats{
			Name:              mem.name,
			Address:           mem.Addr(),
			Healthy:           isHealthy,
			Weight:            mem.weight,
			ActiveConnections: mem.activeConns.Load(),
			TotalRequests:     mem.totalRequests.Load(),
			ConsecutiveFails:  mem.consecutiveFails.Load(),
			LastHealthCheck:   mem.LastHealthCheck(),
		})
	}

	return Stats{
		TotalRequests:  m.totalRequests.Load(),
		HealthyMembers: healthy,
		Members:        members,
	}
}
