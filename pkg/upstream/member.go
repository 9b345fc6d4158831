package upstream

import (
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"stratos-hq/charon/pkg/config"
)

// Member is one backend instance. Its mutable state is held in atomics
// so the request path and the health prober never contend on a lock.
type Member struct {
	name     string
	address  string
	port     int
	weight   int
	maxFails int

	healthy          atomic.Bool
	activeConns      atomic.Int64
	totalRequests    atomic.Int64
	consecutiveFails atomic.Int64
	lastHealthCheck  atomic.Int64 // unix nanos, 0 until the first probe
}

// newMember builds a member from its configuration. Members start
// healthy; the prober downgrades them.
func newMember(cfg config.UpstreamConfig) *Member {
	m := &Member{
		name:     cfg.Name,
		address:  cfg.Address,
		port:     cfg.Port,
		weight:   cfg.Weight,
		maxFails: cfg.MaxFails,
	}
	m.healthy.Store(true)
	return m
}

// Name returns the member name.
func (m *Member) Name() string { return m.name }

// Addr returns the member's host:port.
func (m *Member) Addr() string {
	return net.JoinHostPort(m.address, strconv.Itoa(m.port))
}

// Healthy reports whether the member currently accepts traffic.
func (m *Member) Healthy() bool { return m.healthy.Load() }

// ActiveConnections returns the number of in-flight forwarded requests.
func (m *Member) ActiveConnections() int64 { return m.activeConns.Load() }

// TotalRequests returns the number of requests forwarded to this member.
func (m *Member) TotalRequests() int64 { return m.totalRequests.Load() }

// Weight returns the configured selection weight.
func (m *Member) Weight() int { return m.weight }

// LastHealthCheck returns the time of the most recent probe, or the zero
// time if the member has never been probed.
func (m *Member) LastHealthCheck() time.Time {
	nanos := m.lastHealthCheck.Load()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos)
}
