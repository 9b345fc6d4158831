package upstream

import (
	"fmt"
	"math/rand"
)

// Method selects how the manager picks among healthy members.
type Method string

// Load balancing methods.
const (
	// RoundRobin cycles through healthy members in order.
	RoundRobin Method = "round_robin"

	// LeastConnections picks the member with the fewest in-flight
	// requests; ties go to the earliest declared member.
	LeastConnections Method = "least_connections"

	// Random picks a healthy member uniformly.
	Random Method = "random"

	// Weighted distributes picks proportionally to member weights.
	Weighted Method = "weighted"

	// IPHash is accepted for forward compatibility; see pick.
	IPHash Method = "ip_hash"
)

// ParseMethod parses a configured method name. The empty string picks
// RoundRobin.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case "":
		return RoundRobin, nil
	case RoundRobin, LeastConnections, Random, Weighted, IPHash:
		return Method(s), nil
	}
	return "", fmt.Errorf("unknown load balancing method %q", s)
}

// pick chooses one member from a non-empty healthy set according to the
// configured method.
func (m *Manager) pick(healthy []*Member) *Member {
	switch m.method {
	case LeastConnections:
		best := healthy[0]
		min := best.activeConns.Load()
		for _, mem := range healthy[1:] {
			if n := mem.activeConns.Load(); n < min {
				best = mem
				min = n
			}
		}
		return best

	case Random:
		return healthy[rand.Intn(len(healthy))]

	case Weighted:
		total := 0
		for _, mem := range healthy {
			total += mem.weight
		}
		if total <= 0 {
			return m.roundRobin(healthy)
		}
		target := int(m.counter.Add(1)-1) % total
		for _, mem := range healthy {
			if target < mem.weight {
				return mem
			}
			target -= mem.weight
		}
		return healthy[0]

	case IPHash:
		// Hashing needs the client address, which selection does not
		// see; behaves as round robin until it does.
		return m.roundRobin(healthy)

	case RoundRobin:
		return m.roundRobin(healthy)

	default:
		return m.roundRobin(healthy)
	}
}

func (m *Manager) roundRobin(healthy []*Member) *Member {
	n := m.counter.Add(1) - 1
	return healthy[n%uint64(len(healthy))]
}
