package admission

import (
	"sort"
	"time"
)

// Stats is a point-in-time snapshot of admission state, served by the
// admin API.
type Stats struct {
	// BlockedIPCount is the number of IPs with an unexpired block record.
	BlockedIPCount int `json:"blocked_ips_count"`

	// TrackedIPCount is the number of IPs with a live per-IP token bucket.
	TrackedIPCount int `json:"tracked_ips_count"`

	// ActiveConnections is the sum of per-IP open connection counts.
	ActiveConnections int `json:"active_connections_count"`

	// BlockedIPs lists the currently blocked sources, ordered by IP.
	BlockedIPs []BlockedIP `json:"blocked_ips"`
}

// BlockedIP describes one active block record.
type BlockedIP struct {
	IP               string `json:"ip"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	Reason           string `json:"reason"`
	BlockCount       int    `json:"block_count"`
}

// Stats returns a snapshot of the controller's current state. Block
// records that expired but have not been swept yet are filtered out.
func (c *Controller) Stats() Stats {
	now := time.Now()

	c.blockedMu.Lock()
	blocked := make([]BlockedIP, 0, len(c.blocked))
	for ip, rec := range c.blocked {
		remaining := rec.until.Sub(now)
		if remaining <= 0 {
			continue
		}
		blocked = append(blocked, BlockedIP{
			IP:               ip,
			RemainingSeconds: int64(remaining.Seconds()),
			Reason:           string(rec.reason),
			BlockCount:       rec.blockCount,
		})
	}
	c.blockedMu.Unlock()

	sort.Slice(blocked, func(i, j int) bool { return blocked[i].IP < blocked[j].IP })

	c.limitersMu.RLock()
	tracked := len(c.limiters)
	c.limitersMu.RUnlock()

	c.trackersMu.Lock()
	active := 0
	for _, t := range c.trackers {
		active += t.active
	}
	c.trackersMu.Unlock()

	return Stats{
		BlockedIPCount:    len(blocked),
		TrackedIPCount:    tracked,
		ActiveConnections: active,
		BlockedIPs:        blocked,
	}
}
