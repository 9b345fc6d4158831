package admission

import "time"

// connTracker records connection activity for one source IP.
type connTracker struct {
	// active is the number of currently open connections.
	active int

	// lastSeen is when the source last opened a connection.
	lastSeen time.Time

	// window holds open timestamps inside the sliding rate window.
	window []time.Time
}

// TrackConnection records a connection open (connected=true) or close
// (connected=false) for sourceIP and reports whether the connection may
// stay open.
//
// An open that pushes the source over the concurrent-connection ceiling
// blocks it for ten minutes; one that pushes it over the per-window open
// rate blocks it for thirty minutes. Both return false so the caller can
// drop the connection. Closes always return true, and tracking is a no-op
// while DDoS protection is disabled.
func (c *Controller) TrackConnection(sourceIP string, connected bool) bool {
	c.cfgMu.RLock()
	ddos := c.ddos
	c.cfgMu.RUnlock()

	if !ddos.Enabled {
		return true
	}

	now := time.Now()

	c.trackersMu.Lock()
	t := c.trackers[sourceIP]
	if t == nil {
		t = &connTracker{}
		c.trackers[sourceIP] = t
	}

	if !connected {
		if t.active > 0 {
			t.active--
		}
		c.trackersMu.Unlock()
		return true
	}

	t.active++
	t.lastSeen = now
	t.window = append(t.window, now)
	t.pruneWindow(now.Add(-ddos.WindowSize))
	active := t.active
	opens := len(t.window)
	c.trackersMu.Unlock()

	if active > ddos.MaxConnectionsPerIP {
		c.blockIP(sourceIP, ReasonTooManyConnections, overConnBlockDuration)
		return false
	}
	if opens > ddos.ConnectionRateLimit {
		c.blockIP(sourceIP, ReasonDDoSDetection, floodBlockDuration)
		return false
	}
	return true
}

// activeConnections returns the live connection count for ip.
func (c *Controller) activeConnections(ip string) int {
	c.trackersMu.Lock()
	defer c.trackersMu.Unlock()

	if t, ok := c.trackers[ip]; ok {
		return t.active
	}
	return 0
}

// pruneWindow drops window entries at or before cutoff.
func (t *connTracker) pruneWindow(cutoff time.Time) {
	i := 0
	for i < len(t.window) && !t.window[i].After(cutoff) {
		i++
	}
	if i > 0 {
		t.window = append(t.window[:0], t.window[i:]...)
	}
}
