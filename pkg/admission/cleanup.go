package admission

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Sweep cadence and retention bounds for the internal maps.
const (
	cleanupInterval    = 5 * time.Minute
	trackerIdleTimeout = time.Hour
	maxTrackedBuckets  = 10000
)

// StartCleanup launches the background sweep that expires block records,
// drops idle connection trackers, and bounds the per-IP bucket table.
// The sweep runs until the context is canceled or Stop is called.
// Calling StartCleanup again while a sweep is running is a no-op.
func (c *Controller) StartCleanup(ctx context.Context) {
	c.cleanupMu.Lock()
	defer c.cleanupMu.Unlock()

	if c.cleanupStop != nil {
		return
	}
	c.cleanupStop = make(chan struct{})
	c.cleanupDone = make(chan struct{})
	go c.runCleanup(ctx, c.cleanupStop, c.cleanupDone)
}

// Stop halts the background sweep and waits for it to exit. Safe to call
// without a prior StartCleanup, and safe to call more than once.
func (c *Controller) Stop() {
	c.cleanupMu.Lock()
	stop, done := c.cleanupStop, c.cleanupDone
	c.cleanupStop, c.cleanupDone = nil, nil
	c.cleanupMu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (c *Controller) runCleanup(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	c.logger.Debug("admission cleanup started", "interval", cleanupInterval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			c.cleanupPass(time.Now())
		}
	}
}

// cleanupPass performs one sweep. Split out so tests can drive it directly.
func (c *Controller) cleanupPass(now time.Time) {
	// Expired block records.
	c.blockedMu.Lock()
	expiredBlocks := 0
	for ip, rec := range c.blocked {
		if !rec.until.After(now) {
			delete(c.blocked, ip)
			expiredBlocks++
		}
	}
	blocked := len(c.blocked)
	c.blockedMu.Unlock()

	// Trackers with no open connections that have been idle for an hour.
	c.trackersMu.Lock()
	idleTrackers := 0
	for ip, t := range c.trackers {
		if t.active == 0 && now.Sub(t.lastSeen) > trackerIdleTimeout {
			delete(c.trackers, ip)
			idleTrackers++
		}
	}
	c.trackersMu.Unlock()

	// The bucket table is cleared wholesale once it outgrows its bound;
	// buckets are cheap to recreate on the next request.
	c.limitersMu.Lock()
	if len(c.limiters) > maxTrackedBuckets {
		c.limiters = make(map[string]*rate.Limiter)
	}
	tracked := len(c.limiters)
	c.limitersMu.Unlock()

	if expiredBlocks > 0 || idleTrackers > 0 {
		c.logger.Debug("admission cleanup pass",
			"expired_blocks", expiredBlocks,
			"idle_trackers", idleTrackers,
		)
	}

	if c.collector != nil {
		c.collector.UpdateBlockedIPs(blocked)
		c.collector.UpdateTrackedIPs(tracked)
	}
}
