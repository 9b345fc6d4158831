// Package admission decides whether inbound requests and connections may
// proceed. It layers five mechanisms behind one check: whitelist and
// blacklist lookups, temporary per-IP block records, a global token
// bucket, lazily created per-IP token buckets, and connection-level flood
// tracking.
//
// Denials are plain values (Decision), not errors. The request path takes
// read locks for the common case; block and bucket creation take short
// write locks. A background sweep started with StartCleanup keeps the
// internal maps bounded.
package admission

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"stratos-hq/charon/pkg/config"
	"stratos-hq/charon/pkg/telemetry/metrics"
)

// Block durations and retry hints. Oversized requests earn a short block,
// connection-ceiling abuse a longer one, detected floods the longest.
const (
	oversizeBlockDuration = 5 * time.Minute
	overConnBlockDuration = 10 * time.Minute
	floodBlockDuration    = 30 * time.Minute

	globalRetryHint     = time.Minute
	perIPRetryHint      = time.Minute
	connectionRetryHint = time.Minute
)

// BlockListener observes block record lifecycle changes. Callbacks run on
// the request path and must return quickly.
type BlockListener interface {
	// IPBlocked is called when a block record is created or renewed.
	IPBlocked(ip string, reason BlockReason, duration time.Duration, blockCount int)

	// IPUnblocked is called when a block record is removed by UnblockIP.
	IPUnblocked(ip string)
}

// blockRecord is one temporary ban. blockCount survives renewals so
// repeat offenders are visible in stats.
type blockRecord struct {
	until      time.Time
	reason     BlockReason
	blockCount int
}

// Controller enforces admission control for the proxy.
//
// Each concern keeps its own lock so a slow path in one (a sweep over
// block records, say) never stalls the others. All methods are safe for
// concurrent use.
type Controller struct {
	cfgMu     sync.RWMutex
	cfg       config.RateLimitConfig
	ddos      config.DDoSConfig
	whitelist map[string]struct{}
	blacklist map[string]struct{}
	global    *rate.Limiter

	limitersMu sync.RWMutex
	limiters   map[string]*rate.Limiter

	blockedMu sync.Mutex
	blocked   map[string]*blockRecord

	trackersMu sync.Mutex
	trackers   map[string]*connTracker

	listener  BlockListener
	collector *metrics.Collector
	logger    *slog.Logger

	cleanupMu   sync.Mutex
	cleanupStop chan struct{}
	cleanupDone chan struct{}
}

// NewController builds a Controller from the rate-limit and DDoS
// configuration sections.
func NewController(rateCfg config.RateLimitConfig, ddosCfg config.DDoSConfig) *Controller {
	c := &Controller{
		limiters: make(map[string]*rate.Limiter),
		blocked:  make(map[string]*blockRecord),
		trackers: make(map[string]*connTracker),
		logger:   slog.Default().With("component", "admission"),
	}
	c.ApplyConfig(rateCfg, ddosCfg)
	return c
}

// SetBlockListener registers a listener for block lifecycle events.
// Call before the controller starts serving checks.
func (c *Controller) SetBlockListener(l BlockListener) {
	c.listener = l
}

// SetMetrics attaches a metrics collector. Call before the controller
// starts serving checks.
func (c *Controller) SetMetrics(collector *metrics.Collector) {
	c.collector = collector
}

// ApplyConfig swaps in new rate-limit and DDoS parameters. The global
// bucket is retuned in place and existing per-IP buckets are retuned on
// their next use. Block records and connection trackers survive the swap.
func (c *Controller) ApplyConfig(rateCfg config.RateLimitConfig, ddosCfg config.DDoSConfig) {
	whitelist := make(map[string]struct{}, len(rateCfg.Whitelist))
	for _, ip := range rateCfg.Whitelist {
		whitelist[ip] = struct{}{}
	}
	blacklist := make(map[string]struct{}, len(rateCfg.Blacklist))
	for _, ip := range rateCfg.Blacklist {
		blacklist[ip] = struct{}{}
	}

	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()

	c.cfg = rateCfg
	c.ddos = ddosCfg
	c.whitelist = whitelist
	c.blacklist = blacklist

	if c.global == nil {
		c.global = rate.NewLimiter(perMinute(rateCfg.RequestsPerMinute), rateCfg.Burst)
	} else {
		retune(c.global, perMinute(rateCfg.RequestsPerMinute), rateCfg.Burst)
	}
}

// CheckRequest runs the admission checks for one inbound request and
// returns the resulting Decision. Checks run in a fixed order and the
// first one that resolves wins:
//
//  1. Admission control disabled: Allowed.
//  2. Whitelisted source: Whitelisted.
//  3. Blacklisted source: Blacklisted.
//  4. Unexpired block record: Blocked, RetryAfter = time remaining.
//  5. Request body above the configured maximum: the source is blocked
//     for five minutes and the request is RateLimited.
//  6. Global token bucket exhausted: GloballyLimited.
//  7. Per-IP token bucket exhausted: RateLimited; when auto-block is on
//     the source is also blocked for the configured duration.
//  8. More active connections than the DDoS ceiling: TooManyConnections.
//
// requestSize is the declared body size in bytes; pass 0 when unknown.
func (c *Controller) CheckRequest(sourceIP string, requestSize int64) Decision {
	c.cfgMu.RLock()
	cfg := c.cfg
	ddos := c.ddos
	_, whitelisted := c.whitelist[sourceIP]
	_, blacklisted := c.blacklist[sourceIP]
	global := c.global
	c.cfgMu.RUnlock()

	if !cfg.Enabled {
		return Decision{Verdict: VerdictAllowed}
	}
	if whitelisted {
		return Decision{Verdict: VerdictWhitelisted}
	}
	if blacklisted {
		return Decision{Verdict: VerdictBlacklisted}
	}

	if d, denied := c.checkBlocked(sourceIP); denied {
		return d
	}

	if requestSize > 0 && requestSize > cfg.MaxRequestSize {
		c.blockIP(sourceIP, ReasonRequestTooLarge, oversizeBlockDuration)
		return Decision{Verdict: VerdictRateLimited, RetryAfter: oversizeBlockDuration}
	}

	if !global.Allow() {
		return Decision{Verdict: VerdictGloballyLimited, RetryAfter: globalRetryHint}
	}

	if !c.limiterFor(sourceIP, cfg).Allow() {
		if cfg.AutoBlockEnabled {
			c.blockIP(sourceIP, ReasonRateLimitExceeded, cfg.BlockDuration)
		}
		return Decision{Verdict: VerdictRateLimited, RetryAfter: perIPRetryHint}
	}

	if ddos.Enabled && c.activeConnections(sourceIP) > ddos.MaxConnectionsPerIP {
		return Decision{Verdict: VerdictTooManyConnections, RetryAfter: connectionRetryHint}
	}

	return Decision{Verdict: VerdictAllowed}
}

// UnblockIP removes the block record for ip, reporting whether one
// existed. The per-IP token bucket is left untouched.
func (c *Controller) UnblockIP(ip string) bool {
	c.blockedMu.Lock()
	_, ok := c.blocked[ip]
	if ok {
		delete(c.blocked, ip)
	}
	total := len(c.blocked)
	c.blockedMu.Unlock()

	if !ok {
		return false
	}

	c.logger.Info("unblocked source IP", "ip", ip)
	if c.collector != nil {
		c.collector.UpdateBlockedIPs(total)
	}
	if c.listener != nil {
		c.listener.IPUnblocked(ip)
	}
	return true
}

// checkBlocked reports whether an unexpired block record exists for ip.
// Expired records are removed inline rather than waiting for the sweep.
func (c *Controller) checkBlocked(ip string) (Decision, bool) {
	c.blockedMu.Lock()
	defer c.blockedMu.Unlock()

	rec, ok := c.blocked[ip]
	if !ok {
		return Decision{}, false
	}

	remaining := time.Until(rec.until)
	if remaining <= 0 {
		delete(c.blocked, ip)
		return Decision{}, false
	}

	return Decision{Verdict: VerdictBlocked, RetryAfter: remaining, Reason: rec.reason}, true
}

// blockIP creates or renews a block record for ip. Renewals increment
// the record's block count.
func (c *Controller) blockIP(ip string, reason BlockReason, duration time.Duration) {
	c.blockedMu.Lock()
	count := 1
	if prev, ok := c.blocked[ip]; ok {
		count = prev.blockCount + 1
	}
	c.blocked[ip] = &blockRecord{
		until:      time.Now().Add(duration),
		reason:     reason,
		blockCount: count,
	}
	total := len(c.blocked)
	c.blockedMu.Unlock()

	c.logger.Warn("blocked source IP",
		"ip", ip,
		"reason", string(reason),
		"duration", duration,
		"block_count", count,
	)

	if c.collector != nil {
		c.collector.RecordBlock(string(reason))
		c.collector.UpdateBlockedIPs(total)
	}
	if c.listener != nil {
		c.listener.IPBlocked(ip, reason, duration, count)
	}
}

// limiterFor returns the token bucket for ip, creating it on first use.
// A read lock covers the common case; creation double-checks under the
// write lock so concurrent first requests share one bucket. Existing
// buckets are retuned when the configured rate has changed.
func (c *Controller) limiterFor(ip string, cfg config.RateLimitConfig) *rate.Limiter {
	limit := perMinute(cfg.RequestsPerMinute)

	c.limitersMu.RLock()
	lim, ok := c.limiters[ip]
	c.limitersMu.RUnlock()
	if ok {
		retune(lim, limit, cfg.Burst)
		return lim
	}

	c.limitersMu.Lock()
	defer c.limitersMu.Unlock()

	if lim, ok := c.limiters[ip]; ok {
		retune(lim, limit, cfg.Burst)
		return lim
	}

	lim = rate.NewLimiter(limit, cfg.Burst)
	c.limiters[ip] = lim
	return lim
}

// perMinute converts a requests-per-minute setting to a bucket refill rate.
func perMinute(rpm int) rate.Limit {
	return rate.Limit(float64(rpm) / 60.0)
}

// retune aligns an existing bucket with the current configuration.
func retune(lim *rate.Limiter, limit rate.Limit, burst int) {
	if lim.Limit() != limit {
		lim.SetLimit(limit)
	}
	if lim.Burst() != burst {
		lim.SetBurst(burst)
	}
}
