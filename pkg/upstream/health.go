package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"stratos-hq/charon/pkg/config"
)

// healthCheckUserAgent identifies probe traffic in upstream access logs.
const healthCheckUserAgent = "charon-health-check/1.0"

// StartHealthChecks launches the background probe loop. Members are
// probed immediately and then once per configured interval, each on its
// own goroutine so one slow backend cannot delay the others. The loop
// runs until the context is canceled or StopHealthChecks is called.
//
// No-op when probes are disabled or the pool is empty.
func (m *Manager) StartHealthChecks(ctx context.Context) {
	m.healthMu.RLock()
	enabled := m.healthCfg.IsEnabled()
	m.healthMu.RUnlock()

	if !enabled || len(m.members) == 0 {
		m.logger.Debug("health checks disabled")
		return
	}

	m.probeStopMu.Lock()
	defer m.probeStopMu.Unlock()
	if m.probeStop != nil {
		return
	}
	m.probeStop = make(chan struct{})
	m.probeDone = make(chan struct{})
	go m.runProbeLoop(ctx, m.probeStop, m.probeDone)
}

// StopHealthChecks halts the probe loop and waits for it to exit. Safe
// to call without a prior start, and safe to call more than once.
func (m *Manager) StopHealthChecks() {
	m.probeStopMu.Lock()
	stop, done := m.probeStop, m.probeDone
	m.probeStop, m.probeDone = nil, nil
	m.probeStopMu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// ApplyHealthConfig swaps the probe parameters. A changed interval takes
// effect after the current tick.
func (m *Manager) ApplyHealthConfig(cfg config.HealthCheckConfig) {
	m.healthMu.Lock()
	m.healthCfg = cfg
	m.healthMu.Unlock()
}

func (m *Manager) runProbeLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := m.healthConfig().Interval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Info("health checks started",
		"interval", interval,
		"members", len(m.members),
	)

	// First round runs immediately so dead backends are discovered
	// before the first tick.
	m.probeAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			m.probeAll(ctx)
			if next := m.healthConfig().Interval; next != interval {
				ticker.Reset(next)
				interval = next
			}
		}
	}
}

func (m *Manager) probeAll(ctx context.Context) {
	for _, member := range m.members {
		go m.probe(ctx, member)
	}
}

// probe performs one health check against a member and applies the
// result. Success means the probe returned the expected status within
// the probe timeout.
func (m *Manager) probe(ctx context.Context, member *Member) {
	cfg := m.healthConfig()

	probeCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	target := fmt.Sprintf("http://%s%s", member.Addr(), cfg.Path)
	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, target, nil)
	if err != nil {
		m.applyProbeResult(member, false)
		return
	}
	req.Header.Set("User-Agent", healthCheckUserAgent)

	resp, err := m.probeClient.Do(req)
	success := false
	if err == nil {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		success = resp.StatusCode == cfg.ExpectedStatus
	}

	m.applyProbeResult(member, success)
}

// applyProbeResult updates member state from one probe and handles
// health transitions. Recovery is immediate on a single success; going
// unhealthy requires maxFails consecutive failures.
func (m *Manager) applyProbeResult(member *Member, success bool) {
	member.lastHealthCheck.Store(time.Now().UnixNano())

	if m.collector != nil {
		m.collector.RecordHealthCheck(member.name, success)
	}

	if success {
		member.consecutiveFails.Store(0)
		if member.healthy.CompareAndSwap(false, true) {
			m.logger.Info("upstream recovered",
				"upstream", member.name,
				"addr", member.Addr(),
			)
			if m.collector != nil {
				m.collector.UpdateUpstreamHealth(member.name, true)
			}
			if m.listener != nil {
				m.listener.MemberRecovered(member.name)
			}
		}
		return
	}

	fails := member.consecutiveFails.Add(1)
	if fails >= int64(member.maxFails) && member.healthy.CompareAndSwap(true, false) {
		m.logger.Warn("upstream unhealthy",
			"upstream", member.name,
			"addr", member.Addr(),
			"consecutive_fails", fails,
		)
		if m.collector != nil {
			m.collector.UpdateUpstreamHealth(member.name, false)
		}
		if m.listener != nil {
			m.listener.MemberUnhealthy(member.name, fails)
		}
	}
}

func (m *Manager) healthConfig() config.HealthCheckConfig {
	m.healthMu.RLock()
	defer m.healthMu.RUnlock()
	return m.healthCfg
}
