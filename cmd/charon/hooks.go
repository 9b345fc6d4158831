package main

import (
	"fmt"
	"time"

	"stratos-hq/charon/pkg/admission"
	"stratos-hq/charon/pkg/journal"
	"stratos-hq/charon/pkg/journal/recorder"
)

// journalHooks forwards engine lifecycle events into the journal. It
// implements admission.BlockListener and upstream.HealthListener, which
// keeps the admission and upstream packages free of journal imports.
type journalHooks struct {
	rec *recorder.Recorder
}

func (h *journalHooks) IPBlocked(ip string, reason admission.BlockReason, duration time.Duration, blockCount int) {
	h.rec.Record(&journal.Event{
		Kind:     journal.KindIPBlocked,
		SourceIP: ip,
		Reason:   string(reason),
		Detail:   fmt.Sprintf("blocked for %s (block #%d)", duration, blockCount),
	})
}

func (h *journalHooks) IPUnblocked(ip string) {
	h.rec.Record(&journal.Event{
		Kind:     journal.KindIPUnblocked,
		SourceIP: ip,
	})
}

func (h *journalHooks) MemberUnhealthy(name string, consecutiveFails int64) {
	h.rec.Record(&journal.Event{
		Kind:     journal.KindUpstreamUnhealthy,
		Upstream: name,
		Detail:   fmt.Sprintf("%d consecutive probe failures", consecutiveFails),
	})
}

func (h *journalHooks) MemberRecovered(name string) {
	h.rec.Record(&journal.Event{
		Kind:     journal.KindUpstreamRecovered,
		Upstream: name,
	})
}
