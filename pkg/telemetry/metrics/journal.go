package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// JournalMetrics tracks metrics for the traffic event journal.
//
// Metrics:
//   - charon_proxy_journal_events_total: Events written by kind
//   - charon_proxy_journal_drops_total: Events dropped at a full buffer
//   - charon_proxy_journal_prunes_total: Retention prune runs
//   - charon_proxy_journal_pruned_events_total: Events removed by pruning
type JournalMetrics struct {
	// Event write counter
	events *prometheus.CounterVec

	// Dropped event counter
	drops prometheus.Counter

	// Prune run counter
	prunes prometheus.Counter

	// Pruned row counter
	prunedEvents prometheus.Counter
}

// NewJournalMetrics creates and registers journal metrics with the provided registry.
func NewJournalMetrics(cfg Config, registry *prometheus.Registry) *JournalMetrics {
	jm := &JournalMetrics{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "journal_events_total",
				Help:      "Total journal events written by kind",
			},
			[]string{"kind"},
		),

		drops: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "journal_drops_total",
				Help:      "Total journal events dropped because the recorder buffer was full",
			},
		),

		prunes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "journal_prunes_total",
				Help:      "Total retention prune runs",
			},
		),

		prunedEvents: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "journal_pruned_events_total",
				Help:      "Total journal events removed by retention pruning",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		jm.events,
		jm.drops,
		jm.prunes,
		jm.prunedEvents,
	)

	return jm
}

// RecordEvent increments the write counter for one journal event.
// Event kinds are a small fixed set, so the label is safe to use as-is.
func (jm *JournalMetrics) RecordEvent(kind string) {
	jm.events.WithLabelValues(kind).Inc()
}

// RecordDrop increments the dropped event counter.
func (jm *JournalMetrics) RecordDrop() {
	jm.drops.Inc()
}

// RecordPrune records one retention prune run and the rows it removed.
func (jm *JournalMetrics) RecordPrune(removed int64) {
	jm.prunes.Inc()
	if removed > 0 {
		jm.prunedEvents.Add(float64(removed))
	}
}
