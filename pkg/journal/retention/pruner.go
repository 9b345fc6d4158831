// Package retention enforces the journal's retention policy: events
// older than the configured window are deleted on a cron schedule, and
// an optional cap bounds the total number of stored events.
package retention

import (
	"context"
	"log/slog"
	"time"

	"stratos-hq/charon/pkg/journal"
	"stratos-hq/charon/pkg/telemetry/metrics"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// Days is the number of days to retain events.
	// 0 means keep events forever (no age-based pruning).
	Days int

	// Schedule is a cron expression for scheduling pruning.
	// Example: "0 3 * * *" (daily at 3 AM). Empty disables the
	// scheduler; Prune can still be called manually.
	Schedule string

	// MaxRecords is the maximum number of events to keep.
	// 0 means unlimited.
	MaxRecords int64
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		Days:       30,
		Schedule:   "0 3 * * *",
		MaxRecords: 0,
	}
}

// Pruner enforces retention policy on journal events.
type Pruner struct {
	storage   journal.Storage
	config    *Config
	collector *metrics.Collector
	logger    *slog.Logger
	scheduler *Scheduler
}

// NewPruner creates a new retention pruner.
func NewPruner(storage journal.Storage, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}

	pruner := &Pruner{
		storage: storage,
		config:  config,
		logger:  slog.Default().With("component", "journal.retention"),
	}
	pruner.scheduler = NewScheduler(pruner)

	return pruner
}

// SetMetrics attaches the telemetry collector. Safe to leave unset.
func (p *Pruner) SetMetrics(collector *metrics.Collector) {
	p.collector = collector
}

// Prune deletes journal events past the retention window.
//
// Pruning happens in two phases:
//  1. Age-based: delete events older than Days
//  2. Count-based: trim the oldest events down to MaxRecords
//
// Either phase is skipped when its limit is zero. Returns the total
// number of events deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.Days > 0 {
		cutoff := time.Now().AddDate(0, 0, -p.config.Days)
		removed, err := p.storage.PruneBefore(ctx, cutoff)
		if err != nil {
			return total, journal.NewRetentionError(p.config.Days, err)
		}
		total += removed
		p.logger.Info("pruned events by age",
			"removed", removed,
			"retention_days", p.config.Days,
		)
	}

	if p.config.MaxRecords > 0 {
		removed, err := p.storage.Trim(ctx, p.config.MaxRecords)
		if err != nil {
			return total, journal.NewRetentionError(p.config.Days, err)
		}
		total += removed
		p.logger.Info("pruned events by count",
			"removed", removed,
			"max_records", p.config.MaxRecords,
		)
	}

	if p.collector != nil {
		p.collector.RecordJournalPrune(total)
	}

	if total > 0 {
		p.logger.Info("journal pruning completed", "total_removed", total)
	} else {
		p.logger.Debug("journal pruning completed, nothing removed")
	}

	return total, nil
}

// Start starts the automatic pruning scheduler.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the automatic pruning scheduler.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pruning.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
