// Package recorder accepts journal events from the engine and writes
// them to a storage backend without blocking the data plane.
//
// Events flow through a buffered channel drained by one background
// worker. When the channel is full the event is dropped and counted;
// the proxy never waits on the journal. Close drains whatever is still
// buffered before returning, so a clean shutdown loses nothing.
package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"stratos-hq/charon/pkg/journal"
	"stratos-hq/charon/pkg/telemetry/metrics"
)

// Config contains configuration for the journal recorder.
type Config struct {
	// Buffer is the size of the async write channel. Events arriving
	// while the buffer is full are dropped.
	// Default: 1000
	Buffer int

	// WriteTimeout is the timeout for writing one event to storage.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Buffer:       1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder writes journal events asynchronously.
type Recorder struct {
	storage   journal.Storage
	config    *Config
	eventCh   chan *journal.Event
	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
	collector *metrics.Collector
	logger    *slog.Logger
}

// NewRecorder creates a new journal recorder backed by the provided
// storage and starts its drain worker.
func NewRecorder(storage journal.Storage, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}

	r := &Recorder{
		storage: storage,
		config:  config,
		eventCh: make(chan *journal.Event, config.Buffer),
		done:    make(chan struct{}),
		logger:  slog.Default().With("component", "journal.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("journal recorder initialized",
		"buffer", config.Buffer,
		"write_timeout", config.WriteTimeout,
	)

	return r
}

// SetMetrics attaches the telemetry collector. Safe to leave unset.
func (r *Recorder) SetMetrics(collector *metrics.Collector) {
	r.collector = collector
}

// Record enqueues one event for async writing. Missing identity fields
// are filled in: a zero Time becomes now, an empty ID gets a fresh UUID.
//
// Record never blocks. If the buffer is full or the recorder is
// shutting down, the event is dropped with a log line and a counter
// bump.
func (r *Recorder) Record(event *journal.Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	select {
	case <-r.done:
		r.drop(event, "recorder shutting down")
		return
	default:
	}

	select {
	case r.eventCh <- event:
		if r.collector != nil {
			r.collector.RecordJournalEvent(string(event.Kind))
		}
	default:
		r.drop(event, "journal buffer full")
	}
}

// Close shuts down the recorder, draining buffered events to storage
// before returning.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
	})
	r.wg.Wait()
	return nil
}

// worker drains the event channel and writes events to storage.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case event := <-r.eventCh:
			r.writeEvent(event)

		case <-r.done:
			// Drain remaining events before exit.
			for {
				select {
				case event := <-r.eventCh:
					r.writeEvent(event)
				default:
					r.logger.Debug("journal recorder drained")
					return
				}
			}
		}
	}
}

// writeEvent writes a single event to storage.
func (r *Recorder) writeEvent(event *journal.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.storage.Append(ctx, event); err != nil {
		r.logger.Error("failed to store journal event",
			"event_id", event.ID,
			"kind", event.Kind,
			"error", err,
		)
		return
	}

	r.logger.Debug("journal event recorded",
		"event_id", event.ID,
		"kind", event.Kind,
	)
}

// drop logs and counts a discarded event.
func (r *Recorder) drop(event *journal.Event, why string) {
	if r.collector != nil {
		r.collector.RecordJournalDrop()
	}
	r.logger.Warn("journal event dropped",
		"kind", event.Kind,
		"reason", why,
	)
}
