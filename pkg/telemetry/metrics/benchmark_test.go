package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Benchmark_Collector_RecordRequest benchmarks request recording
func Benchmark_Collector_RecordRequest(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordRequest("/api/*", "backend-1", 200, 150*time.Millisecond)
	}
}

// Benchmark_Collector_RecordRequest_Parallel benchmarks parallel request recording
func Benchmark_Collector_RecordRequest_Parallel(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			collector.RecordRequest("/api/*", "backend-1", 200, 150*time.Millisecond)
		}
	})
}

// Benchmark_Collector_RecordAdmission benchmarks admission verdict recording
func Benchmark_Collector_RecordAdmission(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordAdmission("allowed")
	}
}

// Benchmark_Collector_UpdateUpstreamHealth benchmarks health gauge updates
func Benchmark_Collector_UpdateUpstreamHealth(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.UpdateUpstreamHealth("backend-1", true)
	}
}

// Benchmark_Collector_RecordUpstreamRequest benchmarks forward outcome recording
func Benchmark_Collector_RecordUpstreamRequest(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordUpstreamRequest("backend-1", "success", 100*time.Millisecond)
	}
}

// Benchmark_Collector_RecordJournalEvent benchmarks journal event recording
func Benchmark_Collector_RecordJournalEvent(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordJournalEvent("admission_denied")
	}
}

// Benchmark_Collector_Disabled benchmarks the disabled fast path
func Benchmark_Collector_Disabled(b *testing.B) {
	cfg := testConfig()
	cfg.Enabled = false
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordRequest("/api/*", "backend-1", 200, 150*time.Millisecond)
	}
}

// Benchmark_CardinalityLimiter_Allow benchmarks the hot path (existing label set)
func Benchmark_CardinalityLimiter_Allow(b *testing.B) {
	limiter := NewCardinalityLimiter(10000)
	limiter.Allow("request:/api/*:backend-1")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow("request:/api/*:backend-1")
	}
}

// Benchmark_CardinalityLimiter_Allow_New benchmarks inserting new label sets
func Benchmark_CardinalityLimiter_Allow_New(b *testing.B) {
	limiter := NewCardinalityLimiter(b.N + 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow(fmt.Sprintf("request:/route-%d:backend-1", i))
	}
}

// Benchmark_CardinalityLimiter_Allow_Parallel benchmarks concurrent lookups
func Benchmark_CardinalityLimiter_Allow_Parallel(b *testing.B) {
	limiter := NewCardinalityLimiter(10000)
	limiter.Allow("request:/api/*:backend-1")

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			limiter.Allow("request:/api/*:backend-1")
		}
	})
}
