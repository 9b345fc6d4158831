package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// Benchmark_CheckLiveness benchmarks the liveness check.
func Benchmark_CheckLiveness(b *testing.B) {
	checker := New(5 * time.Second)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = checker.CheckLiveness(ctx)
	}
}

// Benchmark_CheckReadiness_NoChecks benchmarks readiness with no checks.
func Benchmark_CheckReadiness_NoChecks(b *testing.B) {
	checker := New(5 * time.Second)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = checker.CheckReadiness(ctx)
	}
}

// Benchmark_CheckReadiness_ThreeChecks benchmarks the engine's standard
// check set size.
func Benchmark_CheckReadiness_ThreeChecks(b *testing.B) {
	checker := New(5 * time.Second)
	checker.RegisterCheck("server", func(ctx context.Context) error { return nil })
	checker.RegisterCheck("upstreams", func(ctx context.Context) error { return nil })
	checker.RegisterCheck("journal", func(ctx context.Context) error { return nil })
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = checker.CheckReadiness(ctx)
	}
}

// Benchmark_CheckReadiness_TenChecks benchmarks readiness with ten checks.
func Benchmark_CheckReadiness_TenChecks(b *testing.B) {
	checker := New(5 * time.Second)
	for i := 0; i < 10; i++ {
		checker.RegisterCheck(fmt.Sprintf("component-%d", i), func(ctx context.Context) error { return nil })
	}
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = checker.CheckReadiness(ctx)
	}
}

// Benchmark_CheckReadiness_FailingCheck benchmarks readiness with a
// failing component.
func Benchmark_CheckReadiness_FailingCheck(b *testing.B) {
	checker := New(5 * time.Second)
	checker.RegisterCheck("upstreams", func(ctx context.Context) error {
		return errors.New("no healthy members")
	})
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = checker.CheckReadiness(ctx)
	}
}

// Benchmark_LivenessHandler benchmarks the liveness HTTP handler.
func Benchmark_LivenessHandler(b *testing.B) {
	checker := New(5 * time.Second)
	handler := checker.LivenessHandler()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		handler(rec, req)
	}
}

// Benchmark_ReadinessHandler benchmarks the readiness HTTP handler.
func Benchmark_ReadinessHandler(b *testing.B) {
	checker := New(5 * time.Second)
	checker.RegisterCheck("server", func(ctx context.Context) error { return nil })
	handler := checker.ReadinessHandler()
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		handler(rec, req)
	}
}

// Benchmark_Parallel_CheckReadiness benchmarks concurrent probes.
func Benchmark_Parallel_CheckReadiness(b *testing.B) {
	checker := New(5 * time.Second)
	checker.RegisterCheck("server", func(ctx context.Context) error { return nil })
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = checker.CheckReadiness(ctx)
		}
	})
}
