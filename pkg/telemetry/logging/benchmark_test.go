package logging

import (
	"context"
	"io"
	"testing"
)

func BenchmarkLogger_Info(b *testing.B) {
	logger, err := New(Config{Level: "info", Format: "json", Writer: io.Discard})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("request forwarded", "upstream", "backend-1", "status", 200)
	}
}

func BenchmarkLogger_FilteredDebug(b *testing.B) {
	logger, err := New(Config{Level: "info", Format: "json", Writer: io.Discard})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Debug("not emitted", "key", "value")
	}
}

func BenchmarkLogger_WithContext(b *testing.B) {
	logger, err := New(Config{Level: "info", Format: "json", Writer: io.Discard})
	if err != nil {
		b.Fatal(err)
	}

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithClientIP(ctx, "203.0.113.7")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.InfoContext(ctx, "admitted")
	}
}

func BenchmarkLogger_Parallel(b *testing.B) {
	logger, err := New(Config{Level: "info", Format: "json", Writer: io.Discard})
	if err != nil {
		b.Fatal(err)
	}

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			logger.Info("request forwarded", "upstream", "backend-1")
		}
	})
}
