package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestContextAccessors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		set  func(context.Context, string) context.Context
		get  func(context.Context) string
	}{
		{"request id", WithRequestID, GetRequestID},
		{"client ip", WithClientIP, GetClientIP},
		{"route", WithRoute, GetRoute},
		{"upstream", WithUpstream, GetUpstream},
		{"trace id", WithTraceID, GetTraceID},
		{"span id", WithSpanID, GetSpanID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Empty context yields empty string
			if got := tt.get(ctx); got != "" {
				t.Errorf("expected empty value from bare context, got %q", got)
			}

			withValue := tt.set(ctx, "some-value")
			if got := tt.get(withValue); got != "some-value" {
				t.Errorf("expected %q, got %q", "some-value", got)
			}
		})
	}
}

func TestExtractContextFields(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = WithClientIP(ctx, "203.0.113.7")
	ctx = WithUpstream(ctx, "backend-2")

	fields := extractContextFields(ctx)

	// Fields come in key-value pairs
	if len(fields)%2 != 0 {
		t.Fatalf("expected even number of elements, got %d", len(fields))
	}

	asMap := make(map[string]any, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		asMap[fields[i].(string)] = fields[i+1]
	}

	if asMap["request_id"] != "req-123" {
		t.Errorf("expected request_id %q, got %v", "req-123", asMap["request_id"])
	}
	if asMap["client_ip"] != "203.0.113.7" {
		t.Errorf("expected client_ip %q, got %v", "203.0.113.7", asMap["client_ip"])
	}
	if asMap["upstream"] != "backend-2" {
		t.Errorf("expected upstream %q, got %v", "backend-2", asMap["upstream"])
	}
	if _, present := asMap["route"]; present {
		t.Error("route was never set; should not be extracted")
	}
}

func TestExtractContextFields_EmptyContext(t *testing.T) {
	fields := extractContextFields(context.Background())
	if len(fields) != 0 {
		t.Errorf("expected no fields from empty context, got %v", fields)
	}
}

func TestLogger_WithContext(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "json", Writer: buf})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	ctx := WithRequestID(context.Background(), "req-456")
	ctx = WithClientIP(ctx, "198.51.100.3")

	logger.WithContext(ctx).Info("admitted")

	output := buf.String()
	if !strings.Contains(output, `"request_id":"req-456"`) {
		t.Errorf("expected request_id in output, got: %s", output)
	}
	if !strings.Contains(output, `"client_ip":"198.51.100.3"`) {
		t.Errorf("expected client_ip in output, got: %s", output)
	}
}

func TestLogger_WithContext_Empty(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "json", Writer: buf})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	// Empty context returns the same logger
	if got := logger.WithContext(context.Background()); got != logger {
		t.Error("expected same logger for context without fields")
	}
}

func TestLogger_InfoContext(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "json", Writer: buf})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	ctx := WithRoute(context.Background(), "/api/*")
	logger.InfoContext(ctx, "matched", "priority", 50)

	output := buf.String()
	if !strings.Contains(output, `"route":"/api/*"`) {
		t.Errorf("expected route from context, got: %s", output)
	}
	if !strings.Contains(output, `"priority":50`) {
		t.Errorf("expected explicit arg, got: %s", output)
	}
}

func TestContextLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "debug", Format: "json", Writer: buf})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	ctx := WithRequestID(context.Background(), "req-789")
	cl := NewContextLogger(logger, ctx)

	cl.Info("processing")
	if !strings.Contains(buf.String(), `"request_id":"req-789"`) {
		t.Errorf("expected context field, got: %s", buf.String())
	}

	buf.Reset()
	cl.With("attempt", 2).Warn("retrying")
	output := buf.String()
	if !strings.Contains(output, `"request_id":"req-789"`) || !strings.Contains(output, `"attempt":2`) {
		t.Errorf("expected inherited and added fields, got: %s", output)
	}
}
