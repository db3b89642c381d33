package otel

import (
	"context"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	headers := ParseHeaders(" api-key = abc ,broken, =skip,x=1")
	if len(headers) != 2 {
		t.Fatalf("expected 2 headers, got %v", headers)
	}
	if headers["api-key"] != "abc" || headers["x"] != "1" {
		t.Fatalf("unexpected headers %v", headers)
	}
}

func TestConfigFromEnvDisabledWithoutEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "false")
	cfg := ConfigFromEnv("loanviewd", "dev")
	if cfg.Traces || cfg.Metrics {
		t.Fatalf("expected exporters disabled without endpoint: %+v", cfg)
	}
	if cfg.Insecure {
		t.Fatalf("expected insecure override to apply")
	}
}

func TestInitWithoutExporters(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "loanviewd"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if _, err := Init(context.Background(), Config{}); err == nil {
		t.Fatal("expected error without service name")
	}
}
