package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestSetupEmitsStructuredJSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := setup(&buf, " loanviewd ", "dev")
	logger.Info("price update", "session", "abc")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if line["service"] != "loanviewd" || line["env"] != "dev" {
		t.Fatalf("unexpected service attributes: %v", line)
	}
	if line["severity"] != "INFO" || line["message"] != "price update" {
		t.Fatalf("unexpected renamed keys: %v", line)
	}
	if _, ok := line["timestamp"]; !ok {
		t.Fatalf("expected timestamp key: %v", line)
	}
}

func TestMaskField(t *testing.T) {
	if got := MaskField("borrower", "0xabc"); got.Value.String() != RedactedValue {
		t.Fatalf("expected borrower to be redacted, got %s", got.Value)
	}
	if got := MaskField("tx_hash", "0xabc"); got.Value.String() != "0xabc" {
		t.Fatalf("expected tx_hash to pass through, got %s", got.Value)
	}
}

func TestMaskAddress(t *testing.T) {
	got := MaskAddress("borrower", "0x1111111111111111111111111111111111112222")
	if got.Value.String() != "0x1111…2222" {
		t.Fatalf("unexpected masked address %s", got.Value)
	}
	if short := MaskAddress("borrower", "0x12"); short.Value.String() != RedactedValue {
		t.Fatalf("expected short value to be redacted, got %s", short.Value)
	}
}
