package logging

import (
	"log/slog"
	"sort"
	"strings"
)

// RedactedValue replaces a borrower supplied value that is not safe to log.
const RedactedValue = "[REDACTED]"

var redactionAllowlist = map[string]struct{}{
	"service":   {},
	"env":       {},
	"message":   {},
	"severity":  {},
	"timestamp": {},
	"error":     {},
	"reason":    {},
	"component": {},
	"session":   {},
	"status":    {},
	"tx_hash":   {},
	"oracle":    {},
}

// IsAllowlisted reports whether key names a loan form field that is logged verbatim.
func IsAllowlisted(key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	_, ok := redactionAllowlist[normalized]
	return ok
}

// RedactionAllowlist lists the verbatim keys in sorted order.
func RedactionAllowlist() []string {
	keys := make([]string, 0, len(redactionAllowlist))
	for key := range redactionAllowlist {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// MaskField logs value under key, or RedactedValue when key is not allowlisted.
func MaskField(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" || IsAllowlisted(key) {
		return slog.String(key, value)
	}
	return slog.String(key, RedactedValue)
}

// MaskAddress keeps the first six and last four characters of a wallet
// address so support can correlate reports without logging the full value.
func MaskAddress(key, address string) slog.Attr {
	trimmed := strings.TrimSpace(address)
	if len(trimmed) <= 10 {
		return MaskField(key, trimmed)
	}
	return slog.String(key, trimmed[:6]+"…"+trimmed[len(trimmed)-4:])
}
