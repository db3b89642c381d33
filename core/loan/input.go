package loan

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MaxDecimals bounds the digits accepted after the decimal separator.
	MaxDecimals = 18
	// DefaultCollateral is used when the field is empty and the form has to
	// re-derive its loan.
	DefaultCollateral = "1"
	// SeparatorPlaceholder replaces a lone decimal separator on screen.
	SeparatorPlaceholder = "0."
)

// MaxCollateral is the largest collateral amount the field accepts.
var MaxCollateral = decimal.NewFromInt(1_000_000)

// IsSeparator reports whether raw is a lone decimal separator.
func IsSeparator(raw string) bool {
	return raw == "." || raw == ","
}

// Normalize rewrites a comma decimal separator to a dot.
func Normalize(raw string) string {
	return strings.Replace(raw, ",", ".", 1)
}

// Canonical normalizes the separator of numeric text and completes a leading
// or trailing separator with zeros, so "5," becomes "5" and ".5" becomes
// "0.5". Non-numeric text is only separator-normalized.
func Canonical(raw string) string {
	text := Normalize(raw)
	if !isNumeric(text) {
		return text
	}
	if strings.HasPrefix(text, ".") {
		text = "0" + text
	}
	return strings.TrimSuffix(text, ".")
}

// DecimalCount returns the number of characters following the first decimal
// separator in raw.
func DecimalCount(raw string) int {
	idx := strings.IndexAny(raw, ".,")
	if idx < 0 {
		return 0
	}
	return len(raw) - idx - 1
}

// Parse reports whether raw is numeric and returns its value. Numeric text is
// a run of digits containing at most one separator, such as "5", "5.", ".5"
// or "5,25".
func Parse(raw string) (decimal.Decimal, bool) {
	text := Canonical(raw)
	if !isNumeric(text) {
		return decimal.Zero, false
	}
	value, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}

// Accepts is the hard input filter. Text with too many decimals, or numeric
// text above MaxCollateral, is refused and the previous field state is kept.
func Accepts(raw string) bool {
	if DecimalCount(raw) > MaxDecimals {
		return false
	}
	if value, ok := Parse(raw); ok && value.GreaterThan(MaxCollateral) {
		return false
	}
	return true
}

func isNumeric(text string) bool {
	digits := 0
	separators := 0
	for i := 0; i < len(text); i++ {
		switch c := text[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			separators++
			if separators > 1 {
				return false
			}
		default:
			return false
		}
	}
	return digits > 0
}
