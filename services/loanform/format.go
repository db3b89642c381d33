package loanform

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	amountFractionDigits  = 6
	percentFractionDigits = 2
)

var displayPrinter = message.NewPrinter(language.English)

// FormatAmount renders a loan amount with digit grouping for display. The
// exact value travels separately in Snapshot.
func FormatAmount(amount decimal.Decimal) string {
	return displayPrinter.Sprint(number.Decimal(amount.InexactFloat64(), number.MaxFractionDigits(amountFractionDigits)))
}

// FormatPercent renders a rate between 0 and 1 as a percentage.
func FormatPercent(rate decimal.Decimal) string {
	return displayPrinter.Sprint(number.Percent(rate.InexactFloat64(), number.MaxFractionDigits(percentFractionDigits)))
}
