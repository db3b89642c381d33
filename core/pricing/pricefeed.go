package pricing

import (
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// PriceStatus captures the health classification assigned to the latest quote.
type PriceStatus string

const (
	// PriceStatusOK indicates the quote is positive and within the freshness window.
	PriceStatusOK PriceStatus = "ok"
	// PriceStatusStale marks a quote older than the feed MaxAge.
	PriceStatusStale PriceStatus = "stale"
	// PriceStatusMissing indicates no usable quote has been observed yet.
	PriceStatusMissing PriceStatus = "missing"
)

// Quote captures the collateral price in loan asset units together with the
// observation timestamp reported upstream.
type Quote struct {
	Rate      decimal.Decimal
	Timestamp time.Time
	Source    string
}

// Pair names the collateral asset (Base) priced in the loan asset (Quote).
type Pair struct {
	Base  string
	Quote string
}

// String renders the canonical BASE/QUOTE form.
func (p Pair) String() string {
	base := strings.ToUpper(strings.TrimSpace(p.Base))
	quote := strings.ToUpper(strings.TrimSpace(p.Quote))
	return base + "/" + quote
}

// Feed keeps the latest observed quote for one pair and exposes it to loan
// forms. A zero MaxAge disables the freshness check. Feed is safe for
// concurrent use.
type Feed struct {
	mu       sync.RWMutex
	latest   Quote
	observed bool
	maxAge   time.Duration
	clockNow func() time.Time
}

// NewFeed constructs an empty feed with the supplied freshness window.
func NewFeed(maxAge time.Duration) *Feed {
	if maxAge < 0 {
		maxAge = 0
	}
	return &Feed{maxAge: maxAge, clockNow: time.Now}
}

// Update stores quote when it carries a positive rate and does not originate
// from the future. It reports whether the stored rate changed.
func (f *Feed) Update(quote Quote) bool {
	if f == nil || !quote.Rate.IsPositive() {
		return false
	}
	now := f.clockNow()
	if quote.Timestamp.IsZero() {
		quote.Timestamp = now
	}
	if quote.Timestamp.After(now.Add(5 * time.Second)) {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	changed := !f.observed || !f.latest.Rate.Equal(quote.Rate)
	f.latest = quote
	f.observed = true
	return changed
}

// Latest returns the stored quote and its classification.
func (f *Feed) Latest() (Quote, PriceStatus) {
	if f == nil {
		return Quote{}, PriceStatusMissing
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.observed {
		return Quote{}, PriceStatusMissing
	}
	if f.maxAge > 0 && f.clockNow().Sub(f.latest.Timestamp) > f.maxAge {
		return f.latest, PriceStatusStale
	}
	return f.latest, PriceStatusOK
}

// CurrentPrice returns the latest healthy rate, or zero when the feed holds no
// quote or the quote went stale. A zero price leaves loan quantities invalid.
func (f *Feed) CurrentPrice() decimal.Decimal {
	quote, status := f.Latest()
	if status != PriceStatusOK {
		return decimal.Zero
	}
	return quote.Rate
}
