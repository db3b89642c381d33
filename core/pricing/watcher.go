package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Source fetches the current collateral quote for pair, typically from an on-chain oracle.
type Source interface {
	Name() string
	Fetch(ctx context.Context, base, quote string) (Quote, error)
}

// Listener receives the quote and status after every observable change.
type Listener func(Quote, PriceStatus)

// Watcher polls a Source and forwards price changes to subscribed forms.
type Watcher struct {
	logger   *slog.Logger
	source   Source
	feed     *Feed
	pair     Pair
	interval time.Duration

	mu         sync.Mutex
	nextID     int
	listeners  map[int]Listener
	lastStatus PriceStatus
	once       sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger routes watcher diagnostics to logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// NewWatcher constructs a watcher for pair.
func NewWatcher(source Source, feed *Feed, pair Pair, interval time.Duration, opts ...Option) (*Watcher, error) {
	if source == nil {
		return nil, fmt.Errorf("pricing: source required")
	}
	if feed == nil {
		return nil, fmt.Errorf("pricing: feed required")
	}
	if strings.TrimSpace(pair.Base) == "" || strings.TrimSpace(pair.Quote) == "" {
		return nil, fmt.Errorf("pricing: invalid pair %q", pair.String())
	}
	if interval <= 0 {
		return nil, fmt.Errorf("pricing: interval must be positive")
	}
	w := &Watcher{
		logger:     slog.Default(),
		source:     source,
		feed:       feed,
		pair:       pair,
		interval:   interval,
		listeners:  make(map[int]Listener),
		lastStatus: PriceStatusMissing,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w, nil
}

// Subscribe registers fn for price changes and returns a function removing it.
func (w *Watcher) Subscribe(fn Listener) func() {
	if w == nil || fn == nil {
		return func() {}
	}
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.listeners[id] = fn
	w.mu.Unlock()
	return func() {
		w.mu.Lock()
		delete(w.listeners, id)
		w.mu.Unlock()
	}
}

// Run blocks, periodically polling the source until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w == nil {
		return fmt.Errorf("pricing: watcher not configured")
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.once.Do(func() {
		w.logger.Info("price watcher started", "pair", w.pair.String(), "source", w.source.Name())
	})
	for {
		if err := w.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Warn("price tick failed", "pair", w.pair.String(), "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick fetches one quote and notifies listeners when the rate or the quote
// status changed.
func (w *Watcher) Tick(ctx context.Context) error {
	if w == nil {
		return fmt.Errorf("pricing: watcher not configured")
	}
	quote, err := w.source.Fetch(ctx, w.pair.Base, w.pair.Quote)
	if err != nil {
		w.notifyIfStatusChanged()
		return fmt.Errorf("fetch %s from %s: %w", w.pair.String(), w.source.Name(), err)
	}
	if quote.Source == "" {
		quote.Source = w.source.Name()
	}
	if !quote.Rate.IsPositive() {
		w.notifyIfStatusChanged()
		return fmt.Errorf("source %s returned non-positive rate %s", w.source.Name(), quote.Rate)
	}
	changed := w.feed.Update(quote)
	if changed {
		latest, status := w.feed.Latest()
		w.broadcast(latest, status)
		return nil
	}
	w.notifyIfStatusChanged()
	return nil
}

func (w *Watcher) notifyIfStatusChanged() {
	latest, status := w.feed.Latest()
	w.mu.Lock()
	same := status == w.lastStatus
	w.mu.Unlock()
	if !same {
		w.broadcast(latest, status)
	}
}

func (w *Watcher) broadcast(quote Quote, status PriceStatus) {
	w.mu.Lock()
	w.lastStatus = status
	listeners := make([]Listener, 0, len(w.listeners))
	for _, fn := range w.listeners {
		listeners = append(listeners, fn)
	}
	w.mu.Unlock()
	for _, fn := range listeners {
		fn(quote, status)
	}
}
