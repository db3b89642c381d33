package notify

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultRateLimit is the webhook budget of one session per window.
	DefaultRateLimit = 30

	defaultRateWindow = time.Minute
	defaultIdleTTL    = 10 * time.Minute
	defaultMaxKeys    = 4096
)

type sessionBudget struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per session so a chatty form cannot
// flood the webhook. A bucket holds limit deliveries and refills over the
// window. Buckets idle for longer than the TTL are dropped, and the oldest
// bucket is evicted once MaxKeys sessions are tracked.
type RateLimiter struct {
	every   rate.Limit
	burst   int
	idleTTL time.Duration
	maxKeys int

	mu        sync.Mutex
	budgets   map[string]*sessionBudget
	lastPrune time.Time
}

// RateLimiterOption tunes a RateLimiter.
type RateLimiterOption func(*rateLimiterSettings)

type rateLimiterSettings struct {
	window  time.Duration
	idleTTL time.Duration
	maxKeys int
}

// WithRateWindow sets the period over which limit deliveries refill.
func WithRateWindow(d time.Duration) RateLimiterOption {
	return func(s *rateLimiterSettings) { s.window = d }
}

// WithIdleTTL sets how long an unused session bucket is kept.
func WithIdleTTL(d time.Duration) RateLimiterOption {
	return func(s *rateLimiterSettings) { s.idleTTL = d }
}

// WithMaxKeys bounds the number of tracked sessions. Zero means unbounded.
func WithMaxKeys(n int) RateLimiterOption {
	return func(s *rateLimiterSettings) { s.maxKeys = n }
}

// NewRateLimiter allows limit deliveries per session and window. A limit of
// zero or less selects DefaultRateLimit.
func NewRateLimiter(limit int, opts ...RateLimiterOption) *RateLimiter {
	settings := rateLimiterSettings{
		window:  defaultRateWindow,
		idleTTL: defaultIdleTTL,
		maxKeys: defaultMaxKeys,
	}
	for _, opt := range opts {
		opt(&settings)
	}
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if settings.window <= 0 {
		settings.window = defaultRateWindow
	}
	if settings.maxKeys < 0 {
		settings.maxKeys = 0
	}
	return &RateLimiter{
		every:   rate.Every(settings.window / time.Duration(limit)),
		burst:   limit,
		idleTTL: settings.idleTTL,
		maxKeys: settings.maxKeys,
		budgets: make(map[string]*sessionBudget),
	}
}

// Allow consumes one delivery from the bucket of key at now.
func (rl *RateLimiter) Allow(key string, now time.Time) bool {
	return rl.budget(key, now).AllowN(now, 1)
}

// Len reports how many session buckets are tracked.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.budgets)
}

func (rl *RateLimiter) budget(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.idleTTL > 0 && now.Sub(rl.lastPrune) > rl.idleTTL {
		for k, b := range rl.budgets {
			if now.Sub(b.lastSeen) > rl.idleTTL {
				delete(rl.budgets, k)
			}
		}
		rl.lastPrune = now
	}
	if b, ok := rl.budgets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}
	if rl.maxKeys > 0 && len(rl.budgets) >= rl.maxKeys {
		rl.evictOldestLocked()
	}
	limiter := rate.NewLimiter(rl.every, rl.burst)
	rl.budgets[key] = &sessionBudget{limiter: limiter, lastSeen: now}
	return limiter
}

func (rl *RateLimiter) evictOldestLocked() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for k, b := range rl.budgets {
		if !found || b.lastSeen.Before(oldest) {
			oldestKey, oldest, found = k, b.lastSeen, true
		}
	}
	if found {
		delete(rl.budgets, oldestKey)
	}
}
