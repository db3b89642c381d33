package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrRateLimited is returned when a recipient exceeded its delivery budget.
var ErrRateLimited = errors.New("notify: webhook rate limit exceeded")

// WebhookConfig configures a WebhookNotifier. Limit deliveries per session
// refill over Window; zero values select DefaultRateLimit per minute.
type WebhookConfig struct {
	URL     string
	Secret  string
	Limit   int
	Window  time.Duration
	Timeout time.Duration
}

// WebhookNotifier posts notifications as JSON to an HTTP endpoint.
type WebhookNotifier struct {
	url      string
	secret   string
	client   *http.Client
	limiter  *RateLimiter
	clockNow func() time.Time
}

// NewWebhookNotifier constructs a webhook notifier.
func NewWebhookNotifier(cfg WebhookConfig) (*WebhookNotifier, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, fmt.Errorf("notify: webhook url required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		url:      url,
		secret:   strings.TrimSpace(cfg.Secret),
		client:   &http.Client{Timeout: timeout},
		limiter:  NewRateLimiter(cfg.Limit, WithRateWindow(cfg.Window)),
		clockNow: time.Now,
	}, nil
}

// Notify implements Notifier. Deliveries are rate limited per session.
func (w *WebhookNotifier) Notify(ctx context.Context, n Notification) error {
	now := w.clockNow()
	if n.Time.IsZero() {
		n.Time = now.UTC()
	}
	key := n.Session
	if key == "" {
		key = "global"
	}
	if !w.limiter.Allow(key, now) {
		return ErrRateLimited
	}
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notify: encode notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.secret != "" {
		req.Header.Set("X-Lendview-Secret", w.secret)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: deliver webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify: webhook responded %s", resp.Status)
	}
	return nil
}
