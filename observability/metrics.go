package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LoanFormMetrics records loan form activity: collateral edits, price driven
// re-derivations, submissions and open sessions.
type LoanFormMetrics struct {
	inputs        *prometheus.CounterVec
	priceUpdates  *prometheus.CounterVec
	submits       *prometheus.CounterVec
	submitLatency *prometheus.HistogramVec
	sessions      prometheus.Gauge
}

var (
	loanFormOnce     sync.Once
	loanFormRegistry *LoanFormMetrics
)

// LoanForm returns the lazily-initialised loan form metrics registered with
// the default prometheus registry.
func LoanForm() *LoanFormMetrics {
	loanFormOnce.Do(func() {
		loanFormRegistry = NewLoanFormMetrics(prometheus.DefaultRegisterer)
	})
	return loanFormRegistry
}

// NewLoanFormMetrics constructs loan form metrics registered with reg.
func NewLoanFormMetrics(reg prometheus.Registerer) *LoanFormMetrics {
	m := &LoanFormMetrics{
		inputs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lendview",
			Subsystem: "loan_form",
			Name:      "inputs_total",
			Help:      "Collateral edits segmented by resulting field status; rejected edits use status=rejected.",
		}, []string{"status"}),
		priceUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lendview",
			Subsystem: "loan_form",
			Name:      "price_updates_total",
			Help:      "Loan re-derivations triggered by price changes segmented by quote status.",
		}, []string{"price_status"}),
		submits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lendview",
			Subsystem: "loan_form",
			Name:      "submits_total",
			Help:      "Loan submissions segmented by outcome and failure reason.",
		}, []string{"outcome", "reason"}),
		submitLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lendview",
			Subsystem: "loan_form",
			Name:      "submit_duration_seconds",
			Help:      "Latency of the transaction submission collaborator.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lendview",
			Subsystem: "loan_form",
			Name:      "open_sessions",
			Help:      "Loan form sessions currently mounted.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.inputs, m.priceUpdates, m.submits, m.submitLatency, m.sessions)
	}
	return m
}

// RecordInput counts one collateral edit.
func (m *LoanFormMetrics) RecordInput(status string, accepted bool) {
	if m == nil {
		return
	}
	if !accepted {
		status = "rejected"
	}
	m.inputs.WithLabelValues(label(status)).Inc()
}

// RecordPriceUpdate counts one price driven re-derivation.
func (m *LoanFormMetrics) RecordPriceUpdate(priceStatus string) {
	if m == nil {
		return
	}
	m.priceUpdates.WithLabelValues(label(priceStatus)).Inc()
}

// RecordSubmit counts one submission and observes its latency. Reason should
// be empty for successful submissions.
func (m *LoanFormMetrics) RecordSubmit(outcome, reason string, duration time.Duration) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "none"
	}
	outcome = label(outcome)
	m.submits.WithLabelValues(outcome, label(reason)).Inc()
	if duration > 0 {
		m.submitLatency.WithLabelValues(outcome).Observe(duration.Seconds())
	}
}

// SessionOpened increments the open session gauge.
func (m *LoanFormMetrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessions.Inc()
}

// SessionClosed decrements the open session gauge.
func (m *LoanFormMetrics) SessionClosed() {
	if m == nil {
		return
	}
	m.sessions.Dec()
}

func label(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
