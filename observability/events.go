package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// StakingMetrics tracks navigation on the staking page.
type StakingMetrics struct {
	tabSwitches *prometheus.CounterVec
}

var (
	stakingOnce     sync.Once
	stakingRegistry *StakingMetrics
)

// Staking returns the metrics registry tracking staking page navigation.
func Staking() *StakingMetrics {
	stakingOnce.Do(func() {
		stakingRegistry = NewStakingMetrics(prometheus.DefaultRegisterer)
	})
	return stakingRegistry
}

// NewStakingMetrics constructs staking metrics registered with reg.
func NewStakingMetrics(reg prometheus.Registerer) *StakingMetrics {
	m := &StakingMetrics{
		tabSwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lendview",
			Subsystem: "staking",
			Name:      "tab_switches_total",
			Help:      "Count of staking page tab switches segmented by destination tab.",
		}, []string{"tab"}),
	}
	if reg != nil {
		reg.MustRegister(m.tabSwitches)
	}
	return m
}

// RecordTabSwitch increments the switch counter for the destination tab.
func (m *StakingMetrics) RecordTabSwitch(tab string) {
	if m == nil {
		return
	}
	m.tabSwitches.WithLabelValues(label(tab)).Inc()
}
