package goSession

import internalmetrics "github.com/MrEthical07/goSession/internal/metrics"

// MetricID identifies a counter or histogram exposed by [Manager.MetricsSnapshot].
type MetricID = internalmetrics.MetricID

const (
	MetricLoginSuccess           = internalmetrics.MetricLoginSuccess
	MetricLoginFailure           = internalmetrics.MetricLoginFailure
	MetricRegisterSuccess        = internalmetrics.MetricRegisterSuccess
	MetricRegisterFailure        = internalmetrics.MetricRegisterFailure
	MetricRegisterRejected       = internalmetrics.MetricRegisterRejected
	MetricLogout                 = internalmetrics.MetricLogout
	MetricForcedLogout           = internalmetrics.MetricForcedLogout
	MetricIdentityUpdated        = internalmetrics.MetricIdentityUpdated
	MetricRefreshSuccess         = internalmetrics.MetricRefreshSuccess
	MetricRefreshFailure         = internalmetrics.MetricRefreshFailure
	MetricResolvePrimary         = internalmetrics.MetricResolvePrimary
	MetricResolveEnriched        = internalmetrics.MetricResolveEnriched
	MetricResolveShadowFallback  = internalmetrics.MetricResolveShadowFallback
	MetricResolveUnauthenticated = internalmetrics.MetricResolveUnauthenticated
	MetricStorageError           = internalmetrics.MetricStorageError
	// MetricAuthLatency is the only histogram: endpoint round trip of Login and Register.
	MetricAuthLatency = internalmetrics.MetricAuthLatency
)

// Metrics is the counter store owned by a Manager.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a standalone metrics store, mostly useful for exporters in tests.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:                 cfg.Enabled,
		EnableLatencyHistograms: cfg.EnableLatencyHistograms,
	})
}

// MetricsSnapshot returns the manager's current counters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return m.metrics.Snapshot()
}

func (m *Manager) metricInc(id MetricID) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.Inc(id)
}
