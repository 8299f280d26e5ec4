// Package metrics exposes Prometheus instrumentation for the sync client.
// Every method is safe to call on a nil *Metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "bitdeck"

// Metrics groups the client's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	snapshots      *prometheus.CounterVec
	malformed      *prometheus.CounterVec
	pollFailures   prometheus.Counter
	liveConnected  prometheus.Gauge
	liveReconnects prometheus.Counter
	actions        *prometheus.CounterVec
	torrents       prometheus.Gauge
	lastSnapshot   prometheus.Gauge
}

// New builds and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_applied_total",
			Help:      "Snapshots accepted into the store, by channel.",
		}, []string{"source"}),
		malformed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_payloads_total",
			Help:      "Payloads discarded because they did not decode as a snapshot.",
		}, []string{"source"}),
		pollFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_failures_total",
			Help:      "Failed snapshot polls.",
		}),
		liveConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_connected",
			Help:      "1 while the live channel is open.",
		}),
		liveReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_reconnects_scheduled_total",
			Help:      "Reconnect timers armed after the live channel closed.",
		}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Operator actions by kind and outcome.",
		}, []string{"action", "result"}),
		torrents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "torrents",
			Help:      "Torrents in the current snapshot.",
		}),
		lastSnapshot: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_snapshot_timestamp_seconds",
			Help:      "Unix time of the last accepted snapshot.",
		}),
	}
	m.registry.MustRegister(
		m.snapshots,
		m.malformed,
		m.pollFailures,
		m.liveConnected,
		m.liveReconnects,
		m.actions,
		m.torrents,
		m.lastSnapshot,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the registry backing the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// SnapshotApplied records an accepted snapshot.
func (m *Metrics) SnapshotApplied(source string, torrents int, at time.Time) {
	if m == nil {
		return
	}
	m.snapshots.WithLabelValues(source).Inc()
	m.torrents.Set(float64(torrents))
	m.lastSnapshot.Set(float64(at.Unix()))
}

// MalformedPayload records a discarded payload.
func (m *Metrics) MalformedPayload(source string) {
	if m == nil {
		return
	}
	m.malformed.WithLabelValues(source).Inc()
}

// PollFailed records a failed poll.
func (m *Metrics) PollFailed() {
	if m == nil {
		return
	}
	m.pollFailures.Inc()
}

// LiveConnected tracks whether the live channel is open.
func (m *Metrics) LiveConnected(open bool) {
	if m == nil {
		return
	}
	if open {
		m.liveConnected.Set(1)
		return
	}
	m.liveConnected.Set(0)
}

// ReconnectScheduled records an armed reconnect timer.
func (m *Metrics) ReconnectScheduled() {
	if m == nil {
		return
	}
	m.liveReconnects.Inc()
}

// ActionFinished records the outcome of an operator action.
func (m *Metrics) ActionFinished(action string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.actions.WithLabelValues(action, result).Inc()
}
