package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CommandMetrics provides observability for protocol command handling.
//
// This interface is optional - components handed a no-op implementation
// proceed without metrics collection.
type CommandMetrics interface {
	// RecordCommand records a completed command with its verb,
	// duration, and outcome.
	RecordCommand(verb string, duration time.Duration, err error)

	// SetActiveSessions updates the count of logged-in sessions.
	SetActiveSessions(count int)

	// SetActiveConnections updates the current connection count.
	SetActiveConnections(count int)

	// RecordConnectionAccepted increments the accepted connections counter.
	RecordConnectionAccepted()

	// RecordConnectionClosed increments the closed connections counter.
	RecordConnectionClosed()
}

// commandMetrics is the Prometheus implementation of CommandMetrics.
type commandMetrics struct {
	commandsTotal     *prometheus.CounterVec
	commandDuration   *prometheus.HistogramVec
	activeSessions    prometheus.Gauge
	activeConnections prometheus.Gauge
	connsAccepted     prometheus.Counter
	connsClosed       prometheus.Counter
}

// NewCommandMetrics creates a new Prometheus-backed CommandMetrics
// instance.
//
// Returns a no-op implementation if metrics are not enabled
// (InitRegistry not called).
func NewCommandMetrics() CommandMetrics {
	if !IsEnabled() {
		return noopCommandMetrics{}
	}

	reg := GetRegistry()

	return &commandMetrics{
		commandsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookmarkd_commands_total",
				Help: "Total number of commands by verb and status",
			},
			[]string{"verb", "status"},
		),
		commandDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "bookmarkd_command_duration_seconds",
				Help: "Duration of command handling in seconds",
				Buckets: []float64{
					0.001, // 1ms
					0.005, // 5ms
					0.01,  // 10ms
					0.05,  // 50ms
					0.1,   // 100ms
					0.5,   // 500ms
					1,
					5, // cleanup probes many URLs
				},
			},
			[]string{"verb"},
		),
		activeSessions: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "bookmarkd_active_sessions",
				Help: "Number of logged-in sessions",
			},
		),
		activeConnections: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "bookmarkd_active_connections",
				Help: "Number of open client connections",
			},
		),
		connsAccepted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "bookmarkd_connections_accepted_total",
				Help: "Total number of accepted connections",
			},
		),
		connsClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "bookmarkd_connections_closed_total",
				Help: "Total number of closed connections",
			},
		),
	}
}

func (m *commandMetrics) RecordCommand(verb string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.commandsTotal.WithLabelValues(verb, status).Inc()
	m.commandDuration.WithLabelValues(verb).Observe(duration.Seconds())
}

func (m *commandMetrics) SetActiveSessions(count int) {
	m.activeSessions.Set(float64(count))
}

func (m *commandMetrics) SetActiveConnections(count int) {
	m.activeConnections.Set(float64(count))
}

func (m *commandMetrics) RecordConnectionAccepted() {
	m.connsAccepted.Inc()
}

func (m *commandMetrics) RecordConnectionClosed() {
	m.connsClosed.Inc()
}

// noopCommandMetrics is a no-op implementation of CommandMetrics with
// zero overhead.
type noopCommandMetrics struct{}

func (noopCommandMetrics) RecordCommand(verb string, duration time.Duration, err error) {}
func (noopCommandMetrics) SetActiveSessions(count int)                                  {}
func (noopCommandMetrics) SetActiveConnections(count int)                               {}
func (noopCommandMetrics) RecordConnectionAccepted()                                    {}
func (noopCommandMetrics) RecordConnectionClosed()                                      {}
