// Package metrics provides Prometheus metrics for scootlink.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "scootlink"

// Metrics contains every Prometheus collector this module registers, one
// family per protocol stage: discovery, connection, registration, login,
// and the running UART session.
type Metrics struct {
	// Discovery metrics
	DevicesSeen   prometheus.Counter
	ScootersFound prometheus.Counter

	// Connection metrics
	ConnectAttempts prometheus.Counter
	ConnectFailures prometheus.Counter
	Reconnects      prometheus.Counter
	Connected       prometheus.Gauge

	// Registration metrics
	RegistrationAttempts prometheus.Counter
	RegistrationFailures *prometheus.CounterVec
	RegistrationLatency  prometheus.Histogram

	// Login metrics
	LoginAttempts prometheus.Counter
	LoginFailures *prometheus.CounterVec
	LoginLatency  prometheus.Histogram

	// Session metrics
	CommandsSent     prometheus.Counter
	ResponsesDecoded prometheus.Counter
	DecodeErrors     *prometheus.CounterVec
	CommandLatency   prometheus.Histogram
}

var (
	defaultMetrics *Metrics
	metricsOnce    sync.Once
)

// Default returns the process-wide Metrics instance, registered against
// prometheus.DefaultRegisterer on first use.
func Default() *Metrics {
	metricsOnce.Do(func() {
		defaultMetrics = NewMetrics()
	})
	return defaultMetrics
}

// NewMetrics creates a Metrics instance registered against the default
// Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates a Metrics instance registered against reg,
// letting callers (and tests) use a scratch registry instead of the global
// default.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		DevicesSeen: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "devices_seen_total",
			Help:      "Total BLE devices observed during discovery",
		}),
		ScootersFound: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scooters_found_total",
			Help:      "Total devices admitted to the scooter subset",
		}),

		ConnectAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_attempts_total",
			Help:      "Total GATT connect attempts",
		}),
		ConnectFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_failures_total",
			Help:      "Total GATT connect attempts that exhausted their retries",
		}),
		Reconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Total disconnect-wait-connect cycles run",
		}),
		Connected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected",
			Help:      "1 if the current peripheral is connected, 0 otherwise",
		}),

		RegistrationAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registration_attempts_total",
			Help:      "Total pairing attempts started",
		}),
		RegistrationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registration_failures_total",
			Help:      "Total pairing attempts that did not yield a token, by error kind",
		}, []string{"error_kind"}),
		RegistrationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "registration_latency_seconds",
			Help:      "Histogram of successful pairing attempt duration",
			Buckets:   []float64{.5, 1, 2, 5, 10, 20, 30, 60},
		}),

		LoginAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Total login attempts started",
		}),
		LoginFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_failures_total",
			Help:      "Total login attempts that did not yield a session, by error kind",
		}, []string{"error_kind"}),
		LoginLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "login_latency_seconds",
			Help:      "Histogram of successful login attempt duration",
			Buckets:   []float64{.1, .25, .5, 1, 2, 5, 10},
		}),

		CommandsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_sent_total",
			Help:      "Total UART session commands sent",
		}),
		ResponsesDecoded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_decoded_total",
			Help:      "Total UART responses successfully decoded",
		}),
		DecodeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Total UART response decode failures, by query",
		}, []string{"query"}),
		CommandLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_latency_seconds",
			Help:      "Histogram of send-then-read round-trip latency for session commands",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
	}
}

// RecordRegistrationFailure records a failed pairing attempt.
func (m *Metrics) RecordRegistrationFailure(errorKind string) {
	m.RegistrationFailures.WithLabelValues(errorKind).Inc()
}

// RecordRegistrationSuccess records a completed pairing attempt's duration.
func (m *Metrics) RecordRegistrationSuccess(latencySeconds float64) {
	m.RegistrationLatency.Observe(latencySeconds)
}

// RecordLoginFailure records a failed login attempt.
func (m *Metrics) RecordLoginFailure(errorKind string) {
	m.LoginFailures.WithLabelValues(errorKind).Inc()
}

// RecordLoginSuccess records a completed login attempt's duration.
func (m *Metrics) RecordLoginSuccess(latencySeconds float64) {
	m.LoginLatency.Observe(latencySeconds)
}

// RecordCommand records one send-then-read session round trip.
func (m *Metrics) RecordCommand(latencySeconds float64) {
	m.CommandsSent.Inc()
	m.CommandLatency.Observe(latencySeconds)
}

// RecordDecodeError records a typed decoder failing on a short or malformed
// payload for the named query.
func (m *Metrics) RecordDecodeError(query string) {
	m.DecodeErrors.WithLabelValues(query).Inc()
}

// RecordDecodeSuccess records a typed decoder returning successfully.
func (m *Metrics) RecordDecodeSuccess() {
	m.ResponsesDecoded.Inc()
}
