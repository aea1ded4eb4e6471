package transport

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for a Transport.
type Metrics struct {
	framesSent        *prometheus.CounterVec
	framesReceived    *prometheus.CounterVec
	reconnectAttempts prometheus.Counter
	connectionState   prometheus.Gauge
	queueDepth        prometheus.Gauge
	messagesDropped   prometheus.Counter
	errorsTotal       *prometheus.CounterVec
}

// newMetrics creates and registers transport metrics. Returns nil when no
// registerer is configured; all call sites nil-check.
func newMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		return nil
	}

	m := &Metrics{
		framesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realtime",
			Subsystem: "transport",
			Name:      "frames_sent_total",
			Help:      "Total STOMP frames sent",
		}, []string{"command"}),

		framesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realtime",
			Subsystem: "transport",
			Name:      "frames_received_total",
			Help:      "Total STOMP frames received",
		}, []string{"command"}),

		reconnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "realtime",
			Subsystem: "transport",
			Name:      "reconnect_attempts_total",
			Help:      "Total reconnection attempts",
		}),

		connectionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "realtime",
			Subsystem: "transport",
			Name:      "connection_state",
			Help:      "Connection state (0=disconnected, 1=connecting, 2=connected, 3=reconnecting)",
		}),

		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "realtime",
			Subsystem: "transport",
			Name:      "queue_depth",
			Help:      "Current outbound queue depth",
		}),

		messagesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "realtime",
			Subsystem: "transport",
			Name:      "messages_dropped_total",
			Help:      "Outbound messages dropped by the queue overflow policy",
		}),

		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realtime",
			Subsystem: "transport",
			Name:      "errors_total",
			Help:      "Total errors surfaced to listeners",
		}, []string{"kind"}),
	}

	registerer.MustRegister(
		m.framesSent,
		m.framesReceived,
		m.reconnectAttempts,
		m.connectionState,
		m.queueDepth,
		m.messagesDropped,
		m.errorsTotal,
	)
	return m
}

func (m *Metrics) frameSent(command string) {
	if m != nil {
		m.framesSent.WithLabelValues(command).Inc()
	}
}

func (m *Metrics) frameReceived(command string) {
	if m != nil {
		m.framesReceived.WithLabelValues(command).Inc()
	}
}

func (m *Metrics) reconnectAttempt() {
	if m != nil {
		m.reconnectAttempts.Inc()
	}
}

func (m *Metrics) stateChanged(s State) {
	if m != nil {
		m.connectionState.Set(float64(s))
	}
}

func (m *Metrics) setQueueDepth(n int) {
	if m != nil {
		m.queueDepth.Set(float64(n))
	}
}

func (m *Metrics) messageDropped() {
	if m != nil {
		m.messagesDropped.Inc()
	}
}

func (m *Metrics) errorSurfaced(kind string) {
	if m != nil {
		m.errorsTotal.WithLabelValues(kind).Inc()
	}
}
