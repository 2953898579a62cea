package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "authcode"

// Metrics holds the prometheus collectors for the listener
type Metrics struct {
	brokerConnected   prometheus.Gauge
	connectAttempts   prometheus.Counter
	connectFailures   prometheus.Counter
	messagesTotal     *prometheus.CounterVec
	clipboardWrites   *prometheus.CounterVec
	notificationsSent prometheus.Counter
}

// NewMetrics creates and registers all collectors. A nil registerer gets a
// private registry so callers that never expose metrics can still record them.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		brokerConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "broker_connected",
			Help:      "Whether the listener is connected to the broker (1) or not (0)",
		}),
		connectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_attempts_total",
			Help:      "Number of connect and subscribe attempts",
		}),
		connectFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_failures_total",
			Help:      "Number of failed connect or subscribe attempts",
		}),
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Inbound messages by outcome",
		}, []string{"status"}),
		clipboardWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clipboard_writes_total",
			Help:      "Clipboard writes by outcome",
		}, []string{"status"}),
		notificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Desktop notifications dispatched",
		}),
	}

	collectors := []prometheus.Collector{
		m.brokerConnected,
		m.connectAttempts,
		m.connectFailures,
		m.messagesTotal,
		m.clipboardWrites,
		m.notificationsSent,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	return m, nil
}

// SetConnectionStatus records the broker connection state
func (m *Metrics) SetConnectionStatus(connected bool) {
	if connected {
		m.brokerConnected.Set(1)
		return
	}
	m.brokerConnected.Set(0)
}

func (m *Metrics) IncConnectAttempts() {
	m.connectAttempts.Inc()
}

func (m *Metrics) IncConnectFailures() {
	m.connectFailures.Inc()
}

// IncMessagesTotal counts a message; status is received, handled or dropped
func (m *Metrics) IncMessagesTotal(status string) {
	m.messagesTotal.WithLabelValues(status).Inc()
}

// IncClipboardWrites counts a clipboard write; status is success or error
func (m *Metrics) IncClipboardWrites(status string) {
	m.clipboardWrites.WithLabelValues(status).Inc()
}

func (m *Metrics) IncNotifications() {
	m.notificationsSent.Inc()
}
