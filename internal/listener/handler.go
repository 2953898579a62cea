package listener

import (
	"authcode-listener/internal/authcode"
	"authcode-listener/internal/clipboard"
	"authcode-listener/internal/logger"
	"authcode-listener/internal/metrics"
	"authcode-listener/internal/notify"
	"authcode-listener/internal/stats"
)

// Handler copies each decoded code to the clipboard and announces it.
// It keeps no per-message state and is safe for overlapping calls.
type Handler struct {
	clipboard clipboard.Sink
	notifier  notify.Notifier
	title     string
	logger    *logger.Logger
	metrics   *metrics.Metrics
	stats     *stats.StatsCollector
}

// NewHandler creates a message handler. m may be nil.
func NewHandler(sink clipboard.Sink, notifier notify.Notifier, title string, log *logger.Logger, m *metrics.Metrics, s *stats.StatsCollector) *Handler {
	if s == nil {
		s = stats.NewStatsCollector()
	}
	return &Handler{
		clipboard: sink,
		notifier:  notifier,
		title:     title,
		logger:    log,
		metrics:   m,
		stats:     s,
	}
}

// HandleMessage processes one inbound message. Every failure is logged and
// swallowed so delivery of later messages is unaffected.
func (h *Handler) HandleMessage(topic string, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			h.drop()
			h.logger.Error("message handler panic recovered", "topic", topic, "panic", r)
		}
	}()

	h.stats.IncReceived()
	h.safeMetricsUpdate(func(m *metrics.Metrics) {
		m.IncMessagesTotal("received")
	})

	p, err := authcode.Decode(payload)
	if err != nil {
		h.drop()
		h.logger.Error("invalid message payload", "topic", topic, "error", err)
		return
	}

	h.logger.Info("received code", "topic", topic, "source", p.Source)
	h.logger.Debug("decoded payload", "topic", topic, "code", p.Code, "source", p.Source)

	if err := h.clipboard.SetText(p.Code); err != nil {
		h.stats.IncClipboardErrors()
		h.safeMetricsUpdate(func(m *metrics.Metrics) {
			m.IncClipboardWrites("error")
		})
		h.drop()
		h.logger.Error("failed to copy code to clipboard", "topic", topic, "source", p.Source, "error", err)
		return
	}
	h.safeMetricsUpdate(func(m *metrics.Metrics) {
		m.IncClipboardWrites("success")
	})

	h.notifier.Notify(h.title, p.Message())
	h.safeMetricsUpdate(func(m *metrics.Metrics) {
		m.IncNotifications()
		m.IncMessagesTotal("handled")
	})
	h.stats.IncHandled()
}

func (h *Handler) drop() {
	h.stats.IncDropped()
	h.safeMetricsUpdate(func(m *metrics.Metrics) {
		m.IncMessagesTotal("dropped")
	})
}

// safeMetricsUpdate safely updates metrics if they are enabled
func (h *Handler) safeMetricsUpdate(fn func(*metrics.Metrics)) {
	if h.metrics != nil {
		fn(h.metrics)
	}
}
