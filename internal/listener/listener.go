// Package listener keeps a broker subscription alive and dispatches inbound
// verification codes to the clipboard and the desktop notifier.
package listener

import (
	"context"
	"errors"
	"time"

	"authcode-listener/internal/broker"
	"authcode-listener/internal/logger"
	"authcode-listener/internal/metrics"
	"authcode-listener/internal/stats"
)

// DefaultInterval is the fixed pause between connection checks
const DefaultInterval = 5 * time.Second

// Listener runs the reconnect loop. It owns its broker connection
// exclusively.
type Listener struct {
	conn     broker.Connection
	topic    string
	handler  broker.MessageHandler
	interval time.Duration
	logger   *logger.Logger
	metrics  *metrics.Metrics
	stats    *stats.StatsCollector
}

// Option configures a Listener
type Option func(*Listener)

// WithInterval overrides the pause between connection checks
func WithInterval(d time.Duration) Option {
	return func(l *Listener) {
		l.interval = d
	}
}

// WithMetrics records connection attempts in m
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Listener) {
		l.metrics = m
	}
}

// WithStats records connection attempts in s
func WithStats(s *stats.StatsCollector) Option {
	return func(l *Listener) {
		l.stats = s
	}
}

// New creates a listener that subscribes handler to topic on conn
func New(conn broker.Connection, topic string, handler broker.MessageHandler, log *logger.Logger, opts ...Option) *Listener {
	l := &Listener{
		conn:     conn,
		topic:    topic,
		handler:  handler,
		interval: DefaultInterval,
		logger:   log,
		stats:    stats.NewStatsCollector(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run checks the connection every interval and reconnects when it is down.
// It returns when ctx ends, after disconnecting from the broker.
func (l *Listener) Run(ctx context.Context) error {
	l.logger.Info("starting verification code listener", "broker", l.conn.Address(), "topic", l.topic)
	defer l.stop()

	for ctx.Err() == nil {
		l.ensureConnected(ctx)

		timer := time.NewTimer(l.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
	return nil
}

// ensureConnected makes one connect and subscribe attempt if disconnected
func (l *Listener) ensureConnected(ctx context.Context) {
	if l.conn.IsConnected() {
		return
	}

	l.logger.Info("connecting to broker", "broker", l.conn.Address())
	l.stats.IncConnectAttempts()
	l.safeMetricsUpdate(func(m *metrics.Metrics) {
		m.IncConnectAttempts()
	})

	err := l.connect(ctx)
	if err == nil {
		l.logger.Info("subscribed to topic", "topic", l.topic)
		return
	}

	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return
	}

	l.stats.IncConnectFailures()
	l.safeMetricsUpdate(func(m *metrics.Metrics) {
		m.IncConnectFailures()
	})
	l.logger.Error("connection failed", "broker", l.conn.Address(), "error", err)
}

func (l *Listener) connect(ctx context.Context) error {
	if err := l.conn.Connect(ctx); err != nil {
		return err
	}
	if err := l.conn.Subscribe(ctx, l.topic, l.handler); err != nil {
		// Drop the half-open session so the next pass retries both steps.
		if l.conn.IsConnected() {
			l.conn.Disconnect()
		}
		return err
	}
	return nil
}

func (l *Listener) stop() {
	l.logger.Info("stopping verification code listener")
	if l.conn.IsConnected() {
		l.conn.Disconnect()
	}
	l.logger.Info("listener stopped", l.stats.LogArgs()...)
}

// safeMetricsUpdate safely updates metrics if they are enabled
func (l *Listener) safeMetricsUpdate(fn func(*metrics.Metrics)) {
	if l.metrics != nil {
		fn(l.metrics)
	}
}
