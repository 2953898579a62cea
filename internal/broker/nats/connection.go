package nats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"authcode-listener/config"
	"authcode-listener/internal/broker"
	"authcode-listener/internal/logger"
	"authcode-listener/internal/metrics"
)

const (
	clientName     = "authcode-listener"
	connectTimeout = 10 * time.Second
	flushTimeout   = 5 * time.Second
)

// Connection implements broker.Connection for a NATS server
type Connection struct {
	cfg     config.NATSConfig
	logger  *logger.Logger
	metrics *metrics.Metrics

	// dial is swapped out in tests
	dial func(url string, opts ...nats.Option) (*nats.Conn, error)

	mu   sync.RWMutex
	conn *nats.Conn
}

// NewConnection creates a disconnected NATS connection
func NewConnection(cfg config.NATSConfig, log *logger.Logger, m *metrics.Metrics) *Connection {
	return &Connection{
		cfg:     cfg,
		logger:  log,
		metrics: m,
		dial:    nats.Connect,
	}
}

// options builds the client options. Reconnects are left to the listener loop.
func (c *Connection) options() []nats.Option {
	opts := []nats.Option{
		nats.Name(clientName),
		nats.Timeout(connectTimeout),
		nats.NoReconnect(),
		nats.DisconnectErrHandler(c.handleDisconnect),
		nats.ClosedHandler(c.handleClosed),
	}

	if c.cfg.Username != "" {
		opts = append(opts, nats.UserInfo(c.cfg.Username, c.cfg.Password))
	}

	return opts
}

type dialResult struct {
	conn *nats.Conn
	err  error
}

// Connect establishes connection to the NATS server
func (c *Connection) Connect(ctx context.Context) error {
	result := make(chan dialResult, 1)
	go func() {
		conn, err := c.dial(c.cfg.URL, c.options()...)
		result <- dialResult{conn: conn, err: err}
	}()

	select {
	case r := <-result:
		if r.err != nil {
			return fmt.Errorf("failed to connect to NATS server: %w", r.err)
		}
		c.mu.Lock()
		c.conn = r.conn
		c.mu.Unlock()
		c.safeMetricsUpdate(func(m *metrics.Metrics) {
			m.SetConnectionStatus(true)
		})
		c.logger.Info("nats client connected", "url", c.cfg.URL)
		return nil
	case <-ctx.Done():
		// Close the connection if the dial still succeeds.
		go func() {
			if r := <-result; r.err == nil {
				r.conn.Close()
			}
		}()
		return ctx.Err()
	}
}

// Subscribe subscribes handler to subject and flushes to confirm the interest
func (c *Connection) Subscribe(ctx context.Context, subject string, handler broker.MessageHandler) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil || !conn.IsConnected() {
		return broker.ErrNotConnected
	}

	if _, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	}); err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	flushCtx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	if err := conn.FlushWithContext(flushCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to flush subscription %s: %w", subject, err)
	}

	return nil
}

// IsConnected returns current connection status
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && c.conn.IsConnected()
}

// Disconnect closes the NATS connection
func (c *Connection) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return
	}

	c.logger.Info("disconnecting from nats server", "url", c.cfg.URL)
	conn.Close()
}

// Address returns the server URL
func (c *Connection) Address() string {
	return c.cfg.URL
}

func (c *Connection) handleDisconnect(_ *nats.Conn, err error) {
	if err != nil {
		c.logger.Error("nats connection lost", "url", c.cfg.URL, "error", err)
	}
	c.safeMetricsUpdate(func(m *metrics.Metrics) {
		m.SetConnectionStatus(false)
	})
}

func (c *Connection) handleClosed(_ *nats.Conn) {
	c.logger.Debug("nats connection closed", "url", c.cfg.URL)
}

// safeMetricsUpdate safely updates metrics if they are enabled
func (c *Connection) safeMetricsUpdate(fn func(*metrics.Metrics)) {
	if c.metrics != nil {
		fn(c.metrics)
	}
}
