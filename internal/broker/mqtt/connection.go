package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"authcode-listener/config"
	"authcode-listener/internal/broker"
	"authcode-listener/internal/logger"
	"authcode-listener/internal/metrics"
)

// ErrSubscriptionRejected is returned when the broker refuses a subscription
var ErrSubscriptionRejected = errors.New("broker rejected subscription")

// subscribeResult is satisfied by *pahomqtt.SubscribeToken
type subscribeResult interface {
	Result() map[string]byte
}

// Connection implements broker.Connection on top of paho
type Connection struct {
	cfg     config.MQTTConfig
	client  pahomqtt.Client
	logger  *logger.Logger
	metrics *metrics.Metrics

	// mu serializes connect attempts only; the paho client is goroutine-safe
	mu sync.Mutex
}

// NewConnection creates a disconnected MQTT connection
func NewConnection(cfg config.MQTTConfig, log *logger.Logger, m *metrics.Metrics) *Connection {
	c := &Connection{
		cfg:     cfg,
		logger:  log,
		metrics: m,
	}

	opts := buildClientOptions(cfg)
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleConnect()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleConnectionLost(err)
	})

	c.client = pahomqtt.NewClient(opts)
	return c
}

// NewConnectionWithClient creates a connection around a provided client (for testing)
func NewConnectionWithClient(cfg config.MQTTConfig, log *logger.Logger, m *metrics.Metrics, client pahomqtt.Client) *Connection {
	return &Connection{
		cfg:     cfg,
		client:  client,
		logger:  log,
		metrics: m,
	}
}

// Connect establishes the connection to the MQTT broker
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	token := c.client.Connect()
	if err := c.wait(ctx, token); err != nil {
		if ctx.Err() != nil {
			// The attempt keeps running inside paho; close it if it lands.
			go c.discard(token)
			return ctx.Err()
		}
		return fmt.Errorf("failed to connect to broker: %w", err)
	}

	c.safeMetricsUpdate(func(m *metrics.Metrics) {
		m.SetConnectionStatus(true)
	})
	return nil
}

// Subscribe subscribes handler to topic
func (c *Connection) Subscribe(ctx context.Context, topic string, handler broker.MessageHandler) error {
	if !c.IsConnected() {
		return broker.ErrNotConnected
	}

	token := c.client.Subscribe(topic, subscribeQoS, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if err := c.wait(ctx, token); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}

	// paho leaves Error nil when the SUBACK carries the failure return code
	if st, ok := token.(subscribeResult); ok {
		if code, found := st.Result()[topic]; found && code == subackFailure {
			return fmt.Errorf("%w: %s", ErrSubscriptionRejected, topic)
		}
	}
	return nil
}

// IsConnected returns current connection status
func (c *Connection) IsConnected() bool {
	return c.client.IsConnected()
}

// Disconnect cleanly disconnects from the MQTT broker
func (c *Connection) Disconnect() {
	c.logger.Info("disconnecting from mqtt broker", "broker", c.Address())
	c.client.Disconnect(disconnectQuiesce)
	c.safeMetricsUpdate(func(m *metrics.Metrics) {
		m.SetConnectionStatus(false)
	})
}

// Address returns the broker URL
func (c *Connection) Address() string {
	return brokerURL(c.cfg)
}

// wait blocks until the token completes or ctx ends
func (c *Connection) wait(ctx context.Context, token pahomqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// discard disconnects a connect attempt that completed after it was abandoned
func (c *Connection) discard(token pahomqtt.Token) {
	<-token.Done()
	if token.Error() == nil {
		c.client.Disconnect(0)
	}
}

// handleConnect processes successful connections
func (c *Connection) handleConnect() {
	c.logger.Info("mqtt client connected", "broker", c.Address())
}

// handleConnectionLost processes connection loss
func (c *Connection) handleConnectionLost(err error) {
	c.logger.Error("mqtt connection lost", "broker", c.Address(), "error", err)
	c.safeMetricsUpdate(func(m *metrics.Metrics) {
		m.SetConnectionStatus(false)
	})
}

// safeMetricsUpdate safely updates metrics if they are enabled
func (c *Connection) safeMetricsUpdate(fn func(*metrics.Metrics)) {
	if c.metrics != nil {
		fn(c.metrics)
	}
}
