// Package broker defines the transport seam between the reconnect loop and
// the message bus client. Implementations live in the mqtt and nats
// subpackages.
package broker

import (
	"context"
	"errors"
)

// ErrNotConnected is returned by operations that need a live connection
var ErrNotConnected = errors.New("not connected to broker")

// MessageHandler receives the topic and raw body of one inbound message.
// Implementations may deliver messages from their own goroutines.
type MessageHandler func(topic string, payload []byte)

// Connection owns a single client handle to a broker
type Connection interface {
	// Connect opens the connection. It returns ctx.Err() if ctx ends first.
	Connect(ctx context.Context) error

	// Subscribe registers handler for topic on the open connection
	Subscribe(ctx context.Context, topic string, handler MessageHandler) error

	// IsConnected reports whether the connection is currently open
	IsConnected() bool

	// Disconnect closes the connection gracefully
	Disconnect()

	// Address describes the broker for log messages
	Address() string
}
