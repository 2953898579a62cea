package mqtt

import (
	"net"
	"strconv"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"authcode-listener/config"
)

const (
	// connectTimeout bounds a single connect attempt inside paho
	connectTimeout = 10 * time.Second

	// disconnectQuiesce is the time in milliseconds paho waits for pending work
	disconnectQuiesce = 250

	// subscribeQoS is fire and forget delivery
	subscribeQoS = 0

	// subackFailure is the SUBACK return code for a refused subscription
	subackFailure = 0x80
)

// brokerURL builds tcp://host:port, bracketing IPv6 literals
func brokerURL(cfg config.MQTTConfig) string {
	return "tcp://" + net.JoinHostPort(cfg.Endpoint, strconv.Itoa(cfg.Port))
}

// buildClientOptions creates paho options for a clean session with paho's
// own reconnect logic disabled; the listener loop owns reconnection.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions().
		AddBroker(brokerURL(cfg)).
		SetClientID(cfg.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetConnectTimeout(connectTimeout)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	return opts
}
