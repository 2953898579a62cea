package mqtt

import (
	"context"
	"errors"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authcode-listener/config"
	"authcode-listener/internal/broker"
	"authcode-listener/internal/logger"
	"authcode-listener/internal/metrics"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Endpoint: "localhost",
		Port:     1883,
		Username: "user",
		Password: "secret",
		Topic:    "test/topic",
		ClientID: "authcode-listener-test",
	}
}

func setupTestConnection(t *testing.T) (*Connection, *mockClient) {
	t.Helper()

	m, err := metrics.NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	client := newMockClient()
	return NewConnectionWithClient(testConfig(), logger.NewNopLogger(), m, client), client
}

func TestBuildClientOptions(t *testing.T) {
	opts := buildClientOptions(testConfig())

	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "tcp://localhost:1883", opts.Servers[0].String())
	assert.Equal(t, "authcode-listener-test", opts.ClientID)
	assert.Equal(t, "user", opts.Username)
	assert.Equal(t, "secret", opts.Password)
	assert.True(t, opts.CleanSession)
	assert.False(t, opts.AutoReconnect)
	assert.False(t, opts.ConnectRetry)
}

func TestBuildClientOptionsWithoutCredentials(t *testing.T) {
	cfg := testConfig()
	cfg.Username = ""
	cfg.Password = ""

	opts := buildClientOptions(cfg)
	assert.Empty(t, opts.Username)
	assert.Empty(t, opts.Password)
}

func TestBrokerURL(t *testing.T) {
	tests := []struct {
		endpoint string
		port     int
		want     string
	}{
		{"localhost", 1883, "tcp://localhost:1883"},
		{"10.0.0.5", 8883, "tcp://10.0.0.5:8883"},
		{"::1", 1883, "tcp://[::1]:1883"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, brokerURL(config.MQTTConfig{Endpoint: tt.endpoint, Port: tt.port}))
		})
	}
}

func TestNewConnectionStartsDisconnected(t *testing.T) {
	c := NewConnection(testConfig(), logger.NewNopLogger(), nil)

	assert.False(t, c.IsConnected())
	assert.Equal(t, "tcp://localhost:1883", c.Address())
}

func TestConnect(t *testing.T) {
	c, client := setupTestConnection(t)

	require.NoError(t, c.Connect(context.Background()))
	assert.True(t, c.IsConnected())
	assert.True(t, client.IsConnected())
}

func TestConnectFailure(t *testing.T) {
	c, client := setupTestConnection(t)
	refused := errors.New("connection refused")
	client.connectFunc = func() pahomqtt.Token { return newDoneToken(refused) }

	err := c.Connect(context.Background())
	assert.ErrorIs(t, err, refused)
	assert.False(t, c.IsConnected())
}

func TestConnectCancelledDiscardsLateConnection(t *testing.T) {
	c, client := setupTestConnection(t)
	pending := newPendingToken()
	client.connectFunc = func() pahomqtt.Token { return pending }

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Connect(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Connect did not return after cancellation")
	}

	// The broker accepts the abandoned attempt afterwards.
	client.connected.Store(true)
	pending.complete(nil)

	assert.Eventually(t, func() bool {
		return client.disconnects.Load() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSubscribeDeliversMessages(t *testing.T) {
	c, client := setupTestConnection(t)
	require.NoError(t, c.Connect(context.Background()))

	var gotTopic string
	var gotPayload []byte
	err := c.Subscribe(context.Background(), "test/topic", func(topic string, payload []byte) {
		gotTopic = topic
		gotPayload = payload
	})
	require.NoError(t, err)

	client.deliver("test/topic", []byte(`{"code":"1"}`))

	assert.Equal(t, "test/topic", gotTopic)
	assert.Equal(t, []byte(`{"code":"1"}`), gotPayload)
}

func TestSubscribeNotConnected(t *testing.T) {
	c, _ := setupTestConnection(t)

	err := c.Subscribe(context.Background(), "test/topic", func(string, []byte) {})
	assert.ErrorIs(t, err, broker.ErrNotConnected)
}

func TestSubscribeFailure(t *testing.T) {
	c, client := setupTestConnection(t)
	require.NoError(t, c.Connect(context.Background()))

	denied := errors.New("not authorised")
	client.subscribeFunc = func(string, byte, pahomqtt.MessageHandler) pahomqtt.Token {
		return newDoneToken(denied)
	}

	err := c.Subscribe(context.Background(), "test/topic", func(string, []byte) {})
	assert.ErrorIs(t, err, denied)
}

func TestSubscribeSubackCodes(t *testing.T) {
	tests := []struct {
		name    string
		result  map[string]byte
		wantErr bool
	}{
		{name: "Granted QoS 0", result: map[string]byte{"test/topic": 0x00}},
		{name: "Rejected by broker", result: map[string]byte{"test/topic": 0x80}, wantErr: true},
		{name: "No result for topic", result: map[string]byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, client := setupTestConnection(t)
			require.NoError(t, c.Connect(context.Background()))

			client.subscribeFunc = func(string, byte, pahomqtt.MessageHandler) pahomqtt.Token {
				return newSubscribeToken(tt.result)
			}

			err := c.Subscribe(context.Background(), "test/topic", func(string, []byte) {})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrSubscriptionRejected)
				assert.Contains(t, err.Error(), "test/topic")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPahoSubscribeTokenExposesResult(t *testing.T) {
	var token pahomqtt.Token = &pahomqtt.SubscribeToken{}
	_, ok := token.(subscribeResult)
	assert.True(t, ok)
}

func TestDisconnect(t *testing.T) {
	c, client := setupTestConnection(t)
	require.NoError(t, c.Connect(context.Background()))

	c.Disconnect()

	assert.False(t, c.IsConnected())
	assert.Equal(t, int32(1), client.disconnects.Load())
}
