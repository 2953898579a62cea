package mqtt

import (
	"sync"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// mockToken implements pahomqtt.Token for testing
type mockToken struct {
	err  error
	done chan struct{}
}

// newDoneToken returns a token that has already completed with err
func newDoneToken(err error) *mockToken {
	t := &mockToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

// newPendingToken returns a token that completes when complete is called
func newPendingToken() *mockToken {
	return &mockToken{done: make(chan struct{})}
}

func (t *mockToken) complete(err error) {
	t.err = err
	close(t.done)
}

func (t *mockToken) Wait() bool {
	<-t.done
	return true
}

func (t *mockToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *mockToken) Error() error          { return t.err }
func (t *mockToken) Done() <-chan struct{} { return t.done }

// mockSubscribeToken is a completed subscribe token carrying SUBACK return codes
type mockSubscribeToken struct {
	*mockToken
	result map[string]byte
}

func newSubscribeToken(result map[string]byte) *mockSubscribeToken {
	return &mockSubscribeToken{mockToken: newDoneToken(nil), result: result}
}

func (t *mockSubscribeToken) Result() map[string]byte { return t.result }

// mockClient implements pahomqtt.Client for testing
type mockClient struct {
	connected   atomic.Bool
	disconnects atomic.Int32

	connectFunc   func() pahomqtt.Token
	subscribeFunc func(topic string, qos byte, callback pahomqtt.MessageHandler) pahomqtt.Token

	mu       sync.Mutex
	handlers map[string]pahomqtt.MessageHandler
}

func newMockClient() *mockClient {
	m := &mockClient{handlers: make(map[string]pahomqtt.MessageHandler)}
	m.connectFunc = func() pahomqtt.Token {
		m.connected.Store(true)
		return newDoneToken(nil)
	}
	m.subscribeFunc = func(topic string, qos byte, callback pahomqtt.MessageHandler) pahomqtt.Token {
		m.mu.Lock()
		m.handlers[topic] = callback
		m.mu.Unlock()
		return newDoneToken(nil)
	}
	return m
}

// deliver invokes the handler registered for topic as paho would
func (m *mockClient) deliver(topic string, payload []byte) {
	m.mu.Lock()
	h := m.handlers[topic]
	m.mu.Unlock()
	if h != nil {
		h(m, &mockMessage{topic: topic, payload: payload})
	}
}

func (m *mockClient) Connect() pahomqtt.Token { return m.connectFunc() }
func (m *mockClient) Disconnect(quiesce uint) {
	m.connected.Store(false)
	m.disconnects.Add(1)
}
func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	return newDoneToken(nil)
}
func (m *mockClient) Subscribe(topic string, qos byte, callback pahomqtt.MessageHandler) pahomqtt.Token {
	return m.subscribeFunc(topic, qos, callback)
}
func (m *mockClient) SubscribeMultiple(filters map[string]byte, callback pahomqtt.MessageHandler) pahomqtt.Token {
	return newDoneToken(nil)
}
func (m *mockClient) Unsubscribe(topics ...string) pahomqtt.Token            { return newDoneToken(nil) }
func (m *mockClient) AddRoute(topic string, callback pahomqtt.MessageHandler) {}
func (m *mockClient) IsConnected() bool                                       { return m.connected.Load() }
func (m *mockClient) IsConnectionOpen() bool                                  { return m.connected.Load() }
func (m *mockClient) OptionsReader() pahomqtt.ClientOptionsReader {
	return pahomqtt.ClientOptionsReader{}
}

// mockMessage implements pahomqtt.Message for testing
type mockMessage struct {
	topic   string
	payload []byte
}

func (m *mockMessage) Duplicate() bool   { return false }
func (m *mockMessage) Qos() byte         { return 0 }
func (m *mockMessage) Retained() bool    { return false }
func (m *mockMessage) Topic() string     { return m.topic }
func (m *mockMessage) MessageID() uint16 { return 1 }
func (m *mockMessage) Payload() []byte   { return m.payload }
func (m *mockMessage) Ack()              {}
