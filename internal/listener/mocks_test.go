package listener

import (
	"context"
	"sync"

	"authcode-listener/internal/broker"
)

// fakeConnection implements broker.Connection for testing
type fakeConnection struct {
	mu sync.Mutex

	connected   bool
	connects    int
	subscribes  int
	disconnects int
	topic       string
	handler     broker.MessageHandler

	// connectFunc decides the outcome of Connect; nil means success
	connectFunc   func(ctx context.Context) error
	subscribeErr  error
	connectCalled chan struct{}
}

func newFakeConnection() *fakeConnection {
	return &fakeConnection{connectCalled: make(chan struct{}, 100)}
}

func (f *fakeConnection) Connect(ctx context.Context) error {
	f.mu.Lock()
	f.connects++
	fn := f.connectFunc
	f.mu.Unlock()

	select {
	case f.connectCalled <- struct{}{}:
	default:
	}

	var err error
	if fn != nil {
		err = fn(ctx)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		f.connected = true
	}
	return err
}

func (f *fakeConnection) Subscribe(_ context.Context, topic string, handler broker.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribes++
	if f.subscribeErr != nil {
		return f.subscribeErr
	}
	f.topic = topic
	f.handler = handler
	return nil
}

func (f *fakeConnection) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeConnection) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	f.connected = false
}

func (f *fakeConnection) Address() string { return "tcp://fake:1883" }

func (f *fakeConnection) setConnected(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = v
}

func (f *fakeConnection) counts() (connects, subscribes, disconnects int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects, f.subscribes, f.disconnects
}

// recordingSink records every clipboard write
type recordingSink struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (s *recordingSink) SetText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.texts = append(s.texts, text)
	return nil
}

func (s *recordingSink) written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

type notification struct {
	title string
	body  string
}

// recordingNotifier records every notification
type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) Notify(title, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{title: title, body: body})
}

func (n *recordingNotifier) notifications() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.sent...)
}
