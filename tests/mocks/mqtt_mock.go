package mocks

import (
	"context"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/mock"

	pkgmqtt "github.com/benmeehan/airpurifier2mqtt/pkg/mqtt"
)

// MockMQTTClient is a mock implementation of the MQTTClient interface
type MockMQTTClient struct {
	mock.Mock
}

func (m *MockMQTTClient) Connect() mqtt.Token {
	args := m.Called()
	return args.Get(0).(mqtt.Token)
}

func (m *MockMQTTClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	args := m.Called(topic, qos, retained, payload)
	return args.Get(0).(mqtt.Token)
}

func (m *MockMQTTClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	args := m.Called(topic, qos, callback)
	return args.Get(0).(mqtt.Token)
}

func (m *MockMQTTClient) Unsubscribe(topics ...string) mqtt.Token {
	args := m.Called(topics)
	return args.Get(0).(mqtt.Token)
}

func (m *MockMQTTClient) Disconnect(quiesce uint) {
	m.Called(quiesce)
}

// MockConnector is a mock implementation of the Connector interface
type MockConnector struct {
	mock.Mock
}

func (m *MockConnector) Connect(ctx context.Context, role string, will *pkgmqtt.Will,
	onConnect pkgmqtt.OnConnectHandler) (pkgmqtt.MQTTClient, error) {

	args := m.Called(ctx, role, will, onConnect)
	client, _ := args.Get(0).(pkgmqtt.MQTTClient)
	if recording, ok := client.(*RecordingClient); ok && onConnect != nil {
		recording.setOnConnect(onConnect)
	}
	return client, args.Error(1)
}

// Published is one message recorded by RecordingClient.
type Published struct {
	Topic    string
	QOS      byte
	Retained bool
	Payload  []byte
}

// RecordingClient is an in-memory MQTTClient that records publishes and
// lets tests deliver messages to subscribed handlers.
type RecordingClient struct {
	mu           sync.Mutex
	published    []Published
	handlers     map[string]mqtt.MessageHandler
	disconnected bool
	onConnect    pkgmqtt.OnConnectHandler

	PublishErr   error
	SubscribeErr error
	Notify       chan Published
}

// NewRecordingClient returns a client whose Notify channel buffers capacity publishes.
func NewRecordingClient(capacity int) *RecordingClient {
	return &RecordingClient{
		handlers: make(map[string]mqtt.MessageHandler),
		Notify:   make(chan Published, capacity),
	}
}

func (c *RecordingClient) Connect() mqtt.Token { return &DoneToken{} }

func (c *RecordingClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	var data []byte
	switch p := payload.(type) {
	case []byte:
		data = p
	case string:
		data = []byte(p)
	}
	msg := Published{Topic: topic, QOS: qos, Retained: retained, Payload: data}

	c.mu.Lock()
	c.published = append(c.published, msg)
	c.mu.Unlock()

	select {
	case c.Notify <- msg:
	default:
	}
	return &DoneToken{Err: c.PublishErr}
}

func (c *RecordingClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	err := c.SubscribeErr
	if err == nil {
		c.handlers[topic] = callback
	}
	c.mu.Unlock()
	return &DoneToken{Err: err}
}

// FailSubscribe makes every later Subscribe fail with err.
func (c *RecordingClient) FailSubscribe(err error) {
	c.mu.Lock()
	c.SubscribeErr = err
	c.mu.Unlock()
}

func (c *RecordingClient) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	for _, t := range topics {
		delete(c.handlers, t)
	}
	c.mu.Unlock()
	return &DoneToken{}
}

func (c *RecordingClient) Disconnect(quiesce uint) {
	c.mu.Lock()
	c.disconnected = true
	c.mu.Unlock()
}

func (c *RecordingClient) setOnConnect(onConnect pkgmqtt.OnConnectHandler) {
	c.mu.Lock()
	c.onConnect = onConnect
	c.mu.Unlock()
}

// Reconnect simulates the broker dropping a clean session: every subscription
// is forgotten and the on-connect handler runs again.
func (c *RecordingClient) Reconnect() {
	c.mu.Lock()
	c.handlers = make(map[string]mqtt.MessageHandler)
	onConnect := c.onConnect
	c.mu.Unlock()

	if onConnect != nil {
		onConnect(c)
	}
}

// Deliver hands a message to the handler subscribed on subscription.
// It reports false when nothing is subscribed there.
func (c *RecordingClient) Deliver(subscription, topic string, payload []byte) bool {
	c.mu.Lock()
	handler, ok := c.handlers[subscription]
	c.mu.Unlock()
	if !ok {
		return false
	}
	handler(nil, NewMockMessage(topic, payload))
	return true
}

// Subscribed reports whether a handler is registered on topic.
func (c *RecordingClient) Subscribed(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.handlers[topic]
	return ok
}

// Published returns a copy of every recorded publish.
func (c *RecordingClient) Published() []Published {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Published(nil), c.published...)
}

// Disconnected reports whether Disconnect was called.
func (c *RecordingClient) Disconnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnected
}
