package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/airpurifier2mqtt/internal/models"
	"github.com/benmeehan/airpurifier2mqtt/internal/services"
	"github.com/benmeehan/airpurifier2mqtt/internal/state_managers"
	"github.com/benmeehan/airpurifier2mqtt/pkg/mqtt"
	"github.com/benmeehan/airpurifier2mqtt/tests/mocks"
)

var topics = mqtt.Topics{Prefix: "airpurifier"}

func newRouter(t *testing.T, capacity int, devices ...string) (*state_managers.CommandRouter, map[string]*state_managers.CommandQueue) {
	t.Helper()
	router := state_managers.NewCommandRouter()
	queues := make(map[string]*state_managers.CommandQueue, len(devices))
	for _, d := range devices {
		queues[d] = state_managers.NewQueue[models.Command](capacity)
		require.NoError(t, router.Register(d, queues[d]))
	}
	return router, queues
}

func TestSubscriberService_HandleMessage(t *testing.T) {
	router, queues := newRouter(t, 1, "bedroom", "office")
	subscriber := services.NewSubscriberService(nil, topics, router, time.Second, nop)

	subscriber.HandleMessage("airpurifier/bedroom/set", []byte(`{"power":"on"}`))
	subscriber.HandleMessage("airpurifier/bedroom/set", []byte(`{"power":"off"}`)) // dropped, queue full
	subscriber.HandleMessage("airpurifier/kitchen/set", []byte(`{"power":"on"}`))  // unknown device
	subscriber.HandleMessage("airpurifier/office/set", []byte(`not json`))         // malformed
	subscriber.HandleMessage("airpurifier/office/set", []byte(`{"mode":"Fan"}`))

	cmd, err := queues["bedroom"].Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "on", cmd["power"])
	assert.Equal(t, 0, queues["bedroom"].Len())

	cmd, err = queues["office"].Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Fan", cmd["mode"])
	assert.Equal(t, 0, queues["office"].Len())
}

func TestSubscriberService_FullQueueDoesNotBlock(t *testing.T) {
	router, queues := newRouter(t, 2, "bedroom", "office")
	client := mocks.NewRecordingClient(0)
	connector := new(mocks.MockConnector)
	connector.On("Connect", mock.Anything, "sub", (*mqtt.Will)(nil), mock.Anything).Return(client, nil)

	subscriber := services.NewSubscriberService(connector, topics, router, time.Second, nop)
	assert.Equal(t, "subscriber", subscriber.Name())
	stop := runService(t, subscriber.Run)

	require.Eventually(t, func() bool { return client.Subscribed("airpurifier/+/set") }, time.Second, 5*time.Millisecond)

	for i := 0; i < 10; i++ {
		client.Deliver("airpurifier/+/set", "airpurifier/bedroom/set", []byte(`{"power":"on"}`))
	}
	client.Deliver("airpurifier/+/set", "airpurifier/office/set", []byte(`{"power":"off"}`))

	cmd, err := queues["office"].Get(contextWithTimeout(t, time.Second))
	require.NoError(t, err)
	assert.Equal(t, "off", cmd["power"])
	assert.Equal(t, 2, queues["bedroom"].Len())

	assert.ErrorIs(t, stop(), context.Canceled)
	assert.True(t, client.Disconnected())
	connector.AssertExpectations(t)
}

func TestSubscriberService_ResubscribesAfterReconnect(t *testing.T) {
	router, queues := newRouter(t, 2, "bedroom")
	client := mocks.NewRecordingClient(0)
	connector := new(mocks.MockConnector)
	connector.On("Connect", mock.Anything, "sub", (*mqtt.Will)(nil), mock.Anything).Return(client, nil)

	subscriber := services.NewSubscriberService(connector, topics, router, time.Second, nop)
	stop := runService(t, subscriber.Run)

	require.Eventually(t, func() bool { return client.Subscribed("airpurifier/+/set") }, time.Second, 5*time.Millisecond)

	client.Reconnect()

	require.True(t, client.Subscribed("airpurifier/+/set"))
	require.True(t, client.Deliver("airpurifier/+/set", "airpurifier/bedroom/set", []byte(`{"mode":"Silent"}`)))

	cmd, err := queues["bedroom"].Get(contextWithTimeout(t, time.Second))
	require.NoError(t, err)
	assert.Equal(t, "Silent", cmd["mode"])
	assert.ErrorIs(t, stop(), context.Canceled)
}

func TestSubscriberService_FailedResubscribeIsFatal(t *testing.T) {
	router, _ := newRouter(t, 1, "bedroom")
	client := mocks.NewRecordingClient(0)
	connector := new(mocks.MockConnector)
	connector.On("Connect", mock.Anything, "sub", (*mqtt.Will)(nil), mock.Anything).Return(client, nil)

	subscriber := services.NewSubscriberService(connector, topics, router, time.Second, nop)
	done := make(chan error, 1)
	go func() { done <- subscriber.Run(context.Background()) }()

	require.Eventually(t, func() bool { return client.Subscribed("airpurifier/+/set") }, time.Second, 5*time.Millisecond)

	client.FailSubscribe(errors.New("not authorized"))
	client.Reconnect()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, mqtt.ErrSubscribeFailed)
		assert.True(t, client.Disconnected())
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber kept running without a subscription")
	}
}

func TestSubscriberService_SubscribeFailure(t *testing.T) {
	router, _ := newRouter(t, 1, "bedroom")
	client := mocks.NewRecordingClient(0)
	client.SubscribeErr = errors.New("not authorized")
	connector := new(mocks.MockConnector)
	connector.On("Connect", mock.Anything, "sub", (*mqtt.Will)(nil), mock.Anything).Return(client, nil)

	err := services.NewSubscriberService(connector, topics, router, time.Second, nop).Run(context.Background())

	assert.ErrorIs(t, err, mqtt.ErrSubscribeFailed)
}

func TestSubscriberService_ConnectFailure(t *testing.T) {
	router, _ := newRouter(t, 1, "bedroom")
	connector := new(mocks.MockConnector)
	connector.On("Connect", mock.Anything, "sub", (*mqtt.Will)(nil), mock.Anything).Return(nil, mqtt.ErrConnectionFailed)

	err := services.NewSubscriberService(connector, topics, router, time.Second, nop).Run(context.Background())

	assert.ErrorIs(t, err, mqtt.ErrConnectionFailed)
}

func contextWithTimeout(t *testing.T, d time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	t.Cleanup(cancel)
	return ctx
}
