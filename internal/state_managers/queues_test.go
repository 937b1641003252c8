package state_managers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/airpurifier2mqtt/internal/models"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue[int](3)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, q.Put(ctx, i))
	}
	assert.True(t, q.Full())
	assert.Equal(t, 3, q.Len())
	assert.False(t, q.TryPut(4))

	for i := 1; i <= 3; i++ {
		v, err := q.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueue_PutBlocksUntilSpace(t *testing.T) {
	q := NewQueue[string](1)
	ctx := context.Background()
	require.NoError(t, q.Put(ctx, "a"))

	done := make(chan error, 1)
	go func() { done <- q.Put(ctx, "b") }()

	select {
	case <-done:
		t.Fatal("Put should block on a full queue")
	case <-time.After(20 * time.Millisecond):
	}

	v, err := q.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", v)
	require.NoError(t, <-done)
}

func TestQueue_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := NewQueue[int](1)
	_, err := q.Get(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	require.True(t, q.TryPut(1))
	assert.ErrorIs(t, q.Put(ctx, 2), context.Canceled)
}

func TestCommandRouter(t *testing.T) {
	router := NewCommandRouter()
	bedroom := NewQueue[models.Command](1)
	office := NewQueue[models.Command](1)
	require.NoError(t, router.Register("bedroom", bedroom))
	require.NoError(t, router.Register("office", office))
	assert.Error(t, router.Register("office", office))

	assert.Equal(t, []string{"bedroom", "office"}, router.Names())

	require.NoError(t, router.Route("bedroom", models.Command{"power": "on"}))
	assert.ErrorIs(t, router.Route("bedroom", models.Command{"power": "off"}), ErrQueueFull)
	assert.NoError(t, router.Route("office", models.Command{"power": "off"}))
	assert.ErrorIs(t, router.Route("kitchen", models.Command{}), ErrUnknownDevice)

	cmd, err := bedroom.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "on", cmd["power"])
}
