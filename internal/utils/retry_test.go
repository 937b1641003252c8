package utils

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDevice = errors.New("device unreachable")

func newTestPool(t *testing.T) *WorkerPool {
	t.Helper()
	pool := NewWorkerPool(2)
	t.Cleanup(pool.Shutdown)
	return pool
}

func TestRetryPolicy_AllAttemptsFail(t *testing.T) {
	for _, retries := range []int{0, 1, 3} {
		var attempts atomic.Int32
		rp := NewRetryPolicy(retries, time.Millisecond, -1, newTestPool(t), zerolog.Nop())

		got, err := rp.Do(context.Background(), "status", func() (int, error) {
			attempts.Add(1)
			return 0, errDevice
		})

		require.NoError(t, err)
		assert.Equal(t, -1, got)
		assert.Equal(t, int32(retries+1), attempts.Load(), "retries=%d", retries)
	}
}

func TestRetryPolicy_NegativeRetriesAttemptOnce(t *testing.T) {
	var attempts atomic.Int32
	rp := NewRetryPolicy(-5, time.Millisecond, false, newTestPool(t), zerolog.Nop())

	got, err := rp.Do(context.Background(), "set_power", func() (bool, error) {
		attempts.Add(1)
		return true, errDevice
	})

	require.NoError(t, err)
	assert.False(t, got)
	assert.Equal(t, int32(1), attempts.Load())
	assert.Equal(t, 0, rp.MaxRetries)
}

func TestRetryPolicy_SucceedsOnAttemptK(t *testing.T) {
	const retries = 4
	for k := 1; k <= retries+1; k++ {
		var attempts atomic.Int32
		rp := NewRetryPolicy[*string](retries, time.Millisecond, nil, newTestPool(t), zerolog.Nop())
		want := "ok"

		got, err := rp.Do(context.Background(), "status", func() (*string, error) {
			if int(attempts.Add(1)) < k {
				return nil, errDevice
			}
			return &want, nil
		})

		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "ok", *got)
		assert.Equal(t, int32(k), attempts.Load(), "k=%d", k)
	}
}

func TestRetryPolicy_PanicCountsAsFailure(t *testing.T) {
	var attempts atomic.Int32
	rp := NewRetryPolicy(1, time.Millisecond, "failed", newTestPool(t), zerolog.Nop())

	got, err := rp.Do(context.Background(), "status", func() (string, error) {
		attempts.Add(1)
		panic("boom")
	})

	require.NoError(t, err)
	assert.Equal(t, "failed", got)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestRetryPolicy_CancelDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rp := NewRetryPolicy(3, time.Hour, 0, newTestPool(t), zerolog.Nop())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := rp.Do(ctx, "status", func() (int, error) { return 0, errDevice })

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRetryPolicy_WithoutPool(t *testing.T) {
	rp := NewRetryPolicy(0, time.Millisecond, 0, nil, zerolog.Nop())

	got, err := rp.Do(context.Background(), "status", func() (int, error) { return 42, nil })

	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestRetryPolicy_LogsRetriesLeft(t *testing.T) {
	var buf bytes.Buffer
	rp := NewRetryPolicy(2, time.Millisecond, 0, newTestPool(t), zerolog.New(&buf))

	_, err := rp.Do(context.Background(), "status", func() (int, error) { return 0, errDevice })

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Retry in 1ms, retries left 2")
	assert.Contains(t, buf.String(), "Retry in 1ms, retries left 1")
	assert.NotContains(t, buf.String(), "retries left 0")
}

func TestRetryPolicy_ClosedPoolStopsRetrying(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Shutdown()

	var attempts atomic.Int32
	rp := NewRetryPolicy(3, time.Hour, -1, pool, zerolog.Nop())

	start := time.Now()
	got, err := rp.Do(context.Background(), "status", func() (int, error) {
		attempts.Add(1)
		return 1, nil
	})

	require.NoError(t, err)
	assert.Equal(t, -1, got)
	assert.Zero(t, attempts.Load())
	assert.Less(t, time.Since(start), time.Second)
}
