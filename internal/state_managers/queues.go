package state_managers

import (
	"context"
	"errors"
	"fmt"
	"sort"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/benmeehan/airpurifier2mqtt/internal/models"
)

var (
	// ErrUnknownDevice is returned when routing to a device without a queue.
	ErrUnknownDevice = errors.New("unknown device")

	// ErrQueueFull is returned when a non-blocking put finds the queue at capacity.
	ErrQueueFull = errors.New("queue is full")
)

// Queue is a bounded FIFO safe for concurrent producers and consumers.
type Queue[T any] struct {
	items chan T
}

// NewQueue creates a queue holding at most capacity items.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[T]{items: make(chan T, capacity)}
}

// Put appends item, blocking while the queue is full.
func (q *Queue[T]) Put(ctx context.Context, item T) error {
	select {
	case q.items <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPut appends item unless the queue is full.
func (q *Queue[T]) TryPut(item T) bool {
	select {
	case q.items <- item:
		return true
	default:
		return false
	}
}

// Get removes the oldest item, blocking while the queue is empty.
func (q *Queue[T]) Get(ctx context.Context) (T, error) {
	select {
	case item := <-q.items:
		return item, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Full reports whether the queue is at capacity.
func (q *Queue[T]) Full() bool {
	return len(q.items) == cap(q.items)
}

func (q *Queue[T]) Len() int { return len(q.items) }

func (q *Queue[T]) Cap() int { return cap(q.items) }

// StatusQueue carries snapshots from every poller to the publisher.
type StatusQueue = Queue[models.DeviceStatus]

// CommandQueue carries commands for one device.
type CommandQueue = Queue[models.Command]

// CommandRouter maps device names to their command queues.
type CommandRouter struct {
	queues cmap.ConcurrentMap[string, *CommandQueue]
}

// NewCommandRouter returns an empty router.
func NewCommandRouter() *CommandRouter {
	return &CommandRouter{queues: cmap.New[*CommandQueue]()}
}

// Register attaches the queue of device name. A second registration under the same name fails.
func (r *CommandRouter) Register(name string, queue *CommandQueue) error {
	if !r.queues.SetIfAbsent(name, queue) {
		return fmt.Errorf("device %q already registered", name)
	}
	return nil
}

// Route enqueues cmd for device name without blocking.
func (r *CommandRouter) Route(name string, cmd models.Command) error {
	queue, ok := r.queues.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDevice, name)
	}
	if !queue.TryPut(cmd) {
		return fmt.Errorf("%w: device %q (capacity %d)", ErrQueueFull, name, queue.Cap())
	}
	return nil
}

// Names returns the registered device names in sorted order.
func (r *CommandRouter) Names() []string {
	names := r.queues.Keys()
	sort.Strings(names)
	return names
}
