package services_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"

	"github.com/benmeehan/airpurifier2mqtt/internal/utils"
	"github.com/benmeehan/airpurifier2mqtt/pkg/airpurifier"
)

// MockPurifier is a mock implementation of the Purifier interface
type MockPurifier struct {
	mock.Mock
}

func (m *MockPurifier) Status() (*airpurifier.Status, error) {
	args := m.Called()
	status, _ := args.Get(0).(*airpurifier.Status)
	return status, args.Error(1)
}

func (m *MockPurifier) On() error {
	return m.Called().Error(0)
}

func (m *MockPurifier) Off() error {
	return m.Called().Error(0)
}

func (m *MockPurifier) SetMode(mode airpurifier.OperationMode) error {
	return m.Called(mode).Error(0)
}

func (m *MockPurifier) SetFavoriteLevel(level int) error {
	return m.Called(level).Error(0)
}

func newPool(t *testing.T) *utils.WorkerPool {
	t.Helper()
	pool := utils.NewWorkerPool(2)
	t.Cleanup(pool.Shutdown)
	return pool
}

var nop = zerolog.New(io.Discard)

// runService runs fn in the background and returns a function that cancels it
// and returns its result.
func runService(t *testing.T, fn func(ctx context.Context) error) func() error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	return func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(2 * time.Second):
			t.Fatal("service did not stop")
			return nil
		}
	}
}
