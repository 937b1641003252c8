package registry

import "context"

// Service is one long-running task of the bridge.
// Run blocks until ctx is cancelled or the task fails.
type Service interface {
	Name() string
	Run(ctx context.Context) error
}
