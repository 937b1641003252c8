package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
)

// RetryPolicy is a bounded retry with a fixed delay. When every attempt fails,
// Failure is returned in place of the error.
type RetryPolicy[T any] struct {
	MaxRetries int
	Delay      time.Duration
	Failure    T

	pool   *WorkerPool
	logger zerolog.Logger
}

// NewRetryPolicy creates a policy running attempts on pool. Negative retries mean none.
func NewRetryPolicy[T any](maxRetries int, delay time.Duration, failure T, pool *WorkerPool, logger zerolog.Logger) *RetryPolicy[T] {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RetryPolicy[T]{
		MaxRetries: maxRetries,
		Delay:      delay,
		Failure:    failure,
		pool:       pool,
		logger:     logger,
	}
}

// Do runs op until it succeeds or the retries are used up.
// The only error returned is the context error on cancellation.
func (rp *RetryPolicy[T]) Do(ctx context.Context, name string, op func() (T, error)) (T, error) {
	maxRetries := max(rp.MaxRetries, 0)
	attempts := 0

	operation := func() (T, error) {
		attempts++
		start := time.Now()
		result, err := rp.attempt(ctx, op)
		elapsed := time.Since(start)

		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, backoff.Permanent(ctxErr)
		}
		if err != nil {
			rp.logger.Warn().Err(err).Str("operation", name).Dur("elapsed", elapsed).Msg("Operation failed")
			return result, err
		}

		rp.logger.Debug().Str("operation", name).Dur("elapsed", elapsed).Msg("Operation completed")
		return result, nil
	}

	notify := func(_ error, next time.Duration) {
		rp.logger.Info().Str("operation", name).
			Msgf("Retry in %s, retries left %d", next, maxRetries-attempts+1)
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(rp.Delay)),
		backoff.WithMaxTries(uint(maxRetries+1)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return rp.Failure, ctxErr
	}
	if err != nil {
		return rp.Failure, nil
	}
	return result, nil
}

type attemptResult[T any] struct {
	value T
	err   error
}

// attempt runs op on the worker pool and waits for it. A panic in op becomes an error.
func (rp *RetryPolicy[T]) attempt(ctx context.Context, op func() (T, error)) (T, error) {
	done := make(chan attemptResult[T], 1)
	task := func() {
		var res attemptResult[T]
		defer func() {
			if r := recover(); r != nil {
				res = attemptResult[T]{err: fmt.Errorf("panic: %v", r)}
			}
			done <- res
		}()
		res.value, res.err = op()
	}

	if rp.pool == nil {
		go task()
	} else if err := rp.pool.Submit(ctx, task); err != nil {
		var zero T
		return zero, backoff.Permanent(err)
	}

	select {
	case res := <-done:
		return res.value, res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
