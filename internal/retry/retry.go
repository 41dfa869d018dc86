// Package retry runs an unreliable operation with a fixed attempt budget and
// a fixed pause between attempts.
package retry

import (
	"context"
	"errors"
	"time"
)

// Config defines retry behavior.
type Config struct {
	MaxAttempts int
	Delay       time.Duration

	// OnFailure, when set, is called after every failed attempt.
	OnFailure func(State)
}

// DefaultConfig matches the expected latency of a single slow backend call.
var DefaultConfig = Config{
	MaxAttempts: 3,
	Delay:       1200 * time.Millisecond,
}

// State is the progress of one Do call. It never outlives that call.
type State struct {
	Attempt int
	LastErr error
	Final   bool
}

// Do invokes op up to cfg.MaxAttempts times and returns the first success.
// When every attempt fails the error of the last attempt is returned as is.
// The pause between attempts only blocks the calling goroutine and ends early
// if ctx is cancelled.
func Do[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	state := State{}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		state.Attempt = attempt

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		state.LastErr = err
		state.Final = attempt == maxAttempts
		if cfg.OnFailure != nil {
			cfg.OnFailure(state)
		}

		if state.Final {
			break
		}

		if err := wait(ctx, cfg.Delay); err != nil {
			return zero, errors.Join(state.LastErr, err)
		}
	}

	return zero, state.LastErr
}

func wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
