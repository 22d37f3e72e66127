package dispatch

import (
	"context"
	"fmt"
	"time"
)

// TimeoutError reports that a handler did not settle within its budget.
type TimeoutError struct {
	Type    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("Handler %s timed out after %s", e.Type, e.Timeout)
}

// outcome is the settled result of a handler invocation.
type outcome struct {
	value any
	err   error
}

// runWithTimeout races fn against the timeout budget and the caller's
// context. A non-positive timeout disables the budget. The deadline timer is
// stopped on every exit path.
//
// The timeout is soft: fn keeps running on its goroutine after the race has
// settled. The 1-buffered channel lets that zombie outcome be written and
// dropped without blocking the goroutine forever.
func runWithTimeout(ctx context.Context, fn func() outcome, timeout time.Duration, onTimeout func() outcome) outcome {
	done := make(chan outcome, 1)
	go func() {
		done <- protect(fn)
	}()

	if timeout <= 0 {
		select {
		case out := <-done:
			return out
		case <-ctx.Done():
			return outcome{err: ctx.Err()}
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		return out
	case <-timer.C:
		return protect(onTimeout)
	case <-ctx.Done():
		return outcome{err: ctx.Err()}
	}
}

// protect converts a panic in fn into an error outcome, so neither a handler
// nor a failure constructor can crash a dispatch.
func protect(fn func() outcome) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = outcome{err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return fn()
}
