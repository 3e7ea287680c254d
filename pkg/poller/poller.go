// Package poller waits for asynchronous operations to reach a terminal state
// by polling their status at a fixed interval.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	Pending State = iota
	Done
	Failed
)

var (
	// ErrPollingExhausted is returned when the status never reached a
	// terminal state within the retry budget.
	ErrPollingExhausted = errors.New("polling exhausted without reaching a terminal state")
	// ErrOperationFailed is returned when the polled operation failed.
	ErrOperationFailed = errors.New("operation failed")

	DefaultOpts = Opts{
		Interval:   2 * time.Second,
		MaxRetries: 60,
	}
)

// State is the state of a polled operation.
type State int

// Opts are the polling parameters. MaxRetries is the max number of status
// checks.
type Opts struct {
	Interval   time.Duration
	MaxRetries int
}

func (o Opts) validate() error {
	if o.Interval < 0 {
		return fmt.Errorf("interval must not be negative")
	}
	if o.MaxRetries <= 0 {
		return fmt.Errorf("max retries must be greater than zero")
	}
	return nil
}

// CheckFunc returns the current state of the polled operation. A non nil
// error aborts the polling. The reason is used to describe failures.
type CheckFunc func(ctx context.Context) (state State, reason string, err error)

// Until polls check until it reports Done. It returns ErrOperationFailed if
// check reports Failed, and ErrPollingExhausted if all retries were spent with
// the operation still pending. The context interrupts the waits in between.
func Until(ctx context.Context, opts Opts, check CheckFunc) error {
	if err := opts.validate(); err != nil {
		return err
	}

	for attempt := 0; attempt < opts.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepWithContext(ctx, opts.Interval); err != nil {
				return err
			}
		}

		state, reason, err := check(ctx)
		if err != nil {
			return err
		}

		switch state {
		case Done:
			return nil
		case Failed:
			if len(reason) > 0 {
				return fmt.Errorf("%w: %s", ErrOperationFailed, reason)
			}
			return ErrOperationFailed
		}
	}

	return fmt.Errorf(
		"%w after %d attempts", ErrPollingExhausted, opts.MaxRetries,
	)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
