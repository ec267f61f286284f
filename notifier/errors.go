package notifier

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrChannelUninitialised is returned by CloneSend and ShutdownClone when
	// the channel key has never been subscribed to.
	ErrChannelUninitialised = errors.New("channel has not been initialised")

	// ErrNotSubscribed is returned by Unsubscribe when the receiver holds no
	// slot in the given channel.
	ErrNotSubscribed = errors.New("receiver is not subscribed to the channel")

	// ErrWaitTimeout is wrapped by TimeoutError when a bounded wait elapses
	// with deliveries still pending.
	ErrWaitTimeout = errors.New("timed out waiting for message delivery")

	// ErrPartialFailure is wrapped by PartialError when at least one tracked
	// delivery failed.
	ErrPartialFailure = errors.New("delivery failed for one or more subscribers")
)

// PartialError reports a completed wait during which one or more subscriber
// mailboxes turned out to be gone. Failed lists the affected entries.
type PartialError struct {
	Failed []SendResult
}

// Error implements the error interface.
func (e *PartialError) Error() string {
	return fmt.Sprintf("delivery failed for %d subscriber(s)", len(e.Failed))
}

// Unwrap makes errors.Is(err, ErrPartialFailure) work.
func (e *PartialError) Unwrap() error { return ErrPartialFailure }

// TimeoutError reports a bounded wait that elapsed before every delivery
// resolved. Pending lists entries still in flight at the deadline; Failed
// lists entries that had already failed by then.
type TimeoutError struct {
	Timeout time.Duration
	Pending []SendResult
	Failed  []SendResult
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("delivery wait timed out after %s: %d pending, %d failed",
		e.Timeout, len(e.Pending), len(e.Failed))
}

// Unwrap makes errors.Is(err, ErrWaitTimeout) work.
func (e *TimeoutError) Unwrap() error { return ErrWaitTimeout }
