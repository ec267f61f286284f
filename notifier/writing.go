package notifier

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifierhub/mailbox"
)

// Outcome is the delivery status of a single tracked send.
type Outcome int

const (
	// OutcomePending means the message has not been placed into the
	// subscriber's mailbox yet.
	OutcomePending Outcome = iota
	// OutcomeDelivered means the message was placed into the subscriber's
	// mailbox. It says nothing about the subscriber having read it.
	OutcomeDelivered
	// OutcomeFailed means the subscriber's mailbox was gone before the
	// message could be enqueued.
	OutcomeFailed
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeFailed:
		return "failed"
	default:
		return "pending"
	}
}

// SendResult is the resolved or in-flight status of one tracked send.
type SendResult struct {
	// Subscriber identifies the targeted subscriber slot.
	Subscriber uuid.UUID
	// Outcome is the delivery status at observation time.
	Outcome Outcome
	// Err carries the failure reason when Outcome is OutcomeFailed.
	Err error
}

// sendEntry tracks a single dispatch. err is written exactly once before
// done is closed, which makes reads after observing done race-free.
type sendEntry struct {
	subscriber uuid.UUID
	err        error
	done       chan struct{}
}

func (e *sendEntry) result() SendResult {
	select {
	case <-e.done:
		if e.err != nil {
			return SendResult{Subscriber: e.subscriber, Outcome: OutcomeFailed, Err: e.err}
		}
		return SendResult{Subscriber: e.subscriber, Outcome: OutcomeDelivered}
	default:
		return SendResult{Subscriber: e.subscriber, Outcome: OutcomePending}
	}
}

// WritingHandler tracks the per-subscriber dispatches of one send operation.
// Every send method of the hub returns one; a caller that never waits on it
// accepts fire-and-forget delivery.
//
// Waiting is an idempotent re-check: Wait, WaitTimeout, and Results may be
// called any number of times and always reflect the eventual outcomes, so a
// handler that timed out once can be polled again after the stragglers
// resolve.
type WritingHandler struct {
	entries   []*sendEntry
	remaining atomic.Int64
	done      chan struct{}
}

func newWritingHandler(entries []*sendEntry) *WritingHandler {
	wh := &WritingHandler{entries: entries, done: make(chan struct{})}
	wh.remaining.Store(int64(len(entries)))
	if len(entries) == 0 {
		close(wh.done)
	}
	return wh
}

// resolve records an entry's final outcome. Each entry resolves exactly once;
// the last resolution completes the handler.
func (wh *WritingHandler) resolve(e *sendEntry, err error) {
	e.err = err
	close(e.done)
	if wh.remaining.Add(-1) == 0 {
		close(wh.done)
	}
}

// dispatch enqueues one message into one subscriber slot without blocking the
// caller: a full mailbox moves the enqueue onto a goroutine that suspends
// until the subscriber drains or disappears.
func dispatch[M any](wh *WritingHandler, e *sendEntry, tx *mailbox.Sender[M], msg M) {
	switch err := tx.TrySend(msg); {
	case err == nil:
		wh.resolve(e, nil)
	case errors.Is(err, mailbox.ErrClosed):
		wh.resolve(e, err)
	default: // mailbox.ErrFull
		go func() {
			wh.resolve(e, tx.Send(context.Background(), msg))
		}()
	}
}

// Len returns the number of tracked sends.
func (wh *WritingHandler) Len() int {
	return len(wh.entries)
}

// Results returns a point-in-time snapshot of every tracked send.
func (wh *WritingHandler) Results() []SendResult {
	results := make([]SendResult, len(wh.entries))
	for i, e := range wh.entries {
		results[i] = e.result()
	}
	return results
}

// Wait suspends until every tracked send resolves or ctx is cancelled. It
// returns nil only when every message reached its subscriber's mailbox; a
// completed wait that observed failures returns a PartialError.
func (wh *WritingHandler) Wait(ctx context.Context) error {
	select {
	case <-wh.done:
		return wh.finish()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitTimeout behaves like Wait but gives up after the given duration,
// returning a TimeoutError that separates still-pending sends from already
// failed ones. A non-positive duration waits indefinitely. Timing out never
// cancels the underlying enqueues; they may still resolve afterwards.
func (wh *WritingHandler) WaitTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return wh.Wait(context.Background())
	}

	select {
	case <-wh.done:
		return wh.finish()
	case <-time.After(timeout):
	}

	// Resolution may have raced the timer.
	select {
	case <-wh.done:
		return wh.finish()
	default:
	}

	var pending, failed []SendResult
	for _, r := range wh.Results() {
		switch r.Outcome {
		case OutcomePending:
			pending = append(pending, r)
		case OutcomeFailed:
			failed = append(failed, r)
		}
	}
	return &TimeoutError{Timeout: timeout, Pending: pending, Failed: failed}
}

func (wh *WritingHandler) finish() error {
	var failed []SendResult
	for _, e := range wh.entries {
		if r := e.result(); r.Outcome == OutcomeFailed {
			failed = append(failed, r)
		}
	}
	if len(failed) > 0 {
		return &PartialError{Failed: failed}
	}
	return nil
}
