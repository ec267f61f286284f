package mailbox

import (
	"context"
	"sync"
)

// state is the shared core of one mailbox. The two lifecycle channels are
// independent: sdone marks end-of-stream (no more values will arrive, buffered
// values remain readable), rdone marks a dropped consumer (pending and future
// sends fail).
type state[T any] struct {
	ch    chan T
	sdone chan struct{}
	rdone chan struct{}
	sonce sync.Once
	ronce sync.Once
}

// Sender is the producing half of a mailbox. Multiple goroutines may push
// through the same Sender concurrently.
type Sender[T any] struct {
	s *state[T]
}

// Receiver is the consuming half of a mailbox. It is owned by exactly one
// logical consumer.
type Receiver[T any] struct {
	s *state[T]
}

// New creates a bounded FIFO mailbox with the given capacity and returns its
// two halves. A negative capacity is treated as zero (rendezvous delivery).
func New[T any](capacity int) (*Sender[T], *Receiver[T]) {
	if capacity < 0 {
		capacity = 0
	}
	s := &state[T]{
		ch:    make(chan T, capacity),
		sdone: make(chan struct{}),
		rdone: make(chan struct{}),
	}
	return &Sender[T]{s: s}, &Receiver[T]{s: s}
}

// Send enqueues a value, suspending while the mailbox is full. It returns
// ErrClosed if either half is gone, or the context error if ctx is cancelled
// first. Suspension ends as soon as the consumer drains a slot.
func (tx *Sender[T]) Send(ctx context.Context, v T) error {
	select {
	case <-tx.s.sdone:
		return ErrClosed
	case <-tx.s.rdone:
		return ErrClosed
	default:
	}

	select {
	case tx.s.ch <- v:
		return nil
	case <-tx.s.sdone:
		return ErrClosed
	case <-tx.s.rdone:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySend enqueues a value without blocking. It returns ErrFull when the
// mailbox is at capacity and ErrClosed when either half is gone.
func (tx *Sender[T]) TrySend(v T) error {
	select {
	case <-tx.s.sdone:
		return ErrClosed
	case <-tx.s.rdone:
		return ErrClosed
	default:
	}

	select {
	case tx.s.ch <- v:
		return nil
	default:
		return ErrFull
	}
}

// Close signals end-of-stream. The receiver drains any buffered values and
// then observes ErrClosed. Close is idempotent and safe to call concurrently
// with in-flight sends.
func (tx *Sender[T]) Close() {
	tx.s.sonce.Do(func() {
		close(tx.s.sdone)
	})
}

// IsClosed reports whether the mailbox is unusable for sending: the sender
// was closed or the receiver was dropped.
func (tx *Sender[T]) IsClosed() bool {
	select {
	case <-tx.s.sdone:
		return true
	case <-tx.s.rdone:
		return true
	default:
		return false
	}
}

// Recv dequeues the next value, suspending while the mailbox is empty.
// Buffered values remain receivable after the sender closes; once the buffer
// is empty and the stream ended, Recv returns ErrClosed.
func (rx *Receiver[T]) Recv(ctx context.Context) (T, error) {
	var zero T

	select {
	case v := <-rx.s.ch:
		return v, nil
	default:
	}

	select {
	case v := <-rx.s.ch:
		return v, nil
	case <-rx.s.sdone:
		// Drain values that raced with the close signal.
		select {
		case v := <-rx.s.ch:
			return v, nil
		default:
			return zero, ErrClosed
		}
	case <-rx.s.rdone:
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close drops the consuming half. Pending and future sends into the mailbox
// fail with ErrClosed. Close is idempotent.
func (rx *Receiver[T]) Close() {
	rx.s.ronce.Do(func() {
		close(rx.s.rdone)
	})
}

// Done returns a channel that is closed when the receiver is dropped.
func (rx *Receiver[T]) Done() <-chan struct{} {
	return rx.s.rdone
}
