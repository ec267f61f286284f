package notifier

import (
	"context"

	"github.com/dmitrymomot/notifierhub/mailbox"
)

// Waiter is a standing registration over one channel key's lifecycle events:
// a creation waiter fires once per subscribe, a destruction waiter once each
// time the channel runs out of subscribers. Every waiter registered for the
// same key fires independently.
//
// Notification queues are never shared with message delivery; a waiter only
// ever observes lifecycle events.
type Waiter struct {
	rx *mailbox.Receiver[struct{}]
}

// Recv suspends until the next notification arrives or ctx is cancelled.
// It returns mailbox.ErrClosed once the waiter has been closed.
func (w *Waiter) Recv(ctx context.Context) error {
	_, err := w.rx.Recv(ctx)
	return err
}

// Close deregisters the waiter: the hub drops its queue on the next event.
// Close is idempotent.
func (w *Waiter) Close() {
	w.rx.Close()
}
