package notifier

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifierhub/mailbox"
)

// Receiver is the consuming handle returned by Subscribe and
// SubscribeMultiple. It owns one mailbox receiving half per subscribed
// channel; for multi-channel subscriptions Recv reads from a fan-in merge of
// all of them.
//
// A receiver must be released on every exit path: either unsubscribe it from
// the hub (which ends its streams cleanly) or call Close, which drops the
// mailboxes so that CleanChannel can prune the stale slots. Leaking a
// receiver without either leaves its slots behind and skews the channel's
// Running/Over state.
type Receiver[M any, K comparable] struct {
	tokens  map[K]uuid.UUID
	sources map[K]*mailbox.Receiver[M]
	merged  *mailbox.Receiver[M]
	once    sync.Once
}

// Recv returns the next message, suspending until one arrives, the context is
// cancelled, or the stream ends. Messages from one channel arrive in send
// order; there is no ordering across channels. After the receiver's last slot
// is unsubscribed or shut down, Recv drains buffered messages and then
// returns mailbox.ErrClosed.
func (r *Receiver[M, K]) Recv(ctx context.Context) (M, error) {
	return r.merged.Recv(ctx)
}

// Close drops every owned mailbox so producers stop dispatching into them.
// It does not touch the hub registry; pair it with Unsubscribe, or rely on
// CleanChannel to prune the dropped slots. Close is idempotent.
func (r *Receiver[M, K]) Close() {
	r.once.Do(func() {
		for _, rx := range r.sources {
			rx.Close()
		}
		r.merged.Close()
	})
}
