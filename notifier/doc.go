// Package notifier provides a keyed in-process publish/subscribe hub with
// per-subscriber bounded mailboxes, tracked fan-out delivery, and channel
// lifecycle notifications.
//
// # Core Components
//
// Hub is the registry: it maps comparable channel keys to subscriber slots
// and implements the subscription protocol and the send strategies. Both the
// message type and the key type are generic.
//
// Receiver is the consuming handle returned by Subscribe and
// SubscribeMultiple. Multi-channel receivers merge their mailboxes behind a
// single Recv with per-channel FIFO order.
//
// WritingHandler is returned by every send. It tracks one entry per targeted
// subscriber and supports a suspending wait with an optional deadline.
// Delivery problems are never surfaced by the send call itself; they are
// deferred into the handler, so a caller that ignores it gets fire-and-forget
// semantics.
//
// Waiter is a standing registration over a channel's lifecycle: creation
// waiters fire on every subscribe, destruction waiters each time a channel
// runs out of subscribers.
//
// # Delivery Strategies
//
// CloneSend gives every subscriber its own copy of the message; types can
// implement the Cloner capability to control the duplication. ArcSend and
// BroadcastArc distribute one shared instance to all subscribers of
// pointer-message hubs, which avoids duplicating large payloads.
// BroadcastClone fans a copy out to every subscriber of every channel.
// ShutdownClone sends the message type's canonical close sentinel (the
// Closable capability) without altering the registry.
//
// # Basic Usage
//
//	hub := notifier.New[string, string]()
//
//	r1 := hub.Subscribe("jobs", 0)
//	r2 := hub.Subscribe("jobs", 0)
//
//	h, err := hub.CloneSend("hi", "jobs")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := h.WaitTimeout(100 * time.Millisecond); err != nil {
//	    log.Fatal(err) // timeout or partial failure, with identities
//	}
//
//	msg, _ := r1.Recv(ctx) // "hi"
//	msg, _ = r2.Recv(ctx)  // "hi"
//
//	_ = hub.Unsubscribe("jobs", r1)
//	_ = hub.Unsubscribe("jobs", r2)
//	// hub.ChannelState("jobs") == notifier.StateOver
//
// # Channel Lifecycle
//
// A key is StateUninitialised until its first subscribe, StateRunning while
// it has subscribers, and StateOver once the last one leaves. StateOver is
// not terminal: a later subscribe reopens the channel. CloneSend and
// ShutdownClone reject StateUninitialised keys with ErrChannelUninitialised
// and treat empty known channels as a successful no-op.
//
// # Failure Model
//
// Structural errors (unknown channel, unsubscribing an absent slot) are
// returned synchronously. Per-subscriber delivery failures resolve inside the
// WritingHandler: Wait returns a PartialError naming the failed subscribers,
// WaitTimeout additionally separates pending from failed entries in its
// TimeoutError. Timing out bounds only the wait; the underlying enqueues keep
// running and the handler can be polled again later. Nothing in the package
// panics across the API surface.
//
// # Concurrency
//
// All Hub operations are safe for concurrent use; the registry is guarded by
// a read-write mutex and dispatch never blocks the sending caller. A full
// subscriber mailbox suspends only the delivery of that one entry, on its own
// goroutine, until the subscriber drains the mailbox or drops it.
package notifier
