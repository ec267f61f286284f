// Package mailbox provides a bounded FIFO queue split into a sending and a
// receiving half, designed as the per-subscriber delivery buffer of the
// notifier package.
//
// A mailbox differs from a bare buffered channel in two ways: each half can be
// released independently, and both directions observe the peer going away as
// an error instead of a panic or a permanent block.
//
// # Usage
//
//	tx, rx := mailbox.New[string](8)
//
//	// Producer side: non-blocking fast path, suspending fallback.
//	if err := tx.TrySend("hello"); errors.Is(err, mailbox.ErrFull) {
//		err = tx.Send(ctx, "hello")
//	}
//
//	// Consumer side: drains buffered values even after the sender closes.
//	for {
//		v, err := rx.Recv(ctx)
//		if err != nil {
//			break // mailbox.ErrClosed once the stream ended
//		}
//		fmt.Println(v)
//	}
//
// # Lifecycle
//
// Sender.Close signals end-of-stream: the receiver keeps draining buffered
// values and then gets ErrClosed. Receiver.Close signals a dropped consumer:
// pending and future sends fail with ErrClosed immediately. Both are
// idempotent and safe under concurrency.
//
// # Fan-in
//
// Merge combines several receiving halves into one, preserving per-source
// FIFO order while interleaving sources in arrival order:
//
//	merged := mailbox.Merge(rx1, rx2, rx3)
//	v, err := merged.Recv(ctx)
//
// # Concurrency
//
// All operations are safe for concurrent use. A mailbox supports any number
// of concurrent producers pushing through its Sender and exactly one logical
// consumer draining its Receiver.
package mailbox
