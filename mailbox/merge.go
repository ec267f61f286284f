package mailbox

import (
	"context"
	"sync"
)

// Merge combines multiple receiving halves into a single receiver. Every
// value from every source is emitted exactly once; values from one source
// keep their FIFO order, with no ordering guarantee across sources.
//
// The merged receiver reaches end-of-stream once every source has closed.
// Closing the merged receiver stops all forwarding and releases the sources.
// Merging zero sources yields an immediately-closed receiver.
func Merge[T any](rxs ...*Receiver[T]) *Receiver[T] {
	tx, out := New[T](0)
	if len(rxs) == 0 {
		tx.Close()
		return out
	}

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(len(rxs))
	for _, rx := range rxs {
		go func(rx *Receiver[T]) {
			defer wg.Done()
			defer rx.Close()
			for {
				v, err := rx.Recv(ctx)
				if err != nil {
					return
				}
				if err := tx.Send(ctx, v); err != nil {
					return
				}
			}
		}(rx)
	}

	// Stop forwarding when the consumer drops the merged receiver.
	go func() {
		select {
		case <-out.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	go func() {
		wg.Wait()
		cancel()
		tx.Close()
	}()

	return out
}
