package mailbox

import "errors"

var (
	// ErrClosed is returned when either half of the mailbox is gone:
	// the sender signalled end-of-stream or the receiver was dropped.
	ErrClosed = errors.New("mailbox is closed")

	// ErrFull is returned by TrySend when the mailbox is at capacity.
	ErrFull = errors.New("mailbox is full")
)
