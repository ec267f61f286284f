package mailbox_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dmitrymomot/notifierhub/mailbox"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// Send / Recv
// =============================================================================

func TestMailbox_FIFO(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tx, rx := mailbox.New[int](4)

	for i := 1; i <= 4; i++ {
		require.NoError(t, tx.Send(ctx, i))
	}
	for i := 1; i <= 4; i++ {
		v, err := rx.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
}

func TestMailbox_SendBlocksUntilDrained(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tx, rx := mailbox.New[string](1)
	require.NoError(t, tx.Send(ctx, "first"))

	sent := make(chan error, 1)
	go func() {
		sent <- tx.Send(ctx, "second")
	}()

	select {
	case err := <-sent:
		t.Fatalf("send completed before drain: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	v, err := rx.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", v)

	require.NoError(t, <-sent)

	v, err = rx.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", v)
}

func TestMailbox_SendContextCancelled(t *testing.T) {
	t.Parallel()

	tx, rx := mailbox.New[int](1)
	require.NoError(t, tx.Send(context.Background(), 1))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := tx.Send(ctx, 2)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	rx.Close()
}

func TestMailbox_RecvContextCancelled(t *testing.T) {
	t.Parallel()

	tx, rx := mailbox.New[int](1)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := rx.Recv(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	tx.Close()
}

// =============================================================================
// TrySend
// =============================================================================

func TestMailbox_TrySendFull(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tx, rx := mailbox.New[int](2)

	require.NoError(t, tx.TrySend(1))
	require.NoError(t, tx.TrySend(2))
	require.ErrorIs(t, tx.TrySend(3), mailbox.ErrFull)

	_, err := rx.Recv(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.TrySend(3))
}

// =============================================================================
// Lifecycle
// =============================================================================

func TestMailbox_DrainAfterSenderClose(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tx, rx := mailbox.New[int](4)

	require.NoError(t, tx.Send(ctx, 1))
	require.NoError(t, tx.Send(ctx, 2))
	tx.Close()
	tx.Close() // idempotent

	assert.True(t, tx.IsClosed())
	require.ErrorIs(t, tx.Send(ctx, 3), mailbox.ErrClosed)
	require.ErrorIs(t, tx.TrySend(3), mailbox.ErrClosed)

	v, err := rx.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = rx.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = rx.Recv(ctx)
	require.ErrorIs(t, err, mailbox.ErrClosed)
}

func TestMailbox_ReceiverDrop(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tx, rx := mailbox.New[int](1)

	rx.Close()
	rx.Close() // idempotent

	select {
	case <-rx.Done():
	default:
		t.Fatal("Done channel not closed after receiver drop")
	}

	assert.True(t, tx.IsClosed())
	require.ErrorIs(t, tx.Send(ctx, 1), mailbox.ErrClosed)
	require.ErrorIs(t, tx.TrySend(1), mailbox.ErrClosed)

	_, err := rx.Recv(ctx)
	require.ErrorIs(t, err, mailbox.ErrClosed)
}

func TestMailbox_ReceiverDropUnblocksSend(t *testing.T) {
	t.Parallel()

	tx, rx := mailbox.New[int](1)
	require.NoError(t, tx.Send(context.Background(), 1))

	sent := make(chan error, 1)
	go func() {
		sent <- tx.Send(context.Background(), 2)
	}()

	time.Sleep(20 * time.Millisecond)
	rx.Close()

	require.ErrorIs(t, <-sent, mailbox.ErrClosed)
}
