package notifier_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifierhub/notifier"
)

// payload exercises the Cloner capability: Clone deep-copies the backing
// array so subscribers cannot observe each other's mutations.
type payload struct {
	items []int
}

func (p payload) Clone() payload {
	items := make([]int, len(p.items))
	copy(items, p.items)
	return payload{items: items}
}

// signal exercises the Closable capability used by the shutdown helpers.
type signal string

func (signal) CloseMessage() signal { return "CLOSE" }

// =============================================================================
// CloneSend
// =============================================================================

func TestCloneSend_FanOut(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	hub := notifier.New[string, string]()
	r1 := hub.Subscribe("c1", 0)
	r2 := hub.Subscribe("c1", 0)

	h, err := hub.CloneSend("hi", "c1")
	require.NoError(t, err)
	require.Equal(t, 2, h.Len())
	require.NoError(t, h.Wait(ctx))

	v, err := r1.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hi", v)

	v, err = r2.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hi", v)

	assert.Equal(t, notifier.StateRunning, hub.ChannelState("c1"))
}

func TestCloneSend_Uninitialised(t *testing.T) {
	t.Parallel()

	hub := notifier.New[string, string]()
	_, err := hub.CloneSend("hi", "unknown")
	require.ErrorIs(t, err, notifier.ErrChannelUninitialised)
}

func TestCloneSend_EmptyChannel(t *testing.T) {
	t.Parallel()

	hub := notifier.New[string, string]()
	r := hub.Subscribe("c1", 0)
	require.NoError(t, hub.Unsubscribe("c1", r))
	require.Equal(t, notifier.StateOver, hub.ChannelState("c1"))

	h, err := hub.CloneSend("hi", "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, h.Len())
	require.NoError(t, h.Wait(context.Background()))
}

func TestCloneSend_PerSubscriberOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	hub := notifier.New[int, string]()
	r := hub.Subscribe("c1", 0)

	for i := 1; i <= 3; i++ {
		_, err := hub.CloneSend(i, "c1")
		require.NoError(t, err)
	}
	for i := 1; i <= 3; i++ {
		v, err := r.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
}

func TestCloneSend_ClonerCapability(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	hub := notifier.New[payload, string]()
	r1 := hub.Subscribe("c1", 0)
	r2 := hub.Subscribe("c1", 0)

	h, err := hub.CloneSend(payload{items: []int{1, 2, 3}}, "c1")
	require.NoError(t, err)
	require.NoError(t, h.Wait(ctx))

	p1, err := r1.Recv(ctx)
	require.NoError(t, err)
	p2, err := r2.Recv(ctx)
	require.NoError(t, err)

	require.Equal(t, p1.items, p2.items)
	p1.items[0] = 99
	assert.Equal(t, []int{1, 2, 3}, p2.items)
}

// =============================================================================
// ArcSend / BroadcastArc
// =============================================================================

func TestArcSend_SharedInstance(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	hub := notifier.New[*payload, string]()
	r1 := hub.Subscribe("c1", 0)
	r2 := hub.Subscribe("c1", 0)

	h := notifier.ArcSend(hub, payload{items: []int{1}}, "c1")
	require.Equal(t, 2, h.Len())
	require.NoError(t, h.Wait(ctx))

	p1, err := r1.Recv(ctx)
	require.NoError(t, err)
	p2, err := r2.Recv(ctx)
	require.NoError(t, err)

	assert.Same(t, p1, p2)
}

func TestArcSend_UnknownChannel(t *testing.T) {
	t.Parallel()

	hub := notifier.New[*payload, string]()
	h := notifier.ArcSend(hub, payload{}, "unknown")
	assert.Equal(t, 0, h.Len())
	require.NoError(t, h.Wait(context.Background()))
	require.NoError(t, h.WaitTimeout(10*time.Millisecond))
}

func TestBroadcastArc_SharedAcrossChannels(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	hub := notifier.New[*payload, string]()
	r1 := hub.Subscribe("c1", 0)
	r2 := hub.Subscribe("c2", 0)

	h := notifier.BroadcastArc(hub, payload{items: []int{7}})
	require.Equal(t, 2, h.Len())
	require.NoError(t, h.Wait(ctx))

	p1, err := r1.Recv(ctx)
	require.NoError(t, err)
	p2, err := r2.Recv(ctx)
	require.NoError(t, err)

	assert.Same(t, p1, p2)
}

// =============================================================================
// BroadcastClone
// =============================================================================

func TestBroadcastClone_CopyPerChannelSubscriber(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	hub := notifier.New[string, string]()
	r1 := hub.Subscribe("c1", 0)
	r2 := hub.Subscribe("c2", 0)
	both := hub.SubscribeMultiple([]string{"c1", "c2"}, 0)

	h := hub.BroadcastClone("x")
	require.Equal(t, 4, h.Len())
	require.NoError(t, h.Wait(ctx))

	for _, r := range []*notifier.Receiver[string, string]{r1, r2} {
		v, err := r.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, "x", v)
	}

	// A subscriber registered under two channels receives two copies.
	for i_ := 0; i_ < 2; i_++ {
		v, err := both.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, "x", v)
	}
}

func TestBroadcastClone_EmptyRegistry(t *testing.T) {
	t.Parallel()

	hub := notifier.New[string, string]()
	h := hub.BroadcastClone("x")
	assert.Equal(t, 0, h.Len())
	require.NoError(t, h.Wait(context.Background()))
}

// =============================================================================
// Shutdown
// =============================================================================

func TestShutdownClone_Sentinel(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	hub := notifier.New[signal, string]()
	r1 := hub.Subscribe("c1", 0)
	r2 := hub.Subscribe("c1", 0)
	hub.Subscribe("c2", 0)

	h, err := notifier.ShutdownClone(hub, "c1")
	require.NoError(t, err)
	require.Equal(t, 2, h.Len())
	require.NoError(t, h.Wait(ctx))

	for _, r := range []*notifier.Receiver[signal, string]{r1, r2} {
		v, err := r.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, signal("CLOSE"), v)
	}

	// Shutdown is pure signaling: nothing is removed from the registry.
	assert.Equal(t, notifier.StateRunning, hub.ChannelState("c1"))
	assert.Equal(t, 2, hub.NumSubscribers("c1"))
}

func TestShutdownClone_Uninitialised(t *testing.T) {
	t.Parallel()

	hub := notifier.New[signal, string]()
	_, err := notifier.ShutdownClone(hub, "unknown")
	require.ErrorIs(t, err, notifier.ErrChannelUninitialised)
}

func TestShutdownAllClone(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	hub := notifier.New[signal, string]()
	rs := []*notifier.Receiver[signal, string]{
		hub.Subscribe("c1", 0),
		hub.Subscribe("c2", 0),
		hub.Subscribe("c3", 0),
	}

	h := notifier.ShutdownAllClone(hub)
	require.Equal(t, 3, h.Len())
	require.NoError(t, h.Wait(ctx))

	for _, r := range rs {
		v, err := r.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, signal("CLOSE"), v)
	}
}
