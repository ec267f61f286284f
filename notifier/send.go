package notifier

import "log/slog"

// Cloner is an optional capability of the message type. When the type
// implements it, CloneSend and BroadcastClone duplicate each per-subscriber
// copy through Clone instead of a plain value copy, which matters for
// messages holding shared references.
type Cloner[M any] interface {
	Clone() M
}

// Closable is the capability required by ShutdownClone and ShutdownAllClone:
// the message type produces its canonical end-of-stream sentinel. The
// receiver loop is expected to unsubscribe itself upon observing it.
type Closable[M any] interface {
	CloseMessage() M
}

// duplicate produces the per-subscriber copy of a message, honoring the
// Cloner capability when the type provides it.
func duplicate[M any](msg M) M {
	if c, ok := any(msg).(Cloner[M]); ok {
		return c.Clone()
	}
	return msg
}

// channelSlots snapshots the slots of one channel. The second return value
// distinguishes an unknown channel from an empty one.
func (h *Hub[M, K]) channelSlots(id K) ([]slot[M], bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	slots, ok := h.subscribers[id]
	if !ok {
		return nil, false
	}
	out := make([]slot[M], len(slots))
	copy(out, slots)
	return out, true
}

// allSlots snapshots every slot of every channel. A subscriber registered
// under multiple keys appears once per key.
func (h *Hub[M, K]) allSlots() []slot[M] {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []slot[M]
	for _, slots := range h.subscribers {
		out = append(out, slots...)
	}
	return out
}

// sendTo creates the tracking handler for a set of targets and dispatches one
// message per target, produced by next. Entries are created before any
// dispatch so the handler's size is fixed at send time.
func sendTo[M any](targets []slot[M], next func() M) *WritingHandler {
	entries := make([]*sendEntry, len(targets))
	for i, s := range targets {
		entries[i] = &sendEntry{subscriber: s.token, done: make(chan struct{})}
	}
	wh := newWritingHandler(entries)
	for i, s := range targets {
		dispatch(wh, entries[i], s.tx, next())
	}
	return wh
}

// CloneSend delivers an independent copy of the message to every current
// subscriber of the channel and returns the handler tracking one entry per
// subscriber. It fails with ErrChannelUninitialised when the channel has
// never been subscribed to; a known channel with zero subscribers yields an
// empty, immediately satisfied handler.
func (h *Hub[M, K]) CloneSend(msg M, id K) (*WritingHandler, error) {
	targets, ok := h.channelSlots(id)
	if !ok {
		return nil, ErrChannelUninitialised
	}

	h.logger.Debug("clone send",
		slog.Any("channel", id),
		slog.Int("subscribers", len(targets)))

	return sendTo(targets, func() M { return duplicate(msg) }), nil
}

// BroadcastClone delivers a copy of the message to every subscriber slot of
// every channel in the registry and returns one combined handler. A receiver
// subscribed under n channels receives n copies.
func (h *Hub[M, K]) BroadcastClone(msg M) *WritingHandler {
	targets := h.allSlots()

	h.logger.Debug("clone broadcast", slog.Int("subscribers", len(targets)))

	return sendTo(targets, func() M { return duplicate(msg) })
}

// ArcSend wraps the message once and delivers the same shared instance to
// every current subscriber of the channel, avoiding the per-subscriber copy
// cost of CloneSend for large payloads. Unlike CloneSend it never fails: an
// unknown channel yields an empty, immediately satisfied handler.
func ArcSend[M any, K comparable](h *Hub[*M, K], msg M, id K) *WritingHandler {
	shared := &msg
	targets, _ := h.channelSlots(id)

	h.logger.Debug("shared send",
		slog.Any("channel", id),
		slog.Int("subscribers", len(targets)))

	return sendTo(targets, func() *M { return shared })
}

// BroadcastArc wraps the message once and delivers the same shared instance
// to every subscriber slot of every channel.
func BroadcastArc[M any, K comparable](h *Hub[*M, K], msg M) *WritingHandler {
	shared := &msg
	targets := h.allSlots()

	h.logger.Debug("shared broadcast", slog.Int("subscribers", len(targets)))

	return sendTo(targets, func() *M { return shared })
}

// ShutdownClone delivers the message type's canonical close sentinel to every
// current subscriber of the channel, exactly like CloneSend of that value.
// It is purely a signaling convenience: no subscriber is removed and the
// channel state is untouched; subscribers unsubscribe themselves upon
// observing the sentinel.
func ShutdownClone[M Closable[M], K comparable](h *Hub[M, K], id K) (*WritingHandler, error) {
	var sentinel M
	return h.CloneSend(sentinel.CloseMessage(), id)
}

// ShutdownAllClone delivers the close sentinel to every subscriber of every
// channel and returns the combined handler.
func ShutdownAllClone[M Closable[M], K comparable](h *Hub[M, K]) *WritingHandler {
	var sentinel M
	return h.BroadcastClone(sentinel.CloseMessage())
}
