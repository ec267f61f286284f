package notifier

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifierhub/mailbox"
)

const (
	// DefaultCapacity is the mailbox capacity used when a subscribe call
	// passes a non-positive capacity.
	DefaultCapacity = 100

	// DefaultWaiterCapacity is the capacity of the notification queue behind
	// each Waiter. Notifications are tiny and waiters are expected to drain
	// promptly, so a small buffer is enough slack.
	DefaultWaiterCapacity = 10
)

// slot is one registered delivery endpoint of a channel: the sending half of
// the subscriber's mailbox plus the identity token used to match it during
// unsubscription.
type slot[M any] struct {
	token uuid.UUID
	tx    *mailbox.Sender[M]
}

// Hub is a keyed registry of broadcast channels. Each channel key maps to a
// set of subscriber slots; sends fan a message out to every slot of a key and
// return a WritingHandler tracking per-subscriber delivery.
//
// Hub is safe for concurrent use. The channel key can be any comparable type.
//
// Example:
//
//	hub := notifier.New[string, string]()
//
//	r1 := hub.Subscribe("orders", 0)
//	r2 := hub.Subscribe("orders", 0)
//
//	h, err := hub.CloneSend("order placed", "orders")
//	if err != nil {
//	    return err
//	}
//	if err := h.WaitTimeout(100 * time.Millisecond); err != nil {
//	    return err
//	}
//
//	msg, err := r1.Recv(ctx) // "order placed"
type Hub[M any, K comparable] struct {
	mu sync.RWMutex

	logger          *slog.Logger
	defaultCapacity int
	waiterCapacity  int

	subscribers map[K][]slot[M]
	creation    map[K][]*mailbox.Sender[struct{}]
	destruction map[K][]*mailbox.Sender[struct{}]
}

// settings collects option values so that Option stays free of the Hub's
// type parameters.
type settings struct {
	logger          *slog.Logger
	defaultCapacity int
	waiterCapacity  int
}

// Option configures a Hub.
type Option func(*settings)

// WithLogger configures structured logging for the hub.
// By default the hub is silent.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaultCapacity sets the mailbox capacity used when a subscribe call
// passes a non-positive capacity. Default is DefaultCapacity.
func WithDefaultCapacity(capacity int) Option {
	return func(s *settings) {
		if capacity > 0 {
			s.defaultCapacity = capacity
		}
	}
}

// WithWaiterCapacity sets the notification queue capacity of newly created
// waiters. Default is DefaultWaiterCapacity.
func WithWaiterCapacity(capacity int) Option {
	return func(s *settings) {
		if capacity > 0 {
			s.waiterCapacity = capacity
		}
	}
}

// New creates an empty hub with no channels.
//
// Example:
//
//	hub := notifier.New[Event, string](
//	    notifier.WithDefaultCapacity(256),
//	    notifier.WithLogger(logger),
//	)
func New[M any, K comparable](opts ...Option) *Hub[M, K] {
	s := settings{
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		defaultCapacity: DefaultCapacity,
		waiterCapacity:  DefaultWaiterCapacity,
	}
	for _, opt := range opts {
		opt(&s)
	}

	return &Hub[M, K]{
		logger:          s.logger,
		defaultCapacity: s.defaultCapacity,
		waiterCapacity:  s.waiterCapacity,
		subscribers:     make(map[K][]slot[M]),
		creation:        make(map[K][]*mailbox.Sender[struct{}]),
		destruction:     make(map[K][]*mailbox.Sender[struct{}]),
	}
}

func (h *Hub[M, K]) capacity(requested int) int {
	if requested > 0 {
		return requested
	}
	return h.defaultCapacity
}

// Subscribe registers a new subscriber on the given channel and returns the
// receiving handle. The channel entry is created lazily; every creation
// waiter registered for the key is notified once. Capacity selects the
// subscriber's mailbox size; non-positive means the hub default.
func (h *Hub[M, K]) Subscribe(id K, capacity int) *Receiver[M, K] {
	h.mu.Lock()
	defer h.mu.Unlock()

	token, rx := h.addSlot(id, capacity)

	return &Receiver[M, K]{
		tokens:  map[K]uuid.UUID{id: token},
		sources: map[K]*mailbox.Receiver[M]{id: rx},
		merged:  rx,
	}
}

// SubscribeMultiple registers the subscriber on every given channel, one
// mailbox per channel, and returns a single receiver whose Recv merges all of
// them: exactly-once emission, per-channel FIFO order, no cross-channel
// ordering. Subscribing to zero channels returns a receiver that never
// yields a message.
func (h *Hub[M, K]) SubscribeMultiple(ids []K, capacity int) *Receiver[M, K] {
	h.mu.Lock()
	defer h.mu.Unlock()

	tokens := make(map[K]uuid.UUID, len(ids))
	sources := make(map[K]*mailbox.Receiver[M], len(ids))
	order := make([]*mailbox.Receiver[M], 0, len(ids))
	for _, id := range ids {
		if _, ok := tokens[id]; ok {
			continue // a receiver holds at most one slot per channel
		}
		token, rx := h.addSlot(id, capacity)
		tokens[id] = token
		sources[id] = rx
		order = append(order, rx)
	}

	r := &Receiver[M, K]{tokens: tokens, sources: sources}
	switch len(order) {
	case 0:
		// A mailbox whose sender is discarded unclosed never yields and
		// never reports end-of-stream.
		_, r.merged = mailbox.New[M](0)
	case 1:
		r.merged = order[0]
	default:
		r.merged = mailbox.Merge(order...)
	}
	return r
}

// addSlot performs the single-channel subscribe step. Caller must hold the
// write lock.
func (h *Hub[M, K]) addSlot(id K, capacity int) (uuid.UUID, *mailbox.Receiver[M]) {
	tx, rx := mailbox.New[M](h.capacity(capacity))
	token := uuid.New()
	h.subscribers[id] = append(h.subscribers[id], slot[M]{token: token, tx: tx})
	h.creation[id] = notify(h.creation[id])

	h.logger.Debug("subscriber added",
		slog.Any("channel", id),
		slog.String("subscriber", token.String()),
		slog.Int("subscribers", len(h.subscribers[id])))

	return token, rx
}

// Unsubscribe removes the receiver's slot from the given channel and closes
// its mailbox, so the receiver drains buffered messages and then observes
// end-of-stream. It returns ErrNotSubscribed when the channel is unknown or
// the slot is absent. When the removal empties the channel, the state moves
// to StateOver and every destruction waiter for the key fires once.
func (h *Hub[M, K]) Unsubscribe(id K, r *Receiver[M, K]) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	token, ok := r.tokens[id]
	if !ok {
		return ErrNotSubscribed
	}
	slots, ok := h.subscribers[id]
	if !ok {
		return ErrNotSubscribed
	}

	for i, s := range slots {
		if s.token != token {
			continue
		}
		s.tx.Close()
		h.subscribers[id] = append(slots[:i:i], slots[i+1:]...)

		h.logger.Debug("subscriber removed",
			slog.Any("channel", id),
			slog.String("subscriber", token.String()),
			slog.Int("subscribers", len(h.subscribers[id])))

		if len(h.subscribers[id]) == 0 {
			h.destruction[id] = notify(h.destruction[id])
		}
		return nil
	}
	return ErrNotSubscribed
}

// UnsubscribeMultiple unsubscribes the receiver from every given channel.
// All channels are attempted even when some fail; the individual failures
// are joined into the returned error.
func (h *Hub[M, K]) UnsubscribeMultiple(ids []K, r *Receiver[M, K]) error {
	var errs []error
	for _, id := range ids {
		if err := h.Unsubscribe(id, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// UnsubscribeAll unsubscribes the receiver from every channel it is currently
// subscribed to and returns those channel keys.
func (h *Hub[M, K]) UnsubscribeAll(r *Receiver[M, K]) []K {
	ids := h.Subscriptions(r)
	for _, id := range ids {
		_ = h.Unsubscribe(id, r) // cannot fail: Subscriptions returned live slots
	}
	return ids
}

// IsSubscribed reports whether the receiver currently holds a slot in the
// given channel.
func (h *Hub[M, K]) IsSubscribed(id K, r *Receiver[M, K]) bool {
	token, ok := r.tokens[id]
	if !ok {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subscribers[id] {
		if s.token == token {
			return true
		}
	}
	return false
}

// Subscriptions returns the channel keys the receiver currently holds a slot
// in.
func (h *Hub[M, K]) Subscriptions(r *Receiver[M, K]) []K {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]K, 0, len(r.tokens))
	for id, token := range r.tokens {
		for _, s := range h.subscribers[id] {
			if s.token == token {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids
}

// ChannelState returns the lifecycle state of the given channel key. Unknown
// keys yield StateUninitialised.
func (h *Hub[M, K]) ChannelState(id K) ChannelState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stateLocked(id)
}

func (h *Hub[M, K]) stateLocked(id K) ChannelState {
	slots, ok := h.subscribers[id]
	switch {
	case !ok:
		return StateUninitialised
	case len(slots) == 0:
		return StateOver
	default:
		return StateRunning
	}
}

// Channels returns every channel key that has ever been subscribed to.
func (h *Hub[M, K]) Channels() []K {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]K, 0, len(h.subscribers))
	for id := range h.subscribers {
		ids = append(ids, id)
	}
	return ids
}

// NumSubscribers returns the number of active subscribers of the channel.
func (h *Hub[M, K]) NumSubscribers(id K) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[id])
}

// CleanChannel prunes slots whose receiving half was dropped without an
// explicit unsubscribe and returns the channel state after pruning. Pruning
// does not fire destruction waiters.
func (h *Hub[M, K]) CleanChannel(id K) ChannelState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cleanLocked(id)
}

// CleanAll prunes dropped slots on every channel and returns the resulting
// state per channel key.
func (h *Hub[M, K]) CleanAll() map[K]ChannelState {
	h.mu.Lock()
	defer h.mu.Unlock()

	states := make(map[K]ChannelState, len(h.subscribers))
	for id := range h.subscribers {
		states[id] = h.cleanLocked(id)
	}
	return states
}

func (h *Hub[M, K]) cleanLocked(id K) ChannelState {
	slots, ok := h.subscribers[id]
	if !ok {
		return StateUninitialised
	}

	kept := make([]slot[M], 0, len(slots))
	for _, s := range slots {
		if !s.tx.IsClosed() {
			kept = append(kept, s)
		}
	}
	if len(kept) != len(slots) {
		h.logger.Debug("channel cleaned",
			slog.Any("channel", id),
			slog.Int("removed", len(slots)-len(kept)))
	}
	h.subscribers[id] = kept
	return h.stateLocked(id)
}

// CreationWaiter registers and returns a waiter that receives one
// notification per subsequent subscribe on the given channel. Registering a
// waiter does not initialise the channel.
func (h *Hub[M, K]) CreationWaiter(id K) *Waiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	tx, rx := mailbox.New[struct{}](h.waiterCapacity)
	h.creation[id] = append(h.creation[id], tx)
	return &Waiter{rx: rx}
}

// DestructionWaiter registers and returns a waiter that receives one
// notification each time the given channel runs out of subscribers.
// Registering a waiter does not initialise the channel.
func (h *Hub[M, K]) DestructionWaiter(id K) *Waiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	tx, rx := mailbox.New[struct{}](h.waiterCapacity)
	h.destruction[id] = append(h.destruction[id], tx)
	return &Waiter{rx: rx}
}

// NumCreationWaiters returns the number of live creation waiters registered
// for the channel.
func (h *Hub[M, K]) NumCreationWaiters(id K) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.creation[id])
}

// NumDestructionWaiters returns the number of live destruction waiters
// registered for the channel.
func (h *Hub[M, K]) NumDestructionWaiters(id K) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.destruction[id])
}

// notify fires one notification into every waiter queue and drops queues
// whose waiter was closed. Delivery is best-effort: a waiter that stopped
// draining its queue misses the notification rather than blocking the hub.
func notify(waiters []*mailbox.Sender[struct{}]) []*mailbox.Sender[struct{}] {
	kept := waiters[:0]
	for _, w := range waiters {
		if err := w.TrySend(struct{}{}); errors.Is(err, mailbox.ErrClosed) {
			continue
		}
		kept = append(kept, w)
	}
	return kept
}
