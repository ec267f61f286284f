package notifier

// ChannelState describes the lifecycle of a single channel key inside a Hub.
type ChannelState int

const (
	// StateUninitialised means the key has never been subscribed to.
	StateUninitialised ChannelState = iota
	// StateRunning means the channel currently has at least one subscriber.
	StateRunning
	// StateOver means the channel had subscribers in the past but all of them
	// left. A later subscribe moves the channel back to StateRunning.
	StateOver
)

// String implements fmt.Stringer.
func (s ChannelState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateOver:
		return "over"
	default:
		return "uninitialised"
	}
}
