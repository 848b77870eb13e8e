package transport

// EventType identifies a discrete network-stack event. Nodes that run
// alongside a managed network stack receive these as the stack's state
// changes; standalone nodes never see them.
type EventType int

const (
	// EventLinkEstablished signals the stack connected on a channel.
	// Event.Channel carries the observed channel.
	EventLinkEstablished EventType = iota + 1

	// EventLinkLost signals the upstream link went down.
	EventLinkLost

	// EventModeStarted signals the radio mode started.
	EventModeStarted

	// EventModeStopped signals the radio mode stopped.
	EventModeStopped
)

// String returns a human-readable event name for logging.
func (t EventType) String() string {
	switch t {
	case EventLinkEstablished:
		return "link_established"
	case EventLinkLost:
		return "link_lost"
	case EventModeStarted:
		return "mode_started"
	case EventModeStopped:
		return "mode_stopped"
	default:
		return "unknown"
	}
}

// Event is a discrete network-stack input delivered to the overlay's
// channel state machine.
type Event struct {
	Type EventType

	// Channel is the observed radio channel. Only meaningful for
	// EventLinkEstablished.
	Channel int
}
