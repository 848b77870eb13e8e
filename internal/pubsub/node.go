package pubsub

import (
	"fmt"
	"net"
	"sync"

	"github.com/nerrad567/radiomesh/internal/transport"
)

// Radio channel bounds shared by all peers.
const (
	minChannel = 1
	maxChannel = 14
)

// Config holds a node's static configuration.
type Config struct {
	// Channel is the shared radio channel, 1-14. Every peer must use the
	// same channel for broadcast frames to be heard.
	Channel int

	// Standalone marks a node running without a managed network stack.
	// Setup then performs the extended bring-up itself instead of
	// waiting for link events.
	Standalone bool

	// SendRepeat transmits each published frame this many times to
	// compensate for the lossy medium. Defaults to 1.
	SendRepeat int
}

// Node is a pub/sub peer on the shared radio channel.
//
// Lifecycle: create with New, register subscriptions with Subscribe, then
// call Setup once. Drive the processing context by calling Tick
// periodically and additionally whenever Wake signals. Publish may be
// called from any goroutine after Setup.
//
// All mutable state apart from the inbound queue is guarded by one
// mutex; the receive context touches only the queue and the logger.
type Node struct {
	channel    int
	standalone bool
	sendRepeat int

	radio     transport.Radio
	messenger transport.Messenger

	registry   *Registry
	queue      *Queue
	dispatcher *Dispatcher

	logger    Logger
	telemetry TelemetrySink
	journal   Journal

	mu               sync.Mutex
	state            State
	transportReady   bool
	observedChannel  int // 0 = unknown
	compatible       bool
	lastErr          error
	counters         Counters
	pendingTelemetry bool
	overflowSeen     uint64
}

// New creates a node bound to the given radio and messenger.
//
// Parameters:
//   - cfg: static node configuration
//   - radio: driver-level transport operations
//   - messenger: overlay-level transport operations
//
// Returns:
//   - *Node: node ready for Subscribe and Setup
//   - error: if the configured channel is out of range
func New(cfg Config, radio transport.Radio, messenger transport.Messenger) (*Node, error) {
	if cfg.Channel < minChannel || cfg.Channel > maxChannel {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidChannel, cfg.Channel)
	}
	sendRepeat := cfg.SendRepeat
	if sendRepeat < 1 {
		sendRepeat = 1
	}

	registry := NewRegistry()
	return &Node{
		channel:    cfg.Channel,
		standalone: cfg.Standalone,
		sendRepeat: sendRepeat,
		radio:      radio,
		messenger:  messenger,
		registry:   registry,
		queue:      NewQueue(),
		dispatcher: NewDispatcher(registry),
		logger:     noopLogger{},
		state:      StateUninitialized,
		compatible: true,
	}, nil
}

// SetLogger sets the node's logger. Call before Setup.
func (n *Node) SetLogger(logger Logger) {
	n.logger = logger
}

// SetTelemetrySink sets the sink for deferred telemetry publication.
// Call before Setup.
func (n *Node) SetTelemetrySink(sink TelemetrySink) {
	n.telemetry = sink
}

// SetJournal sets the message journal. Call before Setup.
func (n *Node) SetJournal(journal Journal) {
	n.journal = journal
}

// Subscribe registers a handler for topics matching the pattern.
// Registration is append-only and happens during setup; patterns are not
// validated (a non-final `#` simply never matches) and duplicates are
// allowed. Must be called before Setup so the binding sequence sees the
// final subscription set.
func (n *Node) Subscribe(pattern string, handler MessageHandler) {
	n.registry.Add(pattern, handler)
}

// Publish broadcasts a message to every peer on the shared channel.
//
// The send is fire-and-forget: it begins a best-effort attempt and
// returns immediately. It fails fast when the transport is not bound or
// the channel is mismatched. The outcome is also recorded in the status
// for observability.
func (n *Node) Publish(topic string, payload []byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.transportReady {
		n.setStatusLocked(statusNotInitialized)
		n.logger.Error("publish before transport binding", "topic", topic)
		return ErrNotReady
	}
	if !n.compatible {
		n.setStatusLocked(statusChannelMismatch)
		n.logger.Error("publish blocked by channel mismatch",
			"topic", topic,
			"configured", n.channel,
			"observed", n.observedChannel,
		)
		return ErrChannelMismatch
	}

	frame := EncodeFrame(topic, payload)
	for i := 0; i < n.sendRepeat; i++ {
		if err := n.messenger.Send(transport.Broadcast, frame); err != nil {
			n.setStatusLocked(sendFailureStatus(err))
			n.logger.Error("send failed", "topic", topic, "error", err)
			return fmt.Errorf("sending frame: %w", err)
		}
	}

	n.counters.Sent++
	n.setStatusLocked(statusOK)
	n.pendingTelemetry = true

	if n.journal != nil {
		if err := n.journal.RecordPublished(topic, payload); err != nil {
			n.logger.Warn("journal write failed", "error", err)
		}
	}
	n.logger.Debug("published", "topic", topic, "bytes", len(payload))
	return nil
}

// handleReceive runs in the transport's receive context. Its only
// responsibilities are validating the frame shape, splitting it into
// topic and payload and pushing it onto the queue; everything else
// happens in the processing context.
func (n *Node) handleReceive(src net.HardwareAddr, rssi int, frame []byte) {
	topic, payload, err := DecodeFrame(frame)
	if err != nil {
		n.logger.Warn("dropping malformed frame",
			"source", src.String(),
			"frame_len", len(frame),
		)
		return
	}

	msg := Message{
		Topic:   topic,
		Payload: append([]byte(nil), payload...), // frame is transport-owned
		Source:  append(net.HardwareAddr(nil), src...),
		RSSI:    rssi,
	}
	if n.queue.Push(msg) {
		n.logger.Warn("inbound queue full, dropped oldest message")
	}
}

// Tick runs one processing cycle: drain the queue, dispatch every
// drained message, then flush deferred telemetry once. It reports
// whether more work may be pending; false means the host can suspend
// the loop until Wake signals or the next periodic tick.
func (n *Node) Tick() bool {
	msgs := n.queue.DrainAll()
	if len(msgs) > 0 {
		for i := range msgs {
			n.processMessage(&msgs[i])
		}

		n.mu.Lock()
		if ev := n.queue.Evictions(); ev > n.overflowSeen {
			n.setStatusLocked(statusQueueOverflow)
			n.overflowSeen = ev
		}
		n.pendingTelemetry = true
		n.mu.Unlock()
		return true
	}

	n.mu.Lock()
	if !n.pendingTelemetry {
		n.mu.Unlock()
		return false
	}
	n.pendingTelemetry = false
	counters := n.counters
	n.mu.Unlock()

	if n.telemetry != nil {
		n.telemetry.RecordCounters(counters.Sent, counters.Received, counters.LastRSSI)
		n.telemetry.RecordStatus(counters.LastStatus)
	}
	return true
}

// processMessage updates counters and dispatches one drained message.
func (n *Node) processMessage(msg *Message) {
	n.mu.Lock()
	n.counters.Received++
	n.counters.LastRSSI = msg.RSSI
	n.setStatusLocked(statusOK)
	n.mu.Unlock()

	matched := n.dispatcher.Process(msg.Topic, msg.Payload)
	if matched {
		n.logger.Info("message dispatched",
			"topic", msg.Topic,
			"source", msg.Source.String(),
		)
	} else {
		n.logger.Info("message not subscribed",
			"topic", msg.Topic,
			"source", msg.Source.String(),
		)
	}

	if n.journal != nil {
		if err := n.journal.RecordReceived(msg.Topic, msg.Payload, msg.Source.String(), msg.RSSI); err != nil {
			n.logger.Warn("journal write failed", "error", err)
		}
	}
}

// Wake returns the channel signalled whenever the receive context queues
// a message. Hosts select on it to re-arm a suspended processing loop.
func (n *Node) Wake() <-chan struct{} {
	return n.queue.Wake()
}

// Describe returns a diagnostic summary of the node: identity, channel
// binding, transport state, counters and the full subscription list.
func (n *Node) Describe() Diagnostics {
	mac := "(unavailable)"
	if addr, err := n.radio.HardwareAddr(); err == nil {
		mac = addr.String()
	}
	powerSave := "unknown"
	if ps, err := n.radio.PowerSave(); err == nil {
		powerSave = ps.String()
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	d := Diagnostics{
		MACAddress:        mac,
		State:             n.state,
		ConfiguredChannel: n.channel,
		ObservedChannel:   n.observedChannel,
		ChannelCompatible: n.compatible,
		TransportReady:    n.transportReady,
		PowerSave:         powerSave,
		LastStatus:        n.counters.LastStatus,
		Subscriptions:     n.registry.Patterns(),
		Sent:              n.counters.Sent,
		Received:          n.counters.Received,
		LastRSSI:          n.counters.LastRSSI,
		QueueEvictions:    n.queue.Evictions(),
	}
	if n.lastErr != nil {
		d.LastError = n.lastErr.Error()
	}
	return d
}

// setStatusLocked records the last status string. Caller holds n.mu.
func (n *Node) setStatusLocked(status string) {
	n.counters.LastStatus = status
}
