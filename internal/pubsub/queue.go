package pubsub

import (
	"net"
	"sync"
)

// QueueCapacity is the maximum number of messages the inbound queue
// holds. Pushing onto a full queue evicts the oldest message.
const QueueCapacity = 16

// Message is a raw received message awaiting dispatch. It is created by
// the receive path, consumed exactly once by the dispatcher and then
// discarded; it has no identity beyond its queue position.
//
// Source and RSSI ride along so that counters and signal strength are
// updated in the processing context only, never from the receive context.
type Message struct {
	Topic   string
	Payload []byte
	Source  net.HardwareAddr
	RSSI    int
}

// Queue is the bounded inbound FIFO bridging the asynchronous receive
// context (producer) and the cooperative processing context (consumer).
//
// Push never blocks and never fails; DrainAll removes the entire backlog
// in one atomic handoff. Messages pushed concurrently with a drain are
// never lost or duplicated, only deferred to the next drain.
type Queue struct {
	mu       sync.Mutex
	messages []Message
	evicted  uint64

	// wake carries the single cross-context signal: "work pending".
	// Buffered with capacity one so the receive context never blocks.
	wake chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		messages: make([]Message, 0, QueueCapacity),
		wake:     make(chan struct{}, 1),
	}
}

// Push appends a message, evicting the oldest entry first when the queue
// is at capacity. It reports whether an eviction occurred so the caller
// can log a warning. Safe to call from the receive context; the critical
// section is a bounded copy.
func (q *Queue) Push(msg Message) bool {
	q.mu.Lock()
	evicted := false
	if len(q.messages) >= QueueCapacity {
		copy(q.messages, q.messages[1:])
		q.messages[len(q.messages)-1] = msg
		q.evicted++
		evicted = true
	} else {
		q.messages = append(q.messages, msg)
	}
	q.mu.Unlock()

	// Re-arm the processing context. Non-blocking: a pending signal
	// already covers this message.
	select {
	case q.wake <- struct{}{}:
	default:
	}

	return evicted
}

// DrainAll atomically removes and returns every queued message, oldest
// first, leaving the queue empty. A second drain with no intervening push
// returns nil.
func (q *Queue) DrainAll() []Message {
	q.mu.Lock()
	drained := q.messages
	if len(drained) == 0 {
		q.mu.Unlock()
		return nil
	}
	q.messages = make([]Message, 0, QueueCapacity)
	q.mu.Unlock()
	return drained
}

// Len returns the current number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}

// Evictions returns the total number of messages evicted by overflow
// since the queue was created.
func (q *Queue) Evictions() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.evicted
}

// Wake returns the channel signalled whenever a message is pushed. The
// host selects on it to re-arm a suspended processing loop.
func (q *Queue) Wake() <-chan struct{} {
	return q.wake
}
